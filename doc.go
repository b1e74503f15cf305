// Copyright 2025 The Doclens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package doclens is a GDPR agreement compliance analyzer.
//
// Doclens extracts text from contract documents (PDF and DOCX), classifies
// the agreement type, and compares the document against a reference
// template using an LLM, producing a structured compliance report.
//
// All LLM traffic goes through a resilient outbound-call layer: a pool of
// Groq API keys with per-key cooldowns (pkg/credential) driven by an
// executor with bounded retries, exponential backoff, and rotation on rate
// limits (pkg/executor). When every key is exhausted, operators are alerted
// over email and Slack (pkg/alert).
//
// # Quick Start
//
// Install doclens:
//
//	go install github.com/doclens/doclens/cmd/doclens@latest
//
// Provide API keys and check a document:
//
//	export GROQ_API_KEY_1=gsk_...
//	export GROQ_API_KEY_2=gsk_...
//	doclens scrape
//	doclens check contract.pdf
//
// Or run the HTTP API:
//
//	doclens serve --config config.yaml
//
// See the package documentation under pkg/ for the individual components.
package doclens
