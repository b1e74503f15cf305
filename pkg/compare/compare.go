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

// Package compare classifies agreements and compares them against
// templates using the LLM, with every call routed through the resilient
// executor.
package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/executor"
	"github.com/doclens/doclens/pkg/llm"
)

// AgreementType is one of the supported GDPR agreement categories.
type AgreementType string

const (
	TypeDPA          AgreementType = "Data Processing Agreement"
	TypeJCA          AgreementType = "Joint Controller Agreement"
	TypeC2C          AgreementType = "Controller-to-Controller Agreement"
	TypeSubprocessor AgreementType = "Processor-to-Subprocessor Agreement"
	TypeSCC          AgreementType = "Standard Contractual Clauses"
)

// AgreementTypes lists all supported categories in display order.
var AgreementTypes = []AgreementType{
	TypeDPA,
	TypeJCA,
	TypeC2C,
	TypeSubprocessor,
	TypeSCC,
}

// maxPromptChars bounds how much document text is embedded in a prompt.
const maxPromptChars = 8000

// Analyzer runs LLM analysis through the executor.
type Analyzer struct {
	exec   *executor.Executor
	client *llm.Client
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(exec *executor.Executor, client *llm.Client) *Analyzer {
	return &Analyzer{
		exec:   exec,
		client: client,
	}
}

// DocumentType determines which agreement category the text belongs to.
func (a *Analyzer) DocumentType(ctx context.Context, text string) (AgreementType, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text to classify")
	}

	prompt := documentTypePrompt(Truncate(text, maxPromptChars))

	content, err := executor.ExecuteWithResult(ctx, a.exec,
		func(ctx context.Context, cred credential.Credential) (string, error) {
			return a.client.CompleteJSON(ctx, cred.Secret, prompt)
		})
	if err != nil {
		return "", fmt.Errorf("document type analysis failed: %w", err)
	}

	var result struct {
		DocumentType string `json:"document_type"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return "", fmt.Errorf("failed to parse classification response: %w", err)
	}

	return normalizeType(result.DocumentType), nil
}

// Compare analyzes a new agreement against a template and returns the
// six-section compliance report as text.
func (a *Analyzer) Compare(ctx context.Context, document, template string) (string, error) {
	prompt := comparePrompt(Truncate(document, maxPromptChars), Truncate(template, maxPromptChars))

	report, err := executor.ExecuteWithResult(ctx, a.exec,
		func(ctx context.Context, cred credential.Credential) (string, error) {
			return a.client.Complete(ctx, cred.Secret, prompt)
		})
	if err != nil {
		return "", fmt.Errorf("agreement comparison failed: %w", err)
	}

	return report, nil
}

// ExtractClauses pulls the individual clauses out of contract text as JSON.
func (a *Analyzer) ExtractClauses(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text to extract clauses from")
	}

	prompt := clausePrompt(text)

	clauses, err := executor.ExecuteWithResult(ctx, a.exec,
		func(ctx context.Context, cred credential.Credential) (string, error) {
			return a.client.CompleteJSON(ctx, cred.Secret, prompt)
		})
	if err != nil {
		return "", fmt.Errorf("clause extraction failed: %w", err)
	}

	return clauses, nil
}

// normalizeType maps the model's answer onto a known agreement type: exact
// match first, then a substring match in either direction, then the DPA
// fallback.
func normalizeType(detected string) AgreementType {
	for _, t := range AgreementTypes {
		if detected == string(t) {
			return t
		}
	}

	lower := strings.ToLower(detected)
	for _, t := range AgreementTypes {
		name := strings.ToLower(string(t))
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			return t
		}
	}

	return TypeDPA
}

// Truncate limits text to max characters, preferring a sentence boundary
// when one falls in the last fifth of the window.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}

	truncated := text[:max]
	lastPeriod := strings.LastIndex(truncated, ".")
	if lastPeriod > max*4/5 {
		return truncated[:lastPeriod+1]
	}
	return truncated + "..."
}
