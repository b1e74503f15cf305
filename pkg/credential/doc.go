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

// Package credential manages a pool of interchangeable API keys with
// per-key cooldowns and round-robin rotation.
//
// Keys are identified by a stable index assigned at construction, never by
// value, so rotation decisions do not touch the secrets themselves. A key
// that hits a rate limit is placed on cooldown and the pool rotates to the
// nearest eligible key after it. When every key is cooling down, Acquire
// blocks until the earliest cooldown expires.
//
// # Basic Usage
//
//	pool, err := credential.NewPool([]string{key1, key2})
//	if err != nil {
//	    // no usable keys configured
//	}
//
//	cred := pool.Acquire()
//	// ... call the upstream API with cred.Secret ...
//
//	// on a rate-limit response:
//	if next, ok := pool.MarkRateLimited(60 * time.Second); ok {
//	    // retry immediately with next
//	}
//
// All methods are safe for concurrent use. Cooldown state, the current
// index, and request counters are serialized under a single pool-wide lock;
// the blocking path inside Acquire releases the lock while sleeping.
package credential
