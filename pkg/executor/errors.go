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

package executor

import (
	"errors"
	"fmt"
	"time"
)

// Common errors.
var (
	// ErrExhausted is returned when every credential is on cooldown after
	// the final attempt.
	ErrExhausted = errors.New("all credentials exhausted")

	// ErrRetriesExhausted is the generic fallback when retries run out
	// without a clean exhaustion signal.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// ExhaustedError carries the terminal exhaustion state: the cooldown
// snapshot at failure time and the minimum wait until any key becomes
// available again.
type ExhaustedError struct {
	Retries        int
	MinWait        time.Duration
	CooldownStatus map[int]string
}

// Error returns the error message.
func (e *ExhaustedError) Error() string {
	if e.MinWait > 0 {
		return fmt.Sprintf("all credentials exhausted after %d attempts, next key available in %.1fs",
			e.Retries, e.MinWait.Seconds())
	}
	return fmt.Sprintf("all credentials exhausted after %d attempts", e.Retries)
}

// Unwrap returns the underlying sentinel.
func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// RetriesError is returned when the retry loop runs out without success or
// an explicit exhaustion failure.
type RetriesError struct {
	Attempts int
}

func (e *RetriesError) Error() string {
	return fmt.Sprintf("failed after %d attempts", e.Attempts)
}

func (e *RetriesError) Unwrap() error {
	return ErrRetriesExhausted
}

// IsExhausted checks if an error is a credential exhaustion error.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
