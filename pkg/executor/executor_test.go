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
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/doclens/doclens/pkg/credential"
)

// fakePool is a scripted CredentialPool. rotations holds the result of each
// successive MarkRateLimited call.
type fakePool struct {
	cred      credential.Credential
	rotations []bool
	marks     int
	acquires  int
	stats     credential.Stats
}

func (p *fakePool) Acquire() credential.Credential {
	p.acquires++
	return p.cred
}

func (p *fakePool) MarkRateLimited(cooldown time.Duration) (credential.Credential, bool) {
	ok := false
	if p.marks < len(p.rotations) {
		ok = p.rotations[p.marks]
	}
	p.marks++
	if !ok {
		return credential.Credential{}, false
	}
	return p.cred, true
}

func (p *fakePool) Stats() credential.Stats {
	return p.stats
}

// fakeSink records alert deliveries.
type fakeSink struct {
	notified  int
	exhausted int
	err       error
}

func (s *fakeSink) Notify(ctx context.Context, subject, body string) error {
	s.notified++
	return s.err
}

func (s *fakeSink) NotifyRateLimitExhausted(ctx context.Context, status map[int]string, retries int, minWait time.Duration) error {
	s.exhausted++
	return s.err
}

// rateLimitErr carries the structured signal without a matching message.
type rateLimitErr struct{}

func (rateLimitErr) Error() string     { return "quota exceeded" }
func (rateLimitErr) IsRateLimit() bool { return true }

func testConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Cooldown:     time.Minute,
	}
}

func TestExecuteSuccess(t *testing.T) {
	pool := &fakePool{cred: credential.Credential{Index: 0, Secret: "key-a"}}
	e := New(pool, nil, testConfig())
	e.sleep = func(time.Duration) {}

	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("work invoked %d times, want 1", calls)
	}
	if pool.acquires != 1 {
		t.Errorf("Acquire() called %d times, want 1", pool.acquires)
	}
}

func TestExecutePropagatesNonRateLimitErrors(t *testing.T) {
	pool := &fakePool{cred: credential.Credential{Secret: "key-a"}}
	e := New(pool, nil, testConfig())
	e.sleep = func(time.Duration) {}

	boom := errors.New("connection refused")
	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		calls++
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want the original error", err)
	}
	if calls != 1 {
		t.Errorf("work invoked %d times, want 1 (no retry on non-rate-limit failure)", calls)
	}
	if pool.marks != 0 {
		t.Errorf("MarkRateLimited() called %d times, want 0", pool.marks)
	}
}

func TestExecuteRetriesOnRotation(t *testing.T) {
	// First attempt rate-limits but an alternate key exists; second succeeds.
	pool := &fakePool{
		cred:      credential.Credential{Secret: "key-a"},
		rotations: []bool{true},
	}
	e := New(pool, nil, testConfig())
	e.sleep = func(time.Duration) {}

	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		calls++
		if calls == 1 {
			return rateLimitErr{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("work invoked %d times, want 2", calls)
	}
}

func TestExecuteBackoffDoubles(t *testing.T) {
	pool := &fakePool{
		cred:      credential.Credential{Secret: "key-a"},
		rotations: []bool{false, false, false},
		stats: credential.Stats{
			TotalKeys:         1,
			RequestCounts:     []int64{3},
			CooldownRemaining: []time.Duration{30 * time.Second},
		},
	}
	e := New(pool, nil, Config{MaxRetries: 3, InitialDelay: 10 * time.Millisecond, Cooldown: time.Minute})

	var delays []time.Duration
	e.sleep = func(d time.Duration) { delays = append(delays, d) }

	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		return rateLimitErr{}
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute() error = %v, want ExhaustedError", err)
	}

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("backed off %d times (%v), want %d", len(delays), delays, len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestExecuteExhaustionAlertsOnce(t *testing.T) {
	pool := &fakePool{
		cred:      credential.Credential{Secret: "key-a"},
		rotations: []bool{false, false, false},
		stats: credential.Stats{
			TotalKeys:         2,
			RequestCounts:     []int64{5, 5},
			CooldownRemaining: []time.Duration{40 * time.Second, 20 * time.Second},
		},
	}
	sink := &fakeSink{}
	e := New(pool, sink, testConfig())
	e.sleep = func(time.Duration) {}

	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		return rateLimitErr{}
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute() error = %v, want ExhaustedError", err)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Error("errors.Is(err, ErrExhausted) = false, want true")
	}
	if exhausted.Retries != 3 {
		t.Errorf("Retries = %d, want 3", exhausted.Retries)
	}
	if exhausted.MinWait != 20*time.Second {
		t.Errorf("MinWait = %v, want 20s", exhausted.MinWait)
	}
	if sink.exhausted != 1 {
		t.Errorf("exhaustion alert fired %d times, want exactly 1", sink.exhausted)
	}
}

func TestExecuteAlertFailureIsSwallowed(t *testing.T) {
	pool := &fakePool{
		cred:      credential.Credential{Secret: "key-a"},
		rotations: []bool{false, false, false},
		stats: credential.Stats{
			TotalKeys:         1,
			RequestCounts:     []int64{1},
			CooldownRemaining: []time.Duration{time.Second},
		},
	}
	sink := &fakeSink{err: errors.New("smtp unreachable")}
	e := New(pool, sink, testConfig())
	e.sleep = func(time.Duration) {}

	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		return rateLimitErr{}
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute() error = %v, want ExhaustedError despite alert failure", err)
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	pool := &fakePool{cred: credential.Credential{Secret: "key-a"}}
	e := New(pool, nil, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, func(ctx context.Context, cred credential.Credential) error {
		t.Error("work invoked after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	pool := &fakePool{cred: credential.Credential{Secret: "key-a"}}
	e := New(pool, nil, testConfig())
	e.sleep = func(time.Duration) {}

	got, err := ExecuteWithResult(context.Background(), e, func(ctx context.Context, cred credential.Credential) (string, error) {
		return "analysis complete", nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v", err)
	}
	if got != "analysis complete" {
		t.Errorf("ExecuteWithResult() = %q, want %q", got, "analysis complete")
	}

	boom := errors.New("bad request")
	_, err = ExecuteWithResult(context.Background(), e, func(ctx context.Context, cred credential.Credential) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("ExecuteWithResult() error = %v, want the original error", err)
	}
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"structured signal", rateLimitErr{}, true},
		{"wrapped structured signal", fmt.Errorf("call failed: %w", rateLimitErr{}), true},
		{"status code", errors.New("unexpected status 429"), true},
		{"rate limit phrase", errors.New("Rate Limit reached for model"), true},
		{"mixed case", errors.New("RATE_LIMIT_EXCEEDED"), true},
		{"rate without limit", errors.New("exchange rate unavailable"), false},
		{"limit without rate", errors.New("size limit exceeded"), false},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimit(tt.err); got != tt.want {
				t.Errorf("IsRateLimit(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestExecuteWithRealPool drives the executor against a live pool with two
// keys: key 1 rate-limits, key 2 serves the request.
func TestExecuteWithRealPool(t *testing.T) {
	pool, err := credential.NewPool([]string{"key-a", "key-b"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	e := New(pool, nil, Config{MaxRetries: 3, InitialDelay: time.Millisecond, Cooldown: 50 * time.Millisecond})

	var used []string
	err = e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		used = append(used, cred.Secret)
		if cred.Secret == "key-a" {
			return rateLimitErr{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"key-a", "key-b"}
	if len(used) != len(want) {
		t.Fatalf("used keys %v, want %v", used, want)
	}
	for i := range want {
		if used[i] != want[i] {
			t.Errorf("used[%d] = %q, want %q", i, used[i], want[i])
		}
	}

	stats := pool.Stats()
	if stats.CurrentKey != 2 {
		t.Errorf("CurrentKey = %d, want 2", stats.CurrentKey)
	}
}

// TestExecuteRetriesError covers the loop falling through with rotations
// still succeeding on every attempt.
func TestExecuteRetriesError(t *testing.T) {
	pool := &fakePool{
		cred:      credential.Credential{Secret: "key-a"},
		rotations: []bool{true, true, true},
	}
	e := New(pool, nil, testConfig())
	e.sleep = func(time.Duration) {}

	err := e.Execute(context.Background(), func(ctx context.Context, cred credential.Credential) error {
		return rateLimitErr{}
	})

	var retries *RetriesError
	if !errors.As(err, &retries) {
		t.Fatalf("Execute() error = %v, want RetriesError", err)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Error("errors.Is(err, ErrRetriesExhausted) = false, want true")
	}
	if retries.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", retries.Attempts)
	}
}
