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

// Package executor drives units of work against a credential pool with
// bounded retries, exponential backoff, and rotation on rate limits.
//
// Only rate-limit failures are absorbed and retried; every other failure
// from the unit of work propagates unchanged with no pool interaction. When
// all credentials are exhausted on the final attempt, an alert fires once
// and the call fails with an ExhaustedError.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/metrics"
)

// CredentialPool is the slice of pool behavior the executor needs.
// *credential.Pool satisfies it.
type CredentialPool interface {
	Acquire() credential.Credential
	MarkRateLimited(cooldown time.Duration) (credential.Credential, bool)
	Stats() credential.Stats
}

// AlertSink receives operator alerts. Implementations must not panic into
// the executor; delivery errors are logged and swallowed.
type AlertSink interface {
	// Notify delivers a generic notification.
	Notify(ctx context.Context, subject, body string) error

	// NotifyRateLimitExhausted delivers a structured alert when every
	// credential is on cooldown after the final attempt. status maps 1-based
	// key numbers to cooldown state; minWait is the shortest time until any
	// key becomes available.
	NotifyRateLimitExhausted(ctx context.Context, status map[int]string, retries int, minWait time.Duration) error
}

// WorkFunc is a single attempt of the caller's operation using one
// credential.
type WorkFunc func(ctx context.Context, cred credential.Credential) error

// Config configures retry behavior.
type Config struct {
	// MaxRetries is the maximum number of attempts (default: 3).
	MaxRetries int

	// InitialDelay is the first backoff delay used when all credentials are
	// cooling down; it doubles after each backed-off attempt (default: 2s).
	InitialDelay time.Duration

	// Cooldown is the per-key cooldown applied on a rate-limit failure
	// (default: 60s).
	Cooldown time.Duration
}

// DefaultConfig returns the defaults used by New when fields are unset.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		Cooldown:     60 * time.Second,
	}
}

// Executor runs work functions through a credential pool.
type Executor struct {
	pool    CredentialPool
	alerts  AlertSink
	config  Config
	metrics *metrics.Metrics

	// sleep overrides the backoff wait in tests; nil means a
	// context-aware time.After wait.
	sleep func(time.Duration)
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New creates an executor. alerts may be nil, in which case exhaustion is
// only logged.
func New(pool CredentialPool, alerts AlertSink, cfg Config, opts ...Option) *Executor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 2 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}

	e := &Executor{
		pool:   pool,
		alerts: alerts,
		config: cfg,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs fn with credentials from the pool until it succeeds, fails
// with a non-rate-limit error, or retries run out.
//
// Per attempt: a credential is acquired (which may block while every key
// cools down), fn is invoked, and on a rate-limit failure the key is cooled
// down and the pool rotated. An eligible alternate is tried immediately;
// when none exists the executor backs off exponentially, and on the final
// attempt fires one alert and returns an ExhaustedError.
func (e *Executor) Execute(ctx context.Context, fn WorkFunc) error {
	delay := e.config.InitialDelay

	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cred := e.pool.Acquire()
		slog.Debug("Executing attempt",
			"attempt", attempt+1,
			"max_attempts", e.config.MaxRetries,
			"key", cred.Index+1)

		err := fn(ctx, cred)
		if err == nil {
			e.metrics.RecordAttempt(metrics.OutcomeSuccess)
			return nil
		}

		if !IsRateLimit(err) {
			// Failures unrelated to quota are never masked by the retry
			// loop: no retry, no pool interaction.
			e.metrics.RecordAttempt(metrics.OutcomeFailure)
			return err
		}

		e.metrics.RecordAttempt(metrics.OutcomeRateLimited)
		slog.Warn("Rate limit hit", "key", cred.Index+1, "error", err)

		if _, ok := e.pool.MarkRateLimited(e.config.Cooldown); ok {
			// The alternate key has not been tried yet; backing off here
			// would waste time.
			e.metrics.RecordRotation()
			continue
		}

		if attempt < e.config.MaxRetries-1 {
			slog.Info("All keys cooling down, backing off", "delay", delay)
			if err := e.backoff(ctx, delay); err != nil {
				return err
			}
			delay *= 2
			continue
		}

		// Final attempt with every key on cooldown.
		stats := e.pool.Stats()
		minWait := stats.MinWait()
		e.fireAlert(ctx, stats.CooldownStatus(), minWait)

		return &ExhaustedError{
			Retries:        e.config.MaxRetries,
			MinWait:        minWait,
			CooldownStatus: stats.CooldownStatus(),
		}
	}

	return &RetriesError{Attempts: e.config.MaxRetries}
}

func (e *Executor) backoff(ctx context.Context, delay time.Duration) error {
	if e.sleep != nil {
		e.sleep(delay)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// fireAlert delivers the exhaustion alert. Alert failures must never mask
// the underlying rate-limit failure, so they are logged and swallowed.
func (e *Executor) fireAlert(ctx context.Context, status map[int]string, minWait time.Duration) {
	e.metrics.RecordExhaustion()

	if e.alerts == nil {
		return
	}

	if err := e.alerts.NotifyRateLimitExhausted(ctx, status, e.config.MaxRetries, minWait); err != nil {
		slog.Error("Failed to deliver rate limit alert", "error", err)
	}
}

// ExecuteWithResult runs a value-returning unit of work through the
// executor.
func ExecuteWithResult[T any](ctx context.Context, e *Executor, fn func(ctx context.Context, cred credential.Credential) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context, cred credential.Credential) error {
		var innerErr error
		result, innerErr = fn(ctx, cred)
		return innerErr
	})
	return result, err
}

// rateLimitSignal is the structured rate-limit marker. Transport errors
// that implement it (e.g. llm.RateLimitError) are classified without
// string matching.
type rateLimitSignal interface {
	IsRateLimit() bool
}

// IsRateLimit reports whether err is a rate-limit failure: either a
// structured signal from the transport, or a message containing both "rate"
// and "limit" (case-insensitive), or "429". Upstream transports vary in how
// precisely they surface this condition, so the substring check is kept as
// a second-chance classifier.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var sig rateLimitSignal
	if errors.As(err, &sig) && sig.IsRateLimit() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") {
		return true
	}
	return strings.Contains(msg, "rate") && strings.Contains(msg, "limit")
}
