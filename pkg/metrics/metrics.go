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

// Package metrics exposes Prometheus instrumentation for the outbound-call
// resilience layer.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/doclens/doclens/pkg/credential"
)

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeRateLimited = "rate_limited"
)

// Metrics holds the executor-level counters. All methods are safe to call
// on a nil receiver, so instrumentation stays optional.
type Metrics struct {
	attempts    *prometheus.CounterVec
	rotations   prometheus.Counter
	exhaustions prometheus.Counter
}

// New creates and registers the metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doclens",
			Name:      "llm_call_attempts_total",
			Help:      "LLM call attempts by outcome.",
		}, []string{"outcome"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doclens",
			Name:      "credential_rotations_total",
			Help:      "Credential rotations triggered by rate limits.",
		}),
		exhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doclens",
			Name:      "credential_exhaustions_total",
			Help:      "Times every credential was on cooldown after the final attempt.",
		}),
	}

	reg.MustRegister(m.attempts, m.rotations, m.exhaustions)
	return m
}

// RecordAttempt counts one call attempt with the given outcome.
func (m *Metrics) RecordAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// RecordRotation counts one successful rotation to an alternate key.
func (m *Metrics) RecordRotation() {
	if m == nil {
		return
	}
	m.rotations.Inc()
}

// RecordExhaustion counts one terminal exhaustion.
func (m *Metrics) RecordExhaustion() {
	if m == nil {
		return
	}
	m.exhaustions.Inc()
}

// PoolCollector exports per-key pool state by sampling Pool.Stats on
// scrape.
type PoolCollector struct {
	pool *credential.Pool

	requests *prometheus.Desc
	cooldown *prometheus.Desc
}

// NewPoolCollector creates a collector over the given pool.
func NewPoolCollector(pool *credential.Pool) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		requests: prometheus.NewDesc(
			"doclens_credential_requests_total",
			"Successful acquisitions per key.",
			[]string{"key"}, nil),
		cooldown: prometheus.NewDesc(
			"doclens_credential_cooldown_seconds",
			"Remaining cooldown per key, zero when available.",
			[]string{"key"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.cooldown
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stats()
	for i := range stats.RequestCounts {
		key := strconv.Itoa(i + 1)
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue,
			float64(stats.RequestCounts[i]), key)
		ch <- prometheus.MustNewConstMetric(c.cooldown, prometheus.GaugeValue,
			stats.CooldownRemaining[i].Seconds(), key)
	}
}

var _ prometheus.Collector = (*PoolCollector)(nil)
