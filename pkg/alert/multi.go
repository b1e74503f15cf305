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

package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/executor"
)

// MultiSink fans an alert out to several sinks. Delivery succeeds when at
// least one sink succeeds; individual failures are logged.
type MultiSink struct {
	sinks []executor.AlertSink
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(sinks ...executor.AlertSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// ErrNoDelivery is returned when every sink fails.
var ErrNoDelivery = errors.New("no alert channel delivered the notification")

func (m *MultiSink) each(send func(executor.AlertSink) error) error {
	if len(m.sinks) == 0 {
		return nil
	}

	delivered := false
	for _, sink := range m.sinks {
		if err := send(sink); err != nil {
			slog.Error("Alert delivery failed", "error", err)
			continue
		}
		delivered = true
	}

	if !delivered {
		return ErrNoDelivery
	}
	return nil
}

// Notify delivers to every sink.
func (m *MultiSink) Notify(ctx context.Context, subject, body string) error {
	return m.each(func(s executor.AlertSink) error {
		return s.Notify(ctx, subject, body)
	})
}

// NotifyRateLimitExhausted delivers to every sink.
func (m *MultiSink) NotifyRateLimitExhausted(ctx context.Context, status map[int]string, retries int, minWait time.Duration) error {
	return m.each(func(s executor.AlertSink) error {
		return s.NotifyRateLimitExhausted(ctx, status, retries, minWait)
	})
}

var _ executor.AlertSink = (*MultiSink)(nil)

// FromConfig builds the sink configured by the alerts section. With no
// channel enabled it returns an empty MultiSink, which treats every
// delivery as a no-op success.
func FromConfig(cfg config.AlertsConfig) *MultiSink {
	var sinks []executor.AlertSink

	if cfg.Email.IsEnabled() {
		sinks = append(sinks, NewEmailSink(cfg.Email))
	}
	if cfg.Slack.IsEnabled() {
		sinks = append(sinks, NewSlackSink(cfg.Slack.WebhookURL))
	}

	if len(sinks) == 0 {
		slog.Debug("No alert channels enabled")
	}

	return NewMultiSink(sinks...)
}
