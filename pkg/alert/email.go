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

// Package alert delivers operator notifications over email and Slack.
//
// The sinks implement executor.AlertSink and are the only delivery
// mechanisms; the executor decides when an alert fires.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/executor"
)

// EmailSink sends alerts over SMTP with STARTTLS.
type EmailSink struct {
	cfg config.EmailConfig
}

// NewEmailSink creates an email sink from configuration.
func NewEmailSink(cfg config.EmailConfig) *EmailSink {
	return &EmailSink{cfg: cfg}
}

// Notify sends a plain-text email.
func (s *EmailSink) Notify(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(s.cfg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory))
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email alert sent", "subject", subject, "to", s.cfg.To)
	return nil
}

// NotifyRateLimitExhausted sends the detailed exhaustion alert.
func (s *EmailSink) NotifyRateLimitExhausted(ctx context.Context, status map[int]string, retries int, minWait time.Duration) error {
	return s.Notify(ctx, RateLimitSubject, rateLimitEmailBody(status, retries, minWait))
}

var _ executor.AlertSink = (*EmailSink)(nil)
