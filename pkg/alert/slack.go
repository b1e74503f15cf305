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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/doclens/doclens/pkg/executor"
)

// Attachment colors.
const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
)

// SlackSink posts alerts to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackSink creates a Slack sink for the given webhook URL.
func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type slackAttachment struct {
	Color  string `json:"color"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Footer string `json:"footer"`
	TS     int64  `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

func (s *SlackSink) post(ctx context.Context, title, message, color string) error {
	payload := slackPayload{
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  title,
			Text:   message,
			Footer: "ComplianceBot",
			TS:     time.Now().Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Slack webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Info("Slack alert sent", "title", title)
	return nil
}

// Notify posts a warning-colored message.
func (s *SlackSink) Notify(ctx context.Context, subject, body string) error {
	return s.post(ctx, subject, body, ColorWarning)
}

// NotifyRateLimitExhausted posts the concise exhaustion alert.
func (s *SlackSink) NotifyRateLimitExhausted(ctx context.Context, status map[int]string, retries int, minWait time.Duration) error {
	return s.post(ctx, RateLimitSubject, rateLimitSlackText(status, retries, minWait), ColorDanger)
}

var _ executor.AlertSink = (*SlackSink)(nil)
