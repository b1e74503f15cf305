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

package config

import "fmt"

// AlertsConfig configures operator alerting channels.
type AlertsConfig struct {
	Email EmailConfig `yaml:"email,omitempty"`
	Slack SlackConfig `yaml:"slack,omitempty"`
}

// EmailConfig configures SMTP alert delivery.
type EmailConfig struct {
	// Enabled controls whether email alerts are sent. Default: false
	Enabled *bool `yaml:"enabled,omitempty"`

	// Host is the SMTP server host. Default: smtp.gmail.com
	Host string `yaml:"host,omitempty"`

	// Port is the SMTP server port. Default: 587
	Port int `yaml:"port,omitempty"`

	// From is the sender address. Supports ${VAR} expansion.
	From string `yaml:"from,omitempty"`

	// FromName is the display name on outgoing mail. Default: ComplianceBot
	FromName string `yaml:"from_name,omitempty"`

	// To is the recipient address.
	To string `yaml:"to,omitempty"`

	// Username for SMTP auth. Defaults to From when empty.
	Username string `yaml:"username,omitempty"`

	// Password for SMTP auth (for Gmail, an app password).
	Password string `yaml:"password,omitempty"`
}

// SlackConfig configures Slack webhook alert delivery.
type SlackConfig struct {
	// Enabled controls whether Slack alerts are sent. Default: false
	Enabled *bool `yaml:"enabled,omitempty"`

	// WebhookURL is the incoming webhook URL.
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// IsEnabled returns true if email alerting is enabled.
func (c *EmailConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// IsEnabled returns true if Slack alerting is enabled.
func (c *SlackConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// SetDefaults applies default values.
func (c *AlertsConfig) SetDefaults() {
	if c.Email.Enabled == nil {
		c.Email.Enabled = BoolPtr(false)
	}
	if c.Email.Host == "" {
		c.Email.Host = "smtp.gmail.com"
	}
	if c.Email.Port == 0 {
		c.Email.Port = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "ComplianceBot"
	}
	if c.Email.Username == "" {
		c.Email.Username = c.Email.From
	}
	if c.Slack.Enabled == nil {
		c.Slack.Enabled = BoolPtr(false)
	}
}

// Validate checks the alerting configuration.
func (c *AlertsConfig) Validate() error {
	if c.Email.IsEnabled() {
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required when email alerts are enabled")
		}
		if c.Email.To == "" {
			return fmt.Errorf("email.to is required when email alerts are enabled")
		}
		if c.Email.Port < 1 || c.Email.Port > 65535 {
			return fmt.Errorf("email.port must be a valid port, got %d", c.Email.Port)
		}
	}
	if c.Slack.IsEnabled() && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack.webhook_url is required when Slack alerts are enabled")
	}
	return nil
}
