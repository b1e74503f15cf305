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

// ExecutorConfig configures the retry/rotation executor.
type ExecutorConfig struct {
	// MaxRetries is the maximum number of attempts per call. Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`

	// InitialDelay is the first backoff delay in seconds when all keys are
	// cooling down; it doubles after each backed-off attempt. Default: 2
	InitialDelay int `yaml:"initial_delay,omitempty"`

	// Cooldown is the per-key cooldown in seconds applied on a rate-limit
	// failure. Default: 60
	Cooldown int `yaml:"cooldown,omitempty"`
}

// SetDefaults applies default values.
func (c *ExecutorConfig) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 2
	}
	if c.Cooldown == 0 {
		c.Cooldown = 60
	}
}

// Validate checks the executor configuration.
func (c *ExecutorConfig) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must not be negative, got %d", c.InitialDelay)
	}
	if c.Cooldown < 1 {
		return fmt.Errorf("cooldown must be at least 1 second, got %d", c.Cooldown)
	}
	return nil
}
