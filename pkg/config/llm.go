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

import (
	"fmt"
	"strings"
)

// LLMConfig configures the Groq chat completions client.
type LLMConfig struct {
	// Host is the API base URL. Default: https://api.groq.com/openai/v1
	Host string `yaml:"host,omitempty"`

	// Model is the model name. Default: llama-3.3-70b-versatile
	Model string `yaml:"model,omitempty"`

	// Temperature for completions. Default: 0.3
	Temperature float64 `yaml:"temperature,omitempty"`

	// MaxTokens limits completion length. 0 means provider default.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout is the per-request timeout in seconds. Default: 120
	Timeout int `yaml:"timeout,omitempty"`
}

// SetDefaults applies default values.
func (c *LLMConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "https://api.groq.com/openai/v1"
	}
	c.Host = strings.TrimRight(c.Host, "/")
	if c.Model == "" {
		c.Model = "llama-3.3-70b-versatile"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout)
	}
	return nil
}
