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
	"os"
)

// maxEnvKeys bounds the numbered environment variable scan.
const maxEnvKeys = 16

// CredentialsConfig supplies the ordered API key list.
//
// Keys may be listed directly (usually as ${VAR} references) or discovered
// from numbered environment variables:
//
//	credentials:
//	  keys:
//	    - ${GROQ_API_KEY_1}
//	    - ${GROQ_API_KEY_2}
//
// With no keys listed, GROQ_API_KEY_1..N are read from the environment.
type CredentialsConfig struct {
	// Keys is the ordered list of API keys. Supports ${VAR} expansion.
	Keys []string `yaml:"keys,omitempty"`

	// EnvPrefix is the prefix for numbered environment variables used when
	// Keys is empty. Default: GROQ_API_KEY
	EnvPrefix string `yaml:"env_prefix,omitempty"`
}

// SetDefaults applies default values.
func (c *CredentialsConfig) SetDefaults() {
	if c.EnvPrefix == "" {
		c.EnvPrefix = "GROQ_API_KEY"
	}
}

// Validate checks the credentials configuration. Blank entries are allowed
// here; the pool filters them and fails construction when nothing usable
// remains.
func (c *CredentialsConfig) Validate() error {
	if len(c.Keys) > maxEnvKeys {
		return fmt.Errorf("too many keys configured (%d, max %d)", len(c.Keys), maxEnvKeys)
	}
	return nil
}

// Resolve returns the configured keys, falling back to numbered environment
// variables when none are listed.
func (c *CredentialsConfig) Resolve() []string {
	if len(c.Keys) > 0 {
		return c.Keys
	}

	var keys []string
	for i := 1; i <= maxEnvKeys; i++ {
		if key := os.Getenv(fmt.Sprintf("%s_%d", c.EnvPrefix, i)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
