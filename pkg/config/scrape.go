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

// ScrapeConfig configures the periodic template refresh job.
type ScrapeConfig struct {
	// Enabled controls whether the scheduled job runs under serve.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// Schedule is a cron expression for the refresh job. Default: @hourly
	Schedule string `yaml:"schedule,omitempty"`

	// Dir is the directory where template JSON files are stored.
	// Default: templates
	Dir string `yaml:"dir,omitempty"`

	// Templates lists the agreement templates to fetch. Defaults to the
	// built-in GDPR template set.
	Templates []TemplateConfig `yaml:"templates,omitempty"`
}

// TemplateConfig describes one agreement template source.
type TemplateConfig struct {
	// Name is a short identifier (e.g. "dpa").
	Name string `yaml:"name"`

	// Type is the agreement type the template represents.
	Type string `yaml:"type"`

	// URL is where the template PDF is downloaded from.
	URL string `yaml:"url"`
}

// SetDefaults applies default values, including the built-in template set
// when none are configured.
func (c *ScrapeConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	if c.Schedule == "" {
		c.Schedule = "@hourly"
	}
	if c.Dir == "" {
		c.Dir = "templates"
	}
	if len(c.Templates) == 0 {
		c.Templates = []TemplateConfig{
			{
				Name: "dpa",
				Type: "Data Processing Agreement",
				URL:  "https://www.benchmarkone.com/wp-content/uploads/2018/05/GDPR-Sample-Agreement.pdf",
			},
			{
				Name: "jca",
				Type: "Joint Controller Agreement",
				URL:  "https://www.surf.nl/files/2019-11/model-joint-controllership-agreement.pdf",
			},
			{
				Name: "c2c",
				Type: "Controller-to-Controller Agreement",
				URL:  "https://www.fcmtravel.com/sites/default/files/2020-03/2-Controller-to-controller-data-privacy-addendum.pdf",
			},
			{
				Name: "subprocessor",
				Type: "Processor-to-Subprocessor Agreement",
				URL:  "https://greaterthan.eu/wp-content/uploads/Personal-Data-Sub-Processor-Agreement-2024-01-24.pdf",
			},
		}
	}
}

// IsEnabled returns true if the scheduled job should run.
func (c *ScrapeConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// Validate checks the scrape configuration.
func (c *ScrapeConfig) Validate() error {
	for i, t := range c.Templates {
		if t.Name == "" {
			return fmt.Errorf("templates[%d]: name is required", i)
		}
		if t.URL == "" {
			return fmt.Errorf("templates[%d]: url is required", i)
		}
	}
	return nil
}
