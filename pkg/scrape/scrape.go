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

// Package scrape refreshes the agreement template library: it downloads
// template PDFs, extracts their clauses through the LLM, and stores the
// results as JSON for later comparisons.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/doclens/doclens/pkg/compare"
	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/executor"
	"github.com/doclens/doclens/pkg/extract"
)

// Scraper downloads and processes agreement templates.
type Scraper struct {
	cfg        config.ScrapeConfig
	analyzer   *compare.Analyzer
	alerts     executor.AlertSink
	httpClient *http.Client
}

// New creates a scraper. alerts may be nil to disable failure
// notifications.
func New(cfg config.ScrapeConfig, analyzer *compare.Analyzer, alerts executor.AlertSink) *Scraper {
	return &Scraper{
		cfg:      cfg,
		analyzer: analyzer,
		alerts:   alerts,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// TemplatePath returns where the clause JSON for a template is stored.
func (s *Scraper) TemplatePath(name string) string {
	return filepath.Join(s.cfg.Dir, name+".json")
}

// TemplateFor resolves an agreement type to its stored clause JSON path.
// Returns false when no configured template covers that type.
func (s *Scraper) TemplateFor(agreementType string) (string, bool) {
	for _, tmpl := range s.cfg.Templates {
		if strings.EqualFold(tmpl.Type, agreementType) {
			return s.TemplatePath(tmpl.Name), true
		}
	}
	return "", false
}

// Run fetches and processes every configured template. The first failure
// aborts the run, fires an alert, and is returned.
func (s *Scraper) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create template dir: %w", err)
	}

	for _, tmpl := range s.cfg.Templates {
		slog.Info("Processing template", "name", tmpl.Name, "url", tmpl.URL)

		if err := s.processTemplate(ctx, tmpl); err != nil {
			s.alertFailure(ctx, err)
			return fmt.Errorf("template %s: %w", tmpl.Name, err)
		}

		slog.Info("Template saved", "name", tmpl.Name, "file", s.TemplatePath(tmpl.Name))
	}

	return nil
}

func (s *Scraper) processTemplate(ctx context.Context, tmpl config.TemplateConfig) error {
	tmpFile, err := os.CreateTemp("", "doclens-template-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := s.download(ctx, tmpl.URL, tmpPath); err != nil {
		return err
	}

	text, err := extract.Text(tmpPath)
	if err != nil {
		return err
	}

	clauses, err := s.analyzer.ExtractClauses(ctx, text)
	if err != nil {
		return err
	}

	return extract.WriteJSON(s.TemplatePath(tmpl.Name), extract.Document{Text: clauses})
}

func (s *Scraper) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d from %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}

	return nil
}

func (s *Scraper) alertFailure(ctx context.Context, cause error) {
	if s.alerts == nil {
		return
	}

	body := fmt.Sprintf(`Template Scraping Failed

Error: %v

The system encountered an error while trying to scrape and process GDPR
agreement templates. This may be due to:
- API rate limits
- Network issues
- File processing errors

Please check the system logs for more details.
`, cause)

	if err := s.alerts.Notify(ctx, "Template Scraping Failed", body); err != nil {
		slog.Error("Failed to send scrape failure alert", "error", err)
	}
}

// Schedule registers the refresh job on a cron scheduler and starts it.
// The returned stop function halts the scheduler and waits for a running
// job to finish.
func (s *Scraper) Schedule(ctx context.Context) (func(), error) {
	c := cron.New()

	_, err := c.AddFunc(s.cfg.Schedule, func() {
		if err := s.Run(ctx); err != nil {
			slog.Error("Scheduled template refresh failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scrape schedule %q: %w", s.cfg.Schedule, err)
	}

	c.Start()
	slog.Info("Template refresh scheduled", "schedule", s.cfg.Schedule)

	return func() {
		<-c.Stop().Done()
	}, nil
}
