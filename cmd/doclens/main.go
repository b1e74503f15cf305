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

// Command doclens analyzes agreements for GDPR compliance.
//
// Usage:
//
//	doclens check contract.pdf
//	doclens scrape --config config.yaml
//	doclens serve --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/doclens/doclens"
	"github.com/doclens/doclens/pkg/alert"
	"github.com/doclens/doclens/pkg/compare"
	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/executor"
	"github.com/doclens/doclens/pkg/extract"
	"github.com/doclens/doclens/pkg/llm"
	"github.com/doclens/doclens/pkg/metrics"
	"github.com/doclens/doclens/pkg/scrape"
	"github.com/doclens/doclens/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Check   CheckCmd   `cmd:"" help:"Analyze a document against its agreement template."`
	Scrape  ScrapeCmd  `cmd:"" help:"Download and process agreement templates."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP API server."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(doclens.GetVersion())
	return nil
}

// app bundles the wired pipeline components.
type app struct {
	cfg      *config.Config
	pool     *credential.Pool
	alerts   *alert.MultiSink
	analyzer *compare.Analyzer
	scraper  *scrape.Scraper
	registry *prometheusRegistry
}

// buildApp wires the pipeline from configuration: credential pool,
// alert sinks, executor, LLM client, analyzer, scraper.
func buildApp(configPath string, withMetrics bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	pool, err := credential.NewPool(cfg.Credentials.Resolve())
	if err != nil {
		return nil, err
	}

	alerts := alert.FromConfig(cfg.Alerts)

	var reg *prometheusRegistry
	var m *metrics.Metrics
	if withMetrics {
		reg = newPrometheusRegistry(pool)
		m = reg.metrics
	}

	exec := executor.New(pool, alerts, executor.Config{
		MaxRetries:   cfg.Executor.MaxRetries,
		InitialDelay: time.Duration(cfg.Executor.InitialDelay) * time.Second,
		Cooldown:     time.Duration(cfg.Executor.Cooldown) * time.Second,
	}, executor.WithMetrics(m))

	client := llm.NewClient(&cfg.LLM)
	analyzer := compare.NewAnalyzer(exec, client)
	scraper := scrape.New(cfg.Scrape, analyzer, alerts)

	return &app{
		cfg:      cfg,
		pool:     pool,
		alerts:   alerts,
		analyzer: analyzer,
		scraper:  scraper,
		registry: reg,
	}, nil
}

// CheckCmd analyzes a single document from the command line.
type CheckCmd struct {
	Document string `arg:"" help:"Path to the document (.pdf, .docx, .doc)." type:"path"`
	Notify   bool   `help:"Send the result through configured alert channels."`
}

func (c *CheckCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(cli.Config, false)
	if err != nil {
		return err
	}

	text, err := extract.Text(c.Document)
	if err != nil {
		return err
	}

	docType, err := a.analyzer.DocumentType(ctx, text)
	if err != nil {
		return err
	}
	slog.Info("Document classified", "type", docType)

	tmplPath, ok := a.scraper.TemplateFor(string(docType))
	if !ok {
		return fmt.Errorf("no template configured for %s", docType)
	}
	tmpl, err := extract.ReadJSON(tmplPath)
	if err != nil {
		return fmt.Errorf("no template for %s (run 'doclens scrape' first): %w", docType, err)
	}

	result, err := a.analyzer.Compare(ctx, text, tmpl.Text)
	if err != nil {
		return err
	}

	fmt.Println(result)

	if c.Notify {
		subject, body := alert.ComplianceResultMessage(c.Document, string(docType), result)
		if err := a.alerts.Notify(ctx, subject, body); err != nil {
			slog.Error("Failed to send result notification", "error", err)
		}
	}

	return nil
}

// ScrapeCmd refreshes the template library once.
type ScrapeCmd struct{}

func (c *ScrapeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(cli.Config, false)
	if err != nil {
		return err
	}

	return a.scraper.Run(ctx)
}

// ServeCmd starts the HTTP API server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := buildApp(cli.Config, true)
	if err != nil {
		return err
	}

	if c.Port != 0 {
		a.cfg.Server.Port = c.Port
	}

	if a.cfg.Scrape.IsEnabled() {
		stop, err := a.scraper.Schedule(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := server.New(a.cfg.Server, a.pool, a.analyzer, a.scraper, a.alerts, a.registry.reg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("doclens"),
		kong.Description("doclens - GDPR agreement compliance analyzer"),
		kong.UsageOnError(),
	)

	_, _, _, cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
