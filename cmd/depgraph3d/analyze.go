// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	internalerrors "github.com/kraklabs/depgraph3d/internal/errors"
	"github.com/kraklabs/depgraph3d/internal/output"
	"github.com/kraklabs/depgraph3d/pkg/engine"
	"github.com/kraklabs/depgraph3d/pkg/repohistory"
	"github.com/kraklabs/depgraph3d/pkg/telemetry"
)

// runAnalyze executes the 'analyze' CLI command: the full six-stage
// pipeline over a project root (§6 "analyze").
//
// Flags:
//   - --workers: parser worker pool size (default: runtime.NumCPU())
//   - --timeout: overall wall-clock budget for the whole build
//   - --betweenness-timeout, --louvain-timeout: per-algorithm budgets
//   - --betweenness-sample: override the default sampling formula
//   - --rng-seed: seed for Louvain and sampled betweenness/closeness
//   - --ignore: repeatable glob to exclude from discovery
//   - --ext: repeatable extension allowlist (default: engine's own set)
//   - --no-repo-history: disable the optional git churn/owners adapter
//   - --debug: enable debug logging
func runAnalyze(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	workers := fs.Int("workers", 0, "Parser worker pool size (0 = runtime.NumCPU())")
	timeoutMs := fs.Int64("timeout", 0, "Overall wall-clock budget in milliseconds (0 = unbounded)")
	betweennessTimeoutMs := fs.Int64("betweenness-timeout", 0, "Betweenness wall-clock budget in milliseconds")
	louvainTimeoutMs := fs.Int64("louvain-timeout", 0, "Louvain wall-clock budget in milliseconds")
	sampleSize := fs.Int("betweenness-sample", 0, "Override the betweenness/closeness sample size")
	rngSeed := fs.Int64("rng-seed", 0, "Seed for Louvain and sampled betweenness/closeness")
	ignoreGlobs := fs.StringArray("ignore", nil, "Glob pattern to exclude from discovery (repeatable)")
	extensions := fs.StringArray("ext", nil, "Extension to include, e.g. .ts (repeatable)")
	noRepoHistory := fs.Bool("no-repo-history", false, "Disable the git churn/owners adapter")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: depgraph3d analyze [options] [path]

Runs the full discovery -> parse -> build -> project -> analyze -> compose
pipeline over path (default: current directory) and prints the resulting
node DTOs and summary.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		internalerrors.FatalError(err, globals.JSON)
	}

	opts := analyzeOptionsFromConfigAndFlags(cfg, *workers, *timeoutMs, *betweennessTimeoutMs, *louvainTimeoutMs, *sampleSize, *rngSeed, *ignoreGlobs, *extensions)

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	opts.Logger = logger

	if !*noRepoHistory {
		ctx := context.Background()
		if git, err := repohistory.NewGitExecutor(ctx, root); err == nil {
			opts.RepoHistory = git
			opts.RepoHistoryLookback = 90 * 24 * time.Hour
		}
	}

	startMetricsServer(globals.MetricsAddr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	progressCfg := NewProgressConfig(globals)
	bar := NewStageBar(progressCfg)
	opts.Progress = cliProgressReporter(bar)

	eng := engine.New(telemetry.Default())
	result, err := eng.Analyze(ctx, root, opts)
	if err != nil {
		internalerrors.FatalError(faultToUserError(err), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			internalerrors.FatalError(internalerrors.NewInternalError(
				"Cannot encode result as JSON",
				err.Error(),
				"This is a bug. Please report it.",
				err,
			), globals.JSON)
		}
		return
	}

	printSummary(result)
}

// startMetricsServer wires a Prometheus /metrics endpoint behind
// --metrics-addr exactly as the teacher's index command does.
func startMetricsServer(addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

func analyzeOptionsFromConfigAndFlags(cfg *Config, workers int, timeoutMs, betweennessTimeoutMs, louvainTimeoutMs int64, sampleSize int, rngSeed int64, ignoreGlobs, extensions []string) engine.AnalyzeOptions {
	opts := engine.AnalyzeOptions{
		Extensions:            cfg.Extensions,
		IgnoreGlobs:           cfg.IgnoreGlobs,
		Workers:               cfg.Workers,
		AlgorithmTimeoutsMs:   cfg.AlgorithmTimeoutsMs,
		OverallTimeoutMs:      cfg.OverallTimeoutMs,
		BetweennessSampleSize: cfg.BetweennessSampleSize,
		RNGSeed:               cfg.RNGSeed,
	}

	if workers > 0 {
		opts.Workers = workers
	}
	if len(extensions) > 0 {
		opts.Extensions = extensions
	}
	if len(ignoreGlobs) > 0 {
		opts.IgnoreGlobs = append(opts.IgnoreGlobs, ignoreGlobs...)
	}
	if timeoutMs > 0 {
		opts.OverallTimeoutMs = timeoutMs
	}
	if sampleSize > 0 {
		opts.BetweennessSampleSize = sampleSize
	}
	if rngSeed != 0 {
		opts.RNGSeed = rngSeed
	}
	if betweennessTimeoutMs > 0 || louvainTimeoutMs > 0 {
		if opts.AlgorithmTimeoutsMs == nil {
			opts.AlgorithmTimeoutsMs = make(map[string]int64, 2)
		}
		if betweennessTimeoutMs > 0 {
			opts.AlgorithmTimeoutsMs["betweenness"] = betweennessTimeoutMs
		}
		if louvainTimeoutMs > 0 {
			opts.AlgorithmTimeoutsMs["louvain"] = louvainTimeoutMs
		}
	}

	return opts
}
