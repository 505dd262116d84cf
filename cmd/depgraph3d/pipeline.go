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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalerrors "github.com/kraklabs/depgraph3d/internal/errors"
	"github.com/kraklabs/depgraph3d/pkg/engine"
	"github.com/kraklabs/depgraph3d/pkg/repohistory"
	"github.com/kraklabs/depgraph3d/pkg/telemetry"
)

// buildPipelineOptions loads the optional config file and merges it with
// common CLI overrides shared by 'top' and 'recompute', both of which need
// to run a full Analyze before doing their own thing.
func buildPipelineOptions(configPath string, root string, withRepoHistory bool, rngSeed int64, sampleSize int, debug bool) (engine.AnalyzeOptions, *slog.Logger, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return engine.AnalyzeOptions{}, nil, err
	}

	opts := analyzeOptionsFromConfigAndFlags(cfg, 0, 0, 0, 0, sampleSize, rngSeed, nil, nil)

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	opts.Logger = logger

	if withRepoHistory {
		ctx := context.Background()
		if git, err := repohistory.NewGitExecutor(ctx, root); err == nil {
			opts.RepoHistory = git
			opts.RepoHistoryLookback = 90 * 24 * time.Hour
		}
	}

	return opts, logger, nil
}

// runPipeline runs a full Analyze over root with opts, wiring signal-based
// cancellation and a progress bar the same way 'analyze' does, then returns
// the result or converts any failure into a UserError and exits.
func runPipeline(root string, opts engine.AnalyzeOptions, globals GlobalFlags) *engine.AnalysisResult {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	progressCfg := NewProgressConfig(globals)
	bar := NewStageBar(progressCfg)
	opts.Progress = cliProgressReporter(bar)

	eng := engine.New(telemetry.Default())
	result, err := eng.Analyze(ctx, root, opts)
	if err != nil {
		internalerrors.FatalError(faultToUserError(err), globals.JSON)
		return nil
	}
	return result
}
