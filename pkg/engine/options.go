// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/kraklabs/depgraph3d/pkg/repohistory"
)

// ProgressEvent is one tick of the abstract progress stream (§6). A
// terminal event carries Stage "Ready" or "Failed" and closes the
// stream.
type ProgressEvent struct {
	Stage      string
	Percentage float64
	Message    string
}

// ProgressReporter receives progress events; nil is a valid no-op.
type ProgressReporter func(ProgressEvent)

// AnalyzeOptions is the engine's entire configuration surface (§6):
// "Unrecognized keys are rejected" is honored by AlgorithmTimeoutsMs's
// validated key set in Validate, since Go's static struct fields already
// reject any option this struct doesn't declare.
type AnalyzeOptions struct {
	Extensions  []string
	IgnoreGlobs []string

	// Workers bounds the worker pool used by parsing; the metric suite
	// runs single-threaded. Zero means runtime.NumCPU().
	Workers int

	// AlgorithmTimeoutsMs bounds specific expensive algorithms (§5
	// "per-expensive-algorithm wall-clock budget"). Recognized keys:
	// "betweenness", "louvain".
	AlgorithmTimeoutsMs map[string]int64

	// OverallTimeoutMs bounds the whole build; zero means unbounded.
	OverallTimeoutMs int64

	// BetweennessSampleSize overrides §4.5's default sampling formula.
	BetweennessSampleSize int

	// RNGSeed drives every seeded algorithm (Louvain tie-break, sampled
	// betweenness/closeness sampling). Zero means analytics.DefaultRNGSeed.
	RNGSeed int64

	// RepoHistory optionally supplies the churn/owners repository
	// signals §4.5 mentions. Nil disables the adapter entirely, and
	// churn/owners stay at their zero default (§4.5).
	RepoHistory         repohistory.GitRunner
	RepoHistoryLookback time.Duration

	Progress ProgressReporter
	Logger   *slog.Logger
}

var recognizedTimeoutKeys = map[string]bool{
	"betweenness": true,
	"louvain":     true,
}

// Validate rejects unrecognized AlgorithmTimeoutsMs keys (§6
// "Unrecognized keys are rejected") before any stage runs.
func (o AnalyzeOptions) Validate() error {
	for key := range o.AlgorithmTimeoutsMs {
		if !recognizedTimeoutKeys[key] {
			return fmt.Errorf("engine: unrecognized algorithm_timeouts_ms key %q", key)
		}
	}
	return nil
}

func (o AnalyzeOptions) withDefaults() AnalyzeOptions {
	out := o
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Progress == nil {
		out.Progress = func(ProgressEvent) {}
	}
	return out
}

func (o AnalyzeOptions) timeoutFor(metric string) time.Duration {
	ms, ok := o.AlgorithmTimeoutsMs[metric]
	if !ok || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
