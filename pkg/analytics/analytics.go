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
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analytics runs the graph algorithm suite over the imports
// projection (§4.5): degree centralities, k-core decomposition, local
// clustering, PageRank, Louvain community detection, sampled
// betweenness, closeness, and eigenvector centrality, in that fixed
// order, each writing into a shared per-node MetricsVector.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

// Diagnostics accumulates non-fatal per-metric failures (§7 MetricTimeout).
type Diagnostics struct {
	TimedOutMetrics []string
}

// ProgressFunc is invoked at least once per completed stage (§5 "per
// algorithm... progress event"); stage is the metric name, done/total
// describe coarse completion within a long-running stage.
type ProgressFunc func(stage string, done, total int)

// Options configures one analytics run.
type Options struct {
	// RNGSeed drives both Louvain's tie-break and the betweenness/
	// closeness sampling. A fixed default keeps runs reproducible; see
	// DESIGN.md's Open Question decision.
	RNGSeed int64

	// BetweennessBudget bounds sampled betweenness's wall clock; zero
	// means no budget (run to completion or cancellation).
	BetweennessBudget time.Duration

	// LouvainBudget bounds Louvain's wall clock the same way.
	LouvainBudget time.Duration

	// BetweennessSampleSize overrides §4.5's default
	// min(N, max(256, ceil(N/16))) formula when positive (§6
	// "betweenness_sample_size" option).
	BetweennessSampleSize int

	Logger   *slog.Logger
	Progress ProgressFunc
}

func (o *Options) withDefaults() *Options {
	out := *o
	if out.RNGSeed == 0 {
		out.RNGSeed = DefaultRNGSeed
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Progress == nil {
		out.Progress = func(string, int, int) {}
	}
	return &out
}

// DefaultRNGSeed is the FNV-1a 64-bit offset basis, used whenever a
// caller doesn't supply one so that two runs over the same graph always
// produce the same community labels and betweenness sample.
const DefaultRNGSeed int64 = 1469598103934665603

// Result holds one MetricsVector per dense graph-node index, plus
// whole-run diagnostics.
type Result struct {
	Metrics       []graphmodel.MetricsVector
	Diagnostics   Diagnostics
	CommunityInfo CommunityResult
}

// Run executes every algorithm in the fixed scheduling order (§4.5) over
// imp, writing results into one MetricsVector per node. ctx cancellation
// is honored between stages; a stage already in flight completes or
// respects its own budget before Run returns.
func Run(ctx context.Context, imp *projection.Projection, opts Options) *Result {
	o := opts.withDefaults()
	n := imp.NodeCount
	metrics := make([]graphmodel.MetricsVector, n)
	for i := range metrics {
		metrics[i].NodeIndex = i
	}
	res := &Result{Metrics: metrics}

	undirected := projection.Undirected(imp)

	stage := func(name string, fn func()) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		fn()
		o.Progress(name, 1, 1)
		return true
	}

	if !stage("degrees", func() { computeDegrees(imp, metrics) }) {
		return res
	}
	if !stage("kcore", func() { computeKCore(undirected, metrics) }) {
		return res
	}
	if !stage("clustering", func() { computeClustering(undirected, metrics) }) {
		return res
	}
	if !stage("pagerank", func() { computePageRank(imp, metrics) }) {
		return res
	}

	louvainCtx, cancelLouvain := withBudget(ctx, o.LouvainBudget)
	defer cancelLouvain()
	comm := runLouvain(louvainCtx, undirected, n, o.RNGSeed)
	if louvainCtx.Err() != nil && o.LouvainBudget > 0 {
		res.Diagnostics.TimedOutMetrics = append(res.Diagnostics.TimedOutMetrics, "louvain")
	}
	for i := range metrics {
		if i < len(comm.NodeCommunity) {
			metrics[i].Community = comm.NodeCommunity[i]
		}
	}
	res.CommunityInfo = comm
	o.Progress("louvain", 1, 1)

	betweenCtx, cancelBetween := withBudget(ctx, o.BetweennessBudget)
	defer cancelBetween()
	betweenness, closeness, partial := runSampledBetweennessCloseness(betweenCtx, imp, undirected, o.RNGSeed, o.BetweennessSampleSize, o.Progress)
	if partial {
		res.Diagnostics.TimedOutMetrics = append(res.Diagnostics.TimedOutMetrics, "betweenness")
	}
	for i := range metrics {
		metrics[i].Betweenness = betweenness[i]
		metrics[i].BetweennessPart = partial
		metrics[i].Closeness = closeness[i]
	}
	o.Progress("betweenness", 1, 1)
	o.Progress("closeness", 1, 1)

	if ctx.Err() != nil {
		return res
	}
	stage("eigenvector", func() { computeEigenvector(imp, metrics) })

	return res
}

func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}
