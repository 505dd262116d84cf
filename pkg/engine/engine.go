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
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/depgraph3d/pkg/analytics"
	"github.com/kraklabs/depgraph3d/pkg/composer"
	"github.com/kraklabs/depgraph3d/pkg/discovery"
	"github.com/kraklabs/depgraph3d/pkg/graphbuild"
	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/parser"
	"github.com/kraklabs/depgraph3d/pkg/projection"
	"github.com/kraklabs/depgraph3d/pkg/repohistory"
	"github.com/kraklabs/depgraph3d/pkg/telemetry"
)

// AnalysisResult is the engine's top-level output (§6 "analyze" /
// "recompute_metrics"): the composed DTOs and summary, plus everything a
// host needs to report on the run without re-deriving it.
type AnalysisResult struct {
	RunID       string
	State       State
	Root        string
	Nodes       []composer.NodeDTO
	Summary     composer.Summary
	Diagnostics []Diagnostic
	Graph       *graphbuild.Graph
	Imports     *projection.Projection
	Calls       *projection.Projection
	Duration    time.Duration

	// StageDurations records wall-clock time per pipeline stage, mirroring
	// the teacher's IngestionResult.{ParseDuration,EmbedDuration,...}.
	StageDurations map[string]time.Duration

	// TopSkipReasons counts discovery-stage skips by reason (e.g. binary,
	// too-large, decoding, excluded), mirroring LoadResult.SkipReasons.
	TopSkipReasons map[string]int
}

// Engine orchestrates the full six-stage pipeline over one project root
// and exposes the three public operations of §6.
type Engine struct {
	parsers   *parser.Registry
	telemetry *telemetry.Metrics
}

// New builds an Engine with the default parser registry wired in. metrics
// may be nil, in which case telemetry.Default() is used.
func New(metrics *telemetry.Metrics) *Engine {
	if metrics == nil {
		metrics = telemetry.Default()
	}
	return &Engine{parsers: parser.NewRegistry(), telemetry: metrics}
}

// Analyze runs the complete pipeline over root: discover, parse, build,
// project, analyze, compose (§5 "State machine"). A fatal error at any
// stage is reported as a *Fault; non-fatal issues collected along the
// way surface as Diagnostics on the returned result. ctx cancellation is
// honored at every stage boundary and reported as a Cancelled Fault.
func (e *Engine) Analyze(ctx context.Context, root string, opts AnalyzeOptions) (*AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	startTime := time.Now()
	runID := generateRunID(root, startTime)

	if o.OverallTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.OverallTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	result := &AnalysisResult{
		RunID:          runID,
		State:          StateIdle,
		Root:           root,
		StageDurations: make(map[string]time.Duration, 6),
	}
	var diagnostics []Diagnostic

	emit := func(st State, pct float64, msg string) {
		result.State = st
		o.Progress(ProgressEvent{Stage: string(st), Percentage: pct * 100, Message: msg})
	}

	// Discovering.
	emit(StateDiscovering, 0.0, "walking project tree")
	stageStart := time.Now()
	discFiles, discDiag, err := discovery.Walk(discovery.Options{
		Root:       root,
		Extensions: o.Extensions,
		Ignore:     globIgnore(o.IgnoreGlobs),
		Logger:     o.Logger,
	})
	result.StageDurations["discovering"] = e.observeStage("discovering", stageStart)
	if err != nil {
		emit(StateFailed, 0.0, "discovery failed")
		return e.failed(result, FaultDiscovery, "discovery failed", err)
	}
	result.TopSkipReasons = discDiag.SkipReasons
	for reason, n := range discDiag.SkipReasons {
		e.telemetry.FilesSkipped.WithLabelValues(reason).Add(float64(n))
	}
	e.telemetry.FilesDiscovered.Add(float64(len(discFiles)))
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	contentByPath := make(map[string][]byte, len(discFiles))
	for _, f := range discFiles {
		contentByPath[f.AbsPath] = f.Content
	}

	// Parsing.
	emit(StateParsing, 0.15, fmt.Sprintf("parsing %d files", len(discFiles)))
	stageStart = time.Now()
	inputs, parseDiags := e.parseFiles(ctx, discFiles, o.Workers)
	result.StageDurations["parsing"] = e.observeStage("parsing", stageStart)
	diagnostics = append(diagnostics, parseDiags...)
	if len(parseDiags) > 0 {
		e.telemetry.ParseErrors.Add(float64(len(parseDiags)))
	}
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	// Building.
	emit(StateBuilding, 0.35, "assembling union graph")
	stageStart = time.Now()
	graph, err := graphbuild.Build(inputs)
	result.StageDurations["building"] = e.observeStage("building", stageStart)
	if err != nil {
		emit(StateFailed, 0.35, "graph build failed")
		return e.failed(result, FaultBuild, "graph build failed", err)
	}
	e.telemetry.DanglingEdges.Add(float64(graph.Diagnostics.DanglingImports))
	e.telemetry.CoalescedEdges.Add(float64(graph.Diagnostics.CoalescedEdges))
	for i := 0; i < graph.Diagnostics.DanglingImports; i++ {
		diagnostics = append(diagnostics, Diagnostic{Kind: DiagDroppedEdge, Message: "import descriptor did not resolve to a node"})
	}
	e.telemetry.NodesBuilt.Set(float64(len(graph.Index)))
	e.telemetry.RelationshipsBuilt.Set(float64(len(graph.Relationships)))
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	// Projecting.
	emit(StateProjecting, 0.45, "deriving single-relation projections")
	stageStart = time.Now()
	kinds := make(map[string]graphmodel.NodeKind, len(graph.Nodes))
	for id, n := range graph.Nodes {
		kinds[id] = n.Kind
	}
	gv := projection.GraphView{
		NodeCount:     len(graph.Index),
		Relationships: graph.Relationships,
		IndexOf:       graph.IndexOf,
		Kinds:         kinds,
	}
	imp := projection.Imports(gv)
	calls := projection.Calls(gv)
	callsPresent := len(calls.Edges) > 0
	result.StageDurations["projecting"] = e.observeStage("projecting", stageStart)
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	// Analyzing.
	emit(StateAnalyzing, 0.55, "running graph algorithm suite")
	stageStart = time.Now()
	ar := analytics.Run(ctx, imp, analytics.Options{
		RNGSeed:               o.RNGSeed,
		BetweennessBudget:     o.timeoutFor("betweenness"),
		LouvainBudget:         o.timeoutFor("louvain"),
		BetweennessSampleSize: o.BetweennessSampleSize,
		Logger:                o.Logger,
		Progress: func(stage string, done, total int) {
			o.Progress(ProgressEvent{Stage: string(StateAnalyzing), Percentage: 55, Message: stage})
		},
	})
	ar = expandMetrics(ar, graph, imp)
	result.StageDurations["analyzing"] = e.observeStage("analyzing", stageStart)
	if callsPresent {
		injectCallsPageRank(ar, calls)
	}
	computeComplexityAndLOC(graph, contentByPath, ar)
	if o.RepoHistory != nil {
		e.injectRepoSignals(ctx, graph, ar, o)
	}
	for _, m := range ar.Diagnostics.TimedOutMetrics {
		e.telemetry.MetricTimeouts.WithLabelValues(m).Inc()
		diagnostics = append(diagnostics, Diagnostic{Kind: DiagMetricTimeout, Metric: m, Message: m + " exceeded its wall-clock budget"})
	}
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	// Composing.
	emit(StateComposing, 0.9, "normalizing and composing indices")
	stageStart = time.Now()
	composed := composer.Compose(graph, imp, ar, callsPresent)
	result.StageDurations["composing"] = e.observeStage("composing", stageStart)

	emit(StateReady, 1.0, "analysis complete")
	result.Nodes = composed.Nodes
	result.Summary = composed.Summary
	result.Diagnostics = diagnostics
	result.Graph = graph
	result.Imports = imp
	result.Calls = calls
	result.Duration = time.Since(startTime)
	return result, nil
}

// RecomputeMetrics reruns Projecting through Composing over an already
// built Graph without touching discovery or parsing (§6
// "recompute_metrics"), for re-scoring after an option change like a new
// betweenness sample size or RNG seed.
func (e *Engine) RecomputeMetrics(ctx context.Context, graph *graphbuild.Graph, opts AnalyzeOptions) (*AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	startTime := time.Now()
	runID := generateRunID("recompute", startTime)
	result := &AnalysisResult{RunID: runID, State: StateProjecting, Graph: graph}

	kinds := make(map[string]graphmodel.NodeKind, len(graph.Nodes))
	for id, n := range graph.Nodes {
		kinds[id] = n.Kind
	}
	gv := projection.GraphView{
		NodeCount:     len(graph.Index),
		Relationships: graph.Relationships,
		IndexOf:       graph.IndexOf,
		Kinds:         kinds,
	}
	imp := projection.Imports(gv)
	calls := projection.Calls(gv)
	callsPresent := len(calls.Edges) > 0
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	result.State = StateAnalyzing
	ar := analytics.Run(ctx, imp, analytics.Options{
		RNGSeed:               o.RNGSeed,
		BetweennessBudget:     o.timeoutFor("betweenness"),
		LouvainBudget:         o.timeoutFor("louvain"),
		BetweennessSampleSize: o.BetweennessSampleSize,
		Logger:                o.Logger,
		Progress:              func(string, int, int) {},
	})
	ar = expandMetrics(ar, graph, imp)
	if callsPresent {
		injectCallsPageRank(ar, calls)
	}
	if o.RepoHistory != nil {
		e.injectRepoSignals(ctx, graph, ar, o)
	}
	var diagnostics []Diagnostic
	for _, m := range ar.Diagnostics.TimedOutMetrics {
		diagnostics = append(diagnostics, Diagnostic{Kind: DiagMetricTimeout, Metric: m, Message: m + " exceeded its wall-clock budget"})
	}
	if ctx.Err() != nil {
		return e.cancelled(result)
	}

	result.State = StateComposing
	composed := composer.Compose(graph, imp, ar, callsPresent)

	result.State = StateReady
	result.Nodes = composed.Nodes
	result.Summary = composed.Summary
	result.Diagnostics = diagnostics
	result.Imports = imp
	result.Calls = calls
	result.Duration = time.Since(startTime)
	return result, nil
}

// GetTopBy returns the k nodes of result with the highest value for
// metric, ties broken by ascending path (§6 "get_top_by"). metric names
// one of the four composites ("importance", "risk", "chokepoint",
// "payoff") or a raw/normalized scalar name from §6's DTO (e.g.
// "pagerankImports", "betweenness").
func (e *Engine) GetTopBy(result *AnalysisResult, metric string, k int) ([]composer.NodeDTO, error) {
	if k < 0 {
		return nil, fmt.Errorf("engine: k must be non-negative, got %d", k)
	}

	type scoredNode struct {
		node  composer.NodeDTO
		value float64
	}
	scored := make([]scoredNode, len(result.Nodes))
	for i, n := range result.Nodes {
		v, ok := metricValue(n, metric)
		if !ok {
			return nil, fmt.Errorf("engine: unrecognized metric %q", metric)
		}
		scored[i] = scoredNode{node: n, value: v}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].value != scored[j].value {
			return scored[i].value > scored[j].value
		}
		return scored[i].node.Path < scored[j].node.Path
	})

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]composer.NodeDTO, k)
	for i := 0; i < k; i++ {
		out[i] = scored[i].node
	}
	return out, nil
}

// metricValue resolves metric against n's composite and scalar fields.
func metricValue(n composer.NodeDTO, metric string) (float64, bool) {
	switch metric {
	case "importance":
		return n.Importance, true
	case "risk":
		return n.Risk, true
	case "chokepoint":
		return n.Chokepoint, true
	case "payoff":
		return n.Payoff, true
	case "pagerankImports":
		return n.Raw.PageRankImports, true
	case "pagerankCalls":
		if n.Raw.PageRankCalls == nil {
			return 0, true
		}
		return *n.Raw.PageRankCalls, true
	case "indegree":
		return float64(n.Raw.InDegree), true
	case "outdegree":
		return float64(n.Raw.OutDegree), true
	case "kCore":
		return float64(n.Raw.KCore), true
	case "clustering":
		return n.Raw.Clustering, true
	case "betweenness":
		return n.Raw.Betweenness, true
	case "churn":
		return n.Raw.Churn, true
	case "complexity":
		return n.Raw.Complexity, true
	case "owners":
		return float64(n.Raw.Owners), true
	case "coverage":
		return n.Raw.Coverage, true
	default:
		return 0, false
	}
}

func (e *Engine) observeStage(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	e.telemetry.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	return d
}

func (e *Engine) failed(result *AnalysisResult, kind FaultKind, message string, err error) (*AnalysisResult, error) {
	result.State = StateFailed
	return result, &Fault{Kind: kind, Message: message, Err: err}
}

func (e *Engine) cancelled(result *AnalysisResult) (*AnalysisResult, error) {
	result.State = StateCancelled
	return result, &Fault{Kind: FaultCancelled, Message: "analysis cancelled"}
}

// parseFiles runs the registered LanguageParsers over every discovered
// file through a worker pool, in the spirit of the teacher's
// parseFilesParallel: a bounded number of goroutines pull indices off a
// closed jobs channel and push results onto a buffered results channel
// drained after the pool finishes. Non-fatal per-file parse failures
// become Diagnostics; the file itself stays in the build as a File node,
// with whatever inner nodes its parser recovered (none when the parser
// returned an error) (§4.2).
func (e *Engine) parseFiles(ctx context.Context, files []discovery.DiscoveredFile, workers int) ([]graphbuild.ParsedFileInput, []Diagnostic) {
	if len(files) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if len(files) < 10 {
		workers = 1
	}

	type outcome struct {
		index int
		input *graphbuild.ParsedFileInput
		diags []Diagnostic
	}

	jobs := make(chan int, len(files))
	results := make(chan outcome, len(files))
	var errCount int32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				f := files[i]
				ext := filepath.Ext(f.RelPath)
				pf, err := e.parsers.Parse(f.AbsPath, ext, f.Content)
				if err != nil {
					atomic.AddInt32(&errCount, 1)
					fileNode := graphmodel.SyntacticNode{
						ID:   graphmodel.FileNodeID(f.AbsPath),
						Kind: graphmodel.KindFile,
						Name: graphmodel.NormalizePath(f.AbsPath),
						File: f.AbsPath,
					}
					results <- outcome{
						index: i,
						input: &graphbuild.ParsedFileInput{FileNode: fileNode, Language: f.Language},
						diags: []Diagnostic{{Kind: DiagParseFile, File: f.RelPath, Message: err.Error()}},
					}
					continue
				}
				var diags []Diagnostic
				for _, pe := range pf.ParseErrors {
					diags = append(diags, Diagnostic{Kind: DiagParseFile, File: f.RelPath, Message: pe.Error()})
				}
				results <- outcome{
					index: i,
					input: &graphbuild.ParsedFileInput{
						FileNode:               pf.FileNode,
						Language:               f.Language,
						InnerNodes:             pf.InnerNodes,
						IntraFileRelationships: pf.IntraFileRelationships,
						Imports:                pf.Imports,
					},
					diags: diags,
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	inputs := make([]*graphbuild.ParsedFileInput, len(files))
	var diagnostics []Diagnostic
	for r := range results {
		if r.input != nil {
			inputs[r.index] = r.input
		}
		diagnostics = append(diagnostics, r.diags...)
	}

	out := make([]graphbuild.ParsedFileInput, 0, len(inputs))
	for _, in := range inputs {
		if in != nil {
			out = append(out, *in)
		}
	}
	return out, diagnostics
}

// injectRepoSignals runs one git-log pass over the build's own root and
// writes churn/owners directly onto the MetricsVector of every node
// whose containing file git reports touched (§4.5, "where an optional
// repository-history adapter supply them"). A failed or unavailable git
// adapter is swallowed: churn/owners simply stay at their zero default
// and excluded from normalization, exactly as an absent adapter would
// leave them.
func (e *Engine) injectRepoSignals(ctx context.Context, graph *graphbuild.Graph, ar *analytics.Result, o AnalyzeOptions) {
	signals, err := repohistory.Collect(ctx, o.RepoHistory, repohistory.Options{Lookback: o.RepoHistoryLookback})
	if err != nil {
		return
	}
	for id, n := range graph.Nodes {
		sig, ok := signals[n.File]
		if !ok {
			continue
		}
		idx, ok := graph.IndexOf[id]
		if !ok || idx >= len(ar.Metrics) {
			continue
		}
		ar.Metrics[idx].Churn = float64(sig.Churn)
		ar.Metrics[idx].HasChurn = true
		ar.Metrics[idx].Owners = sig.Owners
		ar.Metrics[idx].HasOwners = true
	}
}

// injectCallsPageRank runs PageRank over the Calls projection and copies
// the per-node score into MetricsVector.PageRankCalls/HasCallsPR; the
// Imports-projection algorithm suite in pkg/analytics never sees the
// Calls projection directly (§4.4 separates the two), so this is done as
// a thin post-pass here instead of inside analytics.Run. calls is scoped
// to Function/Method nodes only, so its scores are scattered back into
// ar.Metrics (already expanded to full graph index space) via
// calls.FullIndex rather than by position.
func injectCallsPageRank(ar *analytics.Result, calls *projection.Projection) {
	scores := callsPageRank(calls)
	for sub, idx := range calls.FullIndex {
		if idx < 0 || idx >= len(ar.Metrics) {
			continue
		}
		ar.Metrics[idx].PageRankCalls = scores[sub]
		ar.Metrics[idx].HasCallsPR = true
	}
}

// expandMetrics scatters ar.Metrics — sized and indexed to imp's File-only
// sub-index (§3 "the imports projection is a weighted directed graph over
// File nodes only") — into a slice indexed by the full graph's dense
// index, so every later consumer (composer.Compose, repo-signal and
// calls-PageRank injection, complexity/LOC) can keep treating a
// MetricsVector slice as one row per GraphNode regardless of which node
// kinds the imports-projection algorithms actually ran over. Nodes
// outside the projection (every non-File kind) inherit their containing
// file's community so they don't read as singleton communities of their
// own; their other fields stay at zero until a later stage fills them in.
func expandMetrics(ar *analytics.Result, graph *graphbuild.Graph, imp *projection.Projection) *analytics.Result {
	full := make([]graphmodel.MetricsVector, len(graph.Index))
	for i := range full {
		full[i].NodeIndex = i
	}
	for sub, idx := range imp.FullIndex {
		full[idx] = ar.Metrics[sub]
		full[idx].NodeIndex = idx
	}
	for id, n := range graph.Nodes {
		idx, ok := graph.IndexOf[id]
		if !ok || n.Kind == graphmodel.KindFile {
			continue
		}
		fileIdx, ok := graph.IndexOf[graphmodel.FileNodeID(n.File)]
		if !ok {
			continue
		}
		full[idx].Community = full[fileIdx].Community
	}
	return &analytics.Result{Metrics: full, Diagnostics: ar.Diagnostics, CommunityInfo: ar.CommunityInfo}
}

func globIgnore(globs []string) discovery.IgnorePredicate {
	if len(globs) == 0 {
		return nil
	}
	return func(relPath string) bool {
		for _, g := range globs {
			if discovery.MatchGlob(relPath, g) {
				return true
			}
		}
		return false
	}
}
