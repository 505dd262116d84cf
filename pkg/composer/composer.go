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

// Package composer robust-normalizes the raw scalars pkg/analytics
// produces and composes them into the four interpretable composites
// (§4.6): importance, risk, chokepoint, and payoff. It assembles the
// versioned per-node DTO that is the engine's public wire format, plus a
// whole-build summary record.
package composer

import (
	"github.com/kraklabs/depgraph3d/pkg/analytics"
	"github.com/kraklabs/depgraph3d/pkg/graphbuild"
	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

// DTOVersion is the current major version of NodeDTO's wire contract
// (§3 "the output record carries a version tag; consumers pin to a
// major version"). Bump only on a breaking field change.
const DTOVersion = 1

// RawScalars mirrors §6's `raw` block: every metric on its original
// scale. PageRankCalls is nil whenever the build's calls projection had
// no edges to rank (§4.4 "must tolerate its absence").
type RawScalars struct {
	PageRankImports float64  `json:"pagerankImports"`
	PageRankCalls   *float64 `json:"pagerankCalls,omitempty"`
	InDegree        int      `json:"indegree"`
	OutDegree       int      `json:"outdegree"`
	KCore           int      `json:"kCore"`
	Clustering      float64  `json:"clustering"`
	Betweenness     float64  `json:"betweenness"`
	Churn           float64  `json:"churn"`
	Complexity      float64  `json:"complexity"`
	Owners          int      `json:"owners"`
	Coverage        float64  `json:"coverage"`
}

// NormalizedScalars mirrors §6's `normalized` block: every raw scalar
// above, robust-normalized into [0,1].
type NormalizedScalars struct {
	PageRankImports float64  `json:"pagerankImports"`
	PageRankCalls   *float64 `json:"pagerankCalls,omitempty"`
	InDegree        float64  `json:"indegree"`
	KCore           float64  `json:"kCore"`
	Clustering      float64  `json:"clustering"`
	Betweenness     float64  `json:"betweenness"`
	Churn           float64  `json:"churn"`
	Complexity      float64  `json:"complexity"`
	Owners          float64  `json:"owners"`
	Coverage        float64  `json:"coverage"`
}

// NodeDTO is the versioned per-node output record (§6). Field names are
// part of the public contract and must stay stable across minor
// versions.
type NodeDTO struct {
	Version    int     `json:"version"`
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	NodeType   string  `json:"nodeType"`
	Community  int     `json:"community"`
	Importance float64 `json:"importance"`
	Risk       float64 `json:"risk"`
	Chokepoint float64 `json:"chokepoint"`
	Payoff     float64 `json:"payoff"`

	Raw        RawScalars        `json:"raw"`
	Normalized NormalizedScalars `json:"normalized"`
}

// Summary is the whole-build summary record (§4.6).
type Summary struct {
	TotalNodes              int     `json:"totalNodes"`
	TotalEdges              int     `json:"totalEdges"`
	CommunityCount          int     `json:"communityCount"`
	Modularity              float64 `json:"modularity"`
	AverageComplexity       float64 `json:"averageComplexity"`
	HighRiskCount           int     `json:"highRiskCount"`
	CircularDependencyCount int     `json:"circularDependencyCount"`
	BetweennessPartial      bool    `json:"betweennessPartial"`
}

// Result is the composer's full output: one DTO per node, in the
// deterministic ascending-node-index order §5 requires, plus the
// summary record.
type Result struct {
	Nodes   []NodeDTO
	Summary Summary
}

// highRiskThreshold is the risk cut-off the summary's high-risk count
// uses (§4.6 "risk > 0.7").
const highRiskThreshold = 0.7

// Compose normalizes graph's raw MetricsVectors and assembles the final
// per-node DTOs and summary (§4.6). imp is the imports projection used
// for the circular-dependency count; callsPresent reports whether any
// node actually carries a calls-projection PageRank value.
func Compose(graph *graphbuild.Graph, imp *projection.Projection, ar *analytics.Result, callsPresent bool) *Result {
	n := len(ar.Metrics)
	metrics := ar.Metrics

	prImports := column(n, func(i int) float64 { return metrics[i].PageRankImports })
	indeg := column(n, func(i int) float64 { return float64(metrics[i].InDegree) })
	kcore := column(n, func(i int) float64 { return float64(metrics[i].KCore) })
	clustering := column(n, func(i int) float64 { return metrics[i].Clustering })
	betweenness := column(n, func(i int) float64 { return metrics[i].Betweenness })

	normPR := robustNormalize(prImports)
	normIndeg := robustNormalize(indeg)
	normKCore := robustNormalize(kcore)
	normClustering := robustNormalize(clustering)
	normBetweenness := robustNormalize(betweenness)

	churnPresent := anyFlag(metrics, func(m graphmodel.MetricsVector) bool { return m.HasChurn })
	complexPresent := anyFlag(metrics, func(m graphmodel.MetricsVector) bool { return m.HasComplex })
	ownersPresent := anyFlag(metrics, func(m graphmodel.MetricsVector) bool { return m.HasOwners })
	coveragePresent := anyFlag(metrics, func(m graphmodel.MetricsVector) bool { return m.HasCover })

	var normChurn, normComplexity, normOwners, normCoverage []float64
	if churnPresent {
		normChurn = robustNormalize(column(n, func(i int) float64 { return metrics[i].Churn }))
	}
	if complexPresent {
		normComplexity = robustNormalize(column(n, func(i int) float64 { return metrics[i].Complexity }))
	}
	if ownersPresent {
		normOwners = robustNormalize(column(n, func(i int) float64 { return float64(metrics[i].Owners) }))
	}
	if coveragePresent {
		normCoverage = robustNormalize(column(n, func(i int) float64 { return metrics[i].Coverage }))
	}

	nodes := make([]NodeDTO, n)
	var complexitySum float64
	var complexityCount int
	highRisk := 0

	for i := 0; i < n; i++ {
		m := metrics[i]
		gn := graphmodel.GraphNode{}
		if i < len(graph.Index) {
			gn = graph.Index[i]
		}

		importance := composite(
			weightedInput{normPR[i], 0.40, true},
			weightedInput{normIndeg[i], 0.20, true},
			weightedInput{normKCore[i], 0.20, true},
			weightedInput{normClustering[i], 0.10, true},
			weightedInput{normBetweenness[i], 0.10, true},
		)
		chokepoint := composite(
			weightedInput{normBetweenness[i], 0.50, true},
			weightedInput{normKCore[i], 0.30, true},
			weightedInput{1 - normClustering[i], 0.20, true},
		)

		var churnVal, complexVal, ownersVal, coverageVal float64
		if churnPresent {
			churnVal = normChurn[i]
		}
		if complexPresent {
			complexVal = normComplexity[i]
		}
		if ownersPresent {
			ownersVal = normOwners[i]
		}
		if coveragePresent {
			coverageVal = normCoverage[i]
		}
		risk := composite(
			weightedInput{churnVal, 0.30, churnPresent},
			weightedInput{complexVal, 0.30, complexPresent},
			weightedInput{1 - ownersVal, 0.20, ownersPresent},
			weightedInput{1 - coverageVal, 0.20, coveragePresent},
		)
		payoff := importance * (1 - risk)

		var rawCalls, normCalls *float64
		if callsPresent && m.HasCallsPR {
			v := m.PageRankCalls
			rawCalls = &v
			nv := m.PageRankCalls // calls projection is not robust-normalized separately; the normalized block carries the raw score (§6 "pagerankCalls?" is optional in both blocks)
			normCalls = &nv
		}

		nodes[i] = NodeDTO{
			Version:    DTOVersion,
			Path:       gn.DisplayPath,
			Name:       gn.DisplayName,
			NodeType:   string(gn.Kind),
			Community:  m.Community,
			Importance: clamp01(importance),
			Risk:       clamp01(risk),
			Chokepoint: clamp01(chokepoint),
			Payoff:     clamp01(payoff),
			Raw: RawScalars{
				PageRankImports: m.PageRankImports,
				PageRankCalls:   rawCalls,
				InDegree:        m.InDegree,
				OutDegree:       m.OutDegree,
				KCore:           m.KCore,
				Clustering:      m.Clustering,
				Betweenness:     m.Betweenness,
				Churn:           m.Churn,
				Complexity:      m.Complexity,
				Owners:          m.Owners,
				Coverage:        m.Coverage,
			},
			Normalized: NormalizedScalars{
				PageRankImports: normPR[i],
				PageRankCalls:   normCalls,
				InDegree:        normIndeg[i],
				KCore:           normKCore[i],
				Clustering:      normClustering[i],
				Betweenness:     normBetweenness[i],
				Churn:           churnVal,
				Complexity:      complexVal,
				Owners:          ownersVal,
				Coverage:        coverageVal,
			},
		}

		if m.HasComplex {
			complexitySum += m.Complexity
			complexityCount++
		}
		if nodes[i].Risk > highRiskThreshold {
			highRisk++
		}
	}

	avgComplexity := 0.0
	if complexityCount > 0 {
		avgComplexity = complexitySum / float64(complexityCount)
	}

	summary := Summary{
		TotalNodes:              n,
		TotalEdges:              len(graph.Relationships),
		CommunityCount:          ar.CommunityInfo.CommunityCount,
		Modularity:              ar.CommunityInfo.Modularity,
		AverageComplexity:       avgComplexity,
		HighRiskCount:           highRisk,
		CircularDependencyCount: countNonTrivialSCCs(imp),
		BetweennessPartial:      containsString(ar.Diagnostics.TimedOutMetrics, "betweenness"),
	}

	return &Result{Nodes: nodes, Summary: summary}
}

func column(n int, f func(int) float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = f(i)
	}
	return out
}

func anyFlag(metrics []graphmodel.MetricsVector, pred func(graphmodel.MetricsVector) bool) bool {
	for _, m := range metrics {
		if pred(m) {
			return true
		}
	}
	return false
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
