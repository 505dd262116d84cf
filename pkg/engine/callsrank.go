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
	"math"

	"github.com/kraklabs/depgraph3d/pkg/projection"
)

const (
	callsRankDamping     = 0.85
	callsRankMaxIter     = 100
	callsRankConvergence = 1e-6
)

// callsPageRank runs the same weighted power iteration pkg/analytics
// uses for the Imports projection, over the optional Calls projection.
// It lives here rather than in pkg/analytics because the Calls
// projection is consumed only by the engine's post-pass (§4.4 keeps the
// two projections' algorithm suites separate).
func callsPageRank(p *projection.Projection) []float64 {
	n := p.NodeCount
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}
	N := float64(n)

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, e := range p.OutEdges(i) {
			outWeight[i] += e.Weight
		}
	}

	next := make([]float64, n)
	initial := 1.0 / N
	for i := range scores {
		scores[i] = initial
	}

	for iter := 0; iter < callsRankMaxIter; iter++ {
		sinkMass := 0.0
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				sinkMass += scores[i]
			}
		}
		sinkContribution := callsRankDamping * sinkMass / N
		base := (1-callsRankDamping)/N + sinkContribution
		for i := range next {
			next[i] = base
		}

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := callsRankDamping * scores[i] / outWeight[i]
			for _, e := range p.OutEdges(i) {
				next[e.To] += share * e.Weight
			}
		}

		l1Diff := 0.0
		for i := range scores {
			l1Diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		if l1Diff < callsRankConvergence {
			break
		}
	}

	return scores
}
