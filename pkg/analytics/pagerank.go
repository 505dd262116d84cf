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

package analytics

import (
	"math"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

const (
	pageRankDamping        = 0.85
	pageRankMaxIterations  = 100
	pageRankConvergence    = 1e-6
)

// computePageRank runs weighted power iteration over the imports
// projection (§4.5 "PageRank"). Edge weight counts as transition
// multiplicity: a node's outgoing mass splits proportional to each
// out-edge's weight rather than uniformly across edges. Sink nodes (no
// out-edges) redistribute their mass uniformly across all nodes every
// iteration, preventing rank leakage.
func computePageRank(p *projection.Projection, metrics []graphmodel.MetricsVector) {
	n := p.NodeCount
	if n == 0 {
		return
	}
	N := float64(n)

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, e := range p.OutEdges(i) {
			outWeight[i] += e.Weight
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	initial := 1.0 / N
	for i := range scores {
		scores[i] = initial
	}

	for iter := 0; iter < pageRankMaxIterations; iter++ {
		sinkMass := 0.0
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				sinkMass += scores[i]
			}
		}
		sinkContribution := pageRankDamping * sinkMass / N
		base := (1-pageRankDamping)/N + sinkContribution
		for i := range next {
			next[i] = base
		}

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := pageRankDamping * scores[i] / outWeight[i]
			for _, e := range p.OutEdges(i) {
				next[e.To] += share * e.Weight
			}
		}

		l1Diff := 0.0
		for i := range scores {
			l1Diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		if l1Diff < pageRankConvergence {
			break
		}
	}

	for i := range metrics {
		metrics[i].PageRankImports = scores[i]
	}
}
