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
	eigenvectorMaxIterations = 100
	eigenvectorConvergence   = 1e-6
)

// computeEigenvector runs power iteration over the (directed) imports
// adjacency, L2-normalizing between iterations (§4.5 "Eigenvector
// centrality"). When the iteration does not settle within the cap, or
// the product collapses to the zero vector (a graph with no edges at all,
// where the loop stops on the first iteration), it falls back to degree
// centrality, matching the spec's convergence-failure clause; with no
// edges every node's degree is 0, so every score stays 0.
func computeEigenvector(p *projection.Projection, metrics []graphmodel.MetricsVector) {
	n := p.NodeCount
	if n == 0 {
		return
	}

	scores := make([]float64, n)
	init := 1.0 / math.Sqrt(float64(n))
	for i := range scores {
		scores[i] = init
	}

	next := make([]float64, n)
	converged := false
	for iter := 0; iter < eigenvectorMaxIterations; iter++ {
		for i := range next {
			next[i] = 0
		}
		for i := 0; i < n; i++ {
			for _, e := range p.InEdges(i) {
				next[i] += scores[e.From] * e.Weight
			}
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}
		for i := range next {
			next[i] /= norm
		}

		maxDiff := 0.0
		for i := range scores {
			d := math.Abs(next[i] - scores[i])
			if d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < eigenvectorConvergence {
			converged = true
			break
		}
	}

	if !converged {
		maxDeg := 0
		for i := 0; i < n; i++ {
			d := len(p.InEdges(i)) + len(p.OutEdges(i))
			if d > maxDeg {
				maxDeg = d
			}
		}
		for i := range metrics {
			d := len(p.InEdges(i)) + len(p.OutEdges(i))
			if maxDeg > 0 {
				metrics[i].Eigenvector = float64(d) / float64(maxDeg)
			}
		}
		return
	}

	for i := range metrics {
		metrics[i].Eigenvector = scores[i]
	}
}
