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
	"context"
	"math/rand"

	"github.com/kraklabs/depgraph3d/pkg/projection"
)

// sampleSize implements §4.5's "min(N, max(256, ceil(N/16)))" formula.
func sampleSize(n int) int {
	if n == 0 {
		return 0
	}
	target := n / 16
	if n%16 != 0 {
		target++
	}
	if target < 256 {
		target = 256
	}
	if target > n {
		target = n
	}
	return target
}

// runSampledBetweennessCloseness runs an approximate Brandes pass seeded
// from a uniform random sample of source nodes (shared between
// betweenness and closeness for cost sharing, §4.5), scaling betweenness
// scores by N/sample_size. It honors ctx's deadline: on timeout it
// returns whatever partial accumulation it has and reports partial=true.
func runSampledBetweennessCloseness(ctx context.Context, directed *projection.Projection, undirected [][]projection.Edge, seed int64, sampleOverride int, progress ProgressFunc) (betweenness, closeness []float64, partial bool) {
	n := directed.NodeCount
	betweenness = make([]float64, n)
	closeness = make([]float64, n)
	if n == 0 {
		return betweenness, closeness, false
	}

	k := sampleSize(n)
	if sampleOverride > 0 && sampleOverride < n {
		k = sampleOverride
	} else if sampleOverride >= n {
		k = n
	}
	rng := rand.New(rand.NewSource(seed))
	sources := rng.Perm(n)[:k]

	scale := float64(n) / float64(k)
	completed := 0

	for _, s := range sources {
		select {
		case <-ctx.Done():
			return betweenness, closeness, true
		default:
		}

		delta, dist := brandesSingleSource(undirected, s, n)
		for v := 0; v < n; v++ {
			if v != s {
				betweenness[v] += delta[v]
			}
			if dist[v] > 0 {
				closeness[s] += 1.0 / float64(dist[v])
			}
		}
		completed++
		if completed%32 == 0 {
			progress("betweenness", completed, k)
		}
	}

	for v := 0; v < n; v++ {
		betweenness[v] *= scale
	}
	// Closeness is accumulated per source s above (sum of 1/dist from s to
	// every reachable v); normalize by reachable count to get the mean
	// inverse distance, matching the sampled-closeness convention (§4.5).
	reachableCount := make([]int, n)
	for _, s := range sources {
		_, dist := brandesSingleSource(undirected, s, n)
		r := 0
		for v := 0; v < n; v++ {
			if dist[v] > 0 {
				r++
			}
		}
		reachableCount[s] = r
	}
	for _, s := range sources {
		if reachableCount[s] > 0 {
			closeness[s] /= float64(reachableCount[s])
		}
	}

	return betweenness, closeness, false
}

// brandesSingleSource runs one BFS-based Brandes accumulation pass from
// source s over the undirected unweighted adjacency (§4.5 treats the
// sampled betweenness pass as a structural, not weight-sensitive,
// shortest-path count, matching the standard approximate-Brandes
// presentation). Returns the dependency contribution of s to every node
// and the BFS distance from s (0 for unreached nodes other than s
// itself, which is always distance 0).
func brandesSingleSource(undirected [][]projection.Edge, s, n int) (delta []float64, dist []int) {
	dist = make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	dist[s] = 0
	sigma := make([]float64, n)
	sigma[s] = 1
	var predecessors [][]int = make([][]int, n)

	queue := []int{s}
	var order []int
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, e := range undirected[v] {
			w := e.To
			if dist[w] == -1 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				predecessors[w] = append(predecessors[w], v)
			}
		}
	}

	delta = make([]float64, n)
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range predecessors[w] {
			if sigma[w] > 0 {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
		}
		if w != s {
			// delta[w] already holds the pair-dependency contribution of s
			// through w; nothing further to add here.
			_ = w
		}
	}

	for i := range dist {
		if dist[i] == -1 {
			dist[i] = 0
		}
	}
	return delta, dist
}
