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
	"sort"

	"github.com/kraklabs/depgraph3d/pkg/projection"
)

const louvainConvergence = 1e-6

// CommunityResult is Louvain's output: a 0-contiguous community id per
// node (id 0 is the largest community, §4.5) plus the final modularity
// score.
type CommunityResult struct {
	NodeCommunity []int
	Modularity    float64
	CommunityCount int
}

// runLouvain performs single-level local-moving Louvain (§4.5
// "Community detection") over the undirected weighted imports
// projection: repeatedly try moving each node into a neighboring
// community if doing so improves modularity, stopping when a full pass's
// total modularity gain falls below louvainConvergence. Node visitation
// order is shuffled with a seeded RNG so ties resolve deterministically
// for a given seed without biasing toward node-index order.
func runLouvain(ctx context.Context, undirected [][]projection.Edge, n int, seed int64) CommunityResult {
	if n == 0 {
		return CommunityResult{}
	}

	degree := make([]float64, n)
	var totalWeight float64
	for i, edges := range undirected {
		for _, e := range edges {
			degree[i] += e.Weight
			totalWeight += e.Weight
		}
	}
	m2 := totalWeight // sum of degrees = 2*m for an undirected graph
	if m2 == 0 {
		return trivialCommunities(n)
	}

	comm := make([]int, n)
	commDegreeSum := make([]float64, n)
	for i := range comm {
		comm[i] = i
		commDegreeSum[i] = degree[i]
	}

	rng := rand.New(rand.NewSource(seed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for {
		select {
		case <-ctx.Done():
			return finalizeCommunities(comm, undirected, m2)
		default:
		}

		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		passGain := 0.0
		for _, i := range order {
			currentComm := comm[i]
			neighborWeight := make(map[int]float64)
			for _, e := range undirected[i] {
				neighborWeight[comm[e.To]] += e.Weight
			}
			if len(neighborWeight) == 0 {
				continue
			}

			commDegreeSum[currentComm] -= degree[i]
			bestComm := currentComm
			stayGain := neighborWeight[currentComm] - degree[i]*commDegreeSum[currentComm]/m2
			bestGain := stayGain
			for c, wToC := range neighborWeight {
				gain := wToC - degree[i]*commDegreeSum[c]/m2
				if gain > bestGain || (gain == bestGain && bestComm != currentComm && c < bestComm) {
					bestGain = gain
					bestComm = c
				}
			}
			commDegreeSum[bestComm] += degree[i]
			if bestComm != currentComm {
				comm[i] = bestComm
			}
			passGain += bestGain - stayGain
		}

		// passGain is the sum of each node's gain over staying in its
		// current community this pass, in modularity*m2 units; dividing by
		// m2 gives the pass's total modularity improvement, the quantity
		// louvainConvergence bounds.
		if passGain/m2 < louvainConvergence {
			break
		}
	}

	return finalizeCommunities(comm, undirected, m2)
}

func trivialCommunities(n int) CommunityResult {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return renumberByDescendingSize(ids)
}

func finalizeCommunities(comm []int, undirected [][]projection.Edge, m2 float64) CommunityResult {
	result := renumberByDescendingSize(comm)
	result.Modularity = modularity(result.NodeCommunity, undirected, m2)
	return result
}

// renumberByDescendingSize relabels raw community ids to 0..C-1 so id 0
// is the largest community, ties broken by ascending original id
// (§4.5, testable property "community-id contiguity").
func renumberByDescendingSize(raw []int) CommunityResult {
	sizes := make(map[int]int)
	for _, c := range raw {
		sizes[c]++
	}
	type bucket struct {
		id   int
		size int
	}
	buckets := make([]bucket, 0, len(sizes))
	for id, size := range sizes {
		buckets = append(buckets, bucket{id, size})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].size != buckets[j].size {
			return buckets[i].size > buckets[j].size
		}
		return buckets[i].id < buckets[j].id
	})
	remap := make(map[int]int, len(buckets))
	for newID, b := range buckets {
		remap[b.id] = newID
	}
	out := make([]int, len(raw))
	for i, c := range raw {
		out[i] = remap[c]
	}
	return CommunityResult{NodeCommunity: out, CommunityCount: len(buckets)}
}

func modularity(comm []int, undirected [][]projection.Edge, m2 float64) float64 {
	if m2 == 0 {
		return 0
	}
	degree := make([]float64, len(undirected))
	internal := make(map[int]float64)
	commDegreeSum := make(map[int]float64)
	for i, edges := range undirected {
		for _, e := range edges {
			degree[i] += e.Weight
		}
		commDegreeSum[comm[i]] += degree[i]
	}
	for i, edges := range undirected {
		for _, e := range edges {
			if comm[i] == comm[e.To] {
				internal[comm[i]] += e.Weight
			}
		}
	}
	q := 0.0
	for c, in := range internal {
		// in is double-counted (edge seen from both endpoints); divide by 2.
		q += in/2.0/(m2/2.0) - (commDegreeSum[c]/m2)*(commDegreeSum[c]/m2)
	}
	return q
}
