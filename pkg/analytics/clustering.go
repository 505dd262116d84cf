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
	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

// computeClustering fills the local clustering coefficient: the fraction
// of possible edges among a node's undirected neighbors that actually
// exist (§4.5 "Local clustering coefficient"). Nodes with fewer than two
// neighbors get 0.
func computeClustering(undirected [][]projection.Edge, metrics []graphmodel.MetricsVector) {
	neighborSets := make([]map[int]bool, len(undirected))
	for i, edges := range undirected {
		set := make(map[int]bool, len(edges))
		for _, e := range edges {
			set[e.To] = true
		}
		neighborSets[i] = set
	}

	for i, edges := range undirected {
		k := len(edges)
		if k < 2 {
			metrics[i].Clustering = 0
			continue
		}
		links := 0
		for a := 0; a < len(edges); a++ {
			for b := a + 1; b < len(edges); b++ {
				u, v := edges[a].To, edges[b].To
				if neighborSets[u][v] {
					links++
				}
			}
		}
		possible := float64(k*(k-1)) / 2
		metrics[i].Clustering = float64(links) / possible
	}
}
