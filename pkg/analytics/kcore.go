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

// computeKCore peels nodes with degree below k from the undirected
// projection, recording each node's surviving coreness (§4.5 "K-core
// decomposition"). Ties among equal-degree nodes are broken by
// ascending node index, matching the standard Batagelj-Zaversnik
// peeling order.
func computeKCore(undirected [][]projection.Edge, metrics []graphmodel.MetricsVector) {
	n := len(undirected)
	degree := make([]int, n)
	for i, edges := range undirected {
		degree[i] = len(edges)
	}

	removed := make([]bool, n)
	core := make([]int, n)

	currentK := 0
	remaining := n
	for remaining > 0 {
		// Find the minimum degree among remaining nodes, ascending index.
		minDeg := -1
		for i := 0; i < n; i++ {
			if removed[i] {
				continue
			}
			if minDeg == -1 || degree[i] < minDeg {
				minDeg = degree[i]
			}
		}
		if minDeg > currentK {
			currentK = minDeg
		}

		// Peel every remaining node at or below currentK, ascending index,
		// repeating until no more nodes qualify at this k.
		peeled := true
		for peeled {
			peeled = false
			for i := 0; i < n; i++ {
				if removed[i] || degree[i] > currentK {
					continue
				}
				removed[i] = true
				core[i] = currentK
				remaining--
				peeled = true
				for _, e := range undirected[i] {
					if !removed[e.To] {
						degree[e.To]--
					}
				}
			}
		}
	}

	for i := range metrics {
		metrics[i].KCore = core[i]
	}
}
