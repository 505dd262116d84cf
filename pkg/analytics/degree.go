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

// computeDegrees fills in-degree, out-degree, total degree and their
// (N-1)-normalized fractions (§4.5 "Degree centralities").
func computeDegrees(p *projection.Projection, metrics []graphmodel.MetricsVector) {
	n := p.NodeCount
	denom := float64(n - 1)
	for i := 0; i < n; i++ {
		in := len(p.InEdges(i))
		out := len(p.OutEdges(i))
		metrics[i].InDegree = in
		metrics[i].OutDegree = out
		metrics[i].TotalDegree = in + out
		if denom > 0 {
			metrics[i].InDegreeNorm = float64(in) / denom
			metrics[i].OutDegreeNorm = float64(out) / denom
			metrics[i].TotalDegreeNorm = float64(in+out) / denom
		}
	}
}
