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
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

func identityIndex(n int) map[string]int {
	m := make(map[string]int, n)
	for i := 0; i < n; i++ {
		m[idFor(i)] = i
	}
	return m
}

func fileKinds(n int) map[string]graphmodel.NodeKind {
	m := make(map[string]graphmodel.NodeKind, n)
	for i := 0; i < n; i++ {
		m[idFor(i)] = graphmodel.KindFile
	}
	return m
}

func idFor(i int) string { return string(rune('a' + i)) }

func newImportsRel(from, to string) graphmodel.Relationship {
	return graphmodel.Relationship{SourceID: from, TargetID: to, Kind: graphmodel.RelImports, Weight: 1}
}

func TestRun_PageRankSumsToApproximatelyOne(t *testing.T) {
	n := 20
	gv := projection.GraphView{NodeCount: n, IndexOf: identityIndex(n), Kinds: fileKinds(n)}
	for i := 0; i < n; i++ {
		from := idFor(i)
		to := idFor((i + 1) % n)
		gv.Relationships = append(gv.Relationships, newImportsRel(from, to))
	}
	imp := projection.Imports(gv)

	res := Run(context.Background(), imp, Options{RNGSeed: DefaultRNGSeed})

	sum := 0.0
	for _, m := range res.Metrics {
		sum += m.PageRankImports
	}
	require.InDelta(t, 1.0, sum, 0.01)
}

func TestRun_IsDeterministicForFixedSeed(t *testing.T) {
	n := 12
	gv := projection.GraphView{NodeCount: n, IndexOf: identityIndex(n), Kinds: fileKinds(n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && (i+j)%3 == 0 {
				gv.Relationships = append(gv.Relationships, newImportsRel(idFor(i), idFor(j)))
			}
		}
	}
	imp := projection.Imports(gv)

	r1 := Run(context.Background(), imp, Options{RNGSeed: 42})
	r2 := Run(context.Background(), imp, Options{RNGSeed: 42})

	for i := range r1.Metrics {
		require.Equal(t, r1.Metrics[i].Community, r2.Metrics[i].Community)
		require.InDelta(t, r1.Metrics[i].Betweenness, r2.Metrics[i].Betweenness, 1e-9)
	}
}

func TestRun_EmptyGraphProducesNoMetrics(t *testing.T) {
	imp := projection.Imports(projection.GraphView{NodeCount: 0})
	res := Run(context.Background(), imp, Options{})
	require.Empty(t, res.Metrics)
}

func TestRun_RespectsCancellationBetweenStages(t *testing.T) {
	n := 5
	gv := projection.GraphView{NodeCount: n, IndexOf: identityIndex(n), Kinds: fileKinds(n)}
	imp := projection.Imports(gv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, imp, Options{})
	require.Len(t, res.Metrics, n)
	for _, m := range res.Metrics {
		require.Zero(t, m.PageRankImports)
	}
}

func TestSampleSize_MatchesFormula(t *testing.T) {
	require.Equal(t, 0, sampleSize(0))
	require.Equal(t, 100, sampleSize(100))
	require.Equal(t, 256, sampleSize(4096))
	require.Equal(t, 500, sampleSize(8000))
}

func TestComputeEigenvector_NeverProducesNaN(t *testing.T) {
	n := 4
	imp := projection.Imports(projection.GraphView{NodeCount: n, IndexOf: identityIndex(n), Kinds: fileKinds(n)})
	res := Run(context.Background(), imp, Options{})
	for _, m := range res.Metrics {
		require.False(t, math.IsNaN(m.Eigenvector))
	}
}
