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

package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depgraph3d/pkg/analytics"
	"github.com/kraklabs/depgraph3d/pkg/graphbuild"
	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
	"github.com/kraklabs/depgraph3d/pkg/projection"
)

func fileInput(p string) graphbuild.ParsedFileInput {
	return graphbuild.ParsedFileInput{
		FileNode: graphmodel.SyntacticNode{
			ID:   graphmodel.FileNodeID(p),
			Kind: graphmodel.KindFile,
			Name: p,
			File: p,
		},
	}
}

// buildChain constructs scenario S1's three-file relative import chain
// (a -> b -> c) and runs it through build/projection/analytics so the
// composer has real MetricsVectors to normalize.
func buildChain(t *testing.T) (*graphbuild.Graph, *projection.Projection, *analytics.Result) {
	t.Helper()
	a := fileInput("a.ts")
	a.Imports = []graphmodel.ImportDescriptor{{FileID: a.FileNode.ID, Raw: "./b", Style: graphmodel.ImportRelative}}
	b := fileInput("b.ts")
	b.Imports = []graphmodel.ImportDescriptor{{FileID: b.FileNode.ID, Raw: "./c", Style: graphmodel.ImportRelative}}
	c := fileInput("c.ts")

	graph, err := graphbuild.Build([]graphbuild.ParsedFileInput{a, b, c})
	require.NoError(t, err)

	gv := projection.GraphView{
		NodeCount:     len(graph.Index),
		Relationships: graph.Relationships,
		IndexOf:       graph.IndexOf,
		Kinds:         nodeKinds(graph),
	}
	imp := projection.Imports(gv)
	ar := analytics.Run(context.Background(), imp, analytics.Options{})
	return graph, imp, ar
}

func nodeKinds(graph *graphbuild.Graph) map[string]graphmodel.NodeKind {
	kinds := make(map[string]graphmodel.NodeKind, len(graph.Nodes))
	for id, n := range graph.Nodes {
		kinds[id] = n.Kind
	}
	return kinds
}

func TestCompose_CompositesWithinUnitRange(t *testing.T) {
	graph, imp, ar := buildChain(t)
	result := Compose(graph, imp, ar, false)

	require.Len(t, result.Nodes, 3)
	for _, n := range result.Nodes {
		require.GreaterOrEqual(t, n.Importance, 0.0)
		require.LessOrEqual(t, n.Importance, 1.0)
		require.GreaterOrEqual(t, n.Risk, 0.0)
		require.LessOrEqual(t, n.Risk, 1.0)
		require.GreaterOrEqual(t, n.Chokepoint, 0.0)
		require.LessOrEqual(t, n.Chokepoint, 1.0)
		require.GreaterOrEqual(t, n.Payoff, 0.0)
		require.LessOrEqual(t, n.Payoff, 1.0)
		require.Equal(t, DTOVersion, n.Version)
	}
}

func TestCompose_RiskZeroWhenNoQualitySignals(t *testing.T) {
	graph, imp, ar := buildChain(t)
	result := Compose(graph, imp, ar, false)

	// None of churn/complexity/owners/coverage were supplied, so risk's
	// entire weight is structurally absent and every node's risk is 0,
	// which in turn makes payoff equal importance (§4.6 "payoff =
	// importance * (1 - risk)").
	for _, n := range result.Nodes {
		require.Equal(t, 0.0, n.Risk)
		require.InDelta(t, n.Importance, n.Payoff, 1e-9)
	}
}

func TestCompose_SummaryCountsNodesAndEdges(t *testing.T) {
	graph, imp, ar := buildChain(t)
	result := Compose(graph, imp, ar, false)

	require.Equal(t, 3, result.Summary.TotalNodes)
	require.Equal(t, 2, result.Summary.TotalEdges)
	require.Equal(t, 0, result.Summary.CircularDependencyCount)
}

func TestCompose_CircularImportCountsAsOneSCC(t *testing.T) {
	a := fileInput("a.ts")
	a.Imports = []graphmodel.ImportDescriptor{{FileID: a.FileNode.ID, Raw: "./b", Style: graphmodel.ImportRelative}}
	b := fileInput("b.ts")
	b.Imports = []graphmodel.ImportDescriptor{{FileID: b.FileNode.ID, Raw: "./a", Style: graphmodel.ImportRelative}}

	graph, err := graphbuild.Build([]graphbuild.ParsedFileInput{a, b})
	require.NoError(t, err)
	gv := projection.GraphView{NodeCount: len(graph.Index), Relationships: graph.Relationships, IndexOf: graph.IndexOf, Kinds: nodeKinds(graph)}
	imp := projection.Imports(gv)
	ar := analytics.Run(context.Background(), imp, analytics.Options{})

	result := Compose(graph, imp, ar, false)
	require.Equal(t, 1, result.Summary.CircularDependencyCount)
}

func TestRobustNormalize_ConstantColumnIsZero(t *testing.T) {
	out := robustNormalize([]float64{5, 5, 5, 5})
	for _, v := range out {
		require.Equal(t, 0.0, v)
	}
}

func TestRobustNormalize_ClampsOutliers(t *testing.T) {
	values := make([]float64, 0, 102)
	for i := 0; i < 100; i++ {
		values = append(values, float64(i))
	}
	values = append(values, -1000, 1000) // extreme outliers beyond the 1/99 cut-offs
	out := robustNormalize(values)
	for _, v := range out {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}
