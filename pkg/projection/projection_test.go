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

package projection

import (
	"testing"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

func TestImports_BuildsWeightedDirectedGraph(t *testing.T) {
	gv := GraphView{
		NodeCount: 3,
		IndexOf:   map[string]int{"a": 0, "b": 1, "c": 2},
		Kinds:     map[string]graphmodel.NodeKind{"a": graphmodel.KindFile, "b": graphmodel.KindFile, "c": graphmodel.KindFile},
		Relationships: []graphmodel.Relationship{
			{SourceID: "a", TargetID: "b", Kind: graphmodel.RelImports, Weight: 2},
			{SourceID: "b", TargetID: "c", Kind: graphmodel.RelImports, Weight: 1},
			{SourceID: "a", TargetID: "b", Kind: graphmodel.RelContains, Weight: 1},
		},
	}
	p := Imports(gv)
	if len(p.Edges) != 2 {
		t.Fatalf("want 2 edges, got %d", len(p.Edges))
	}
	out := p.OutEdges(0)
	if len(out) != 1 || out[0].To != 1 || out[0].Weight != 2 {
		t.Errorf("OutEdges(0) = %+v, want one edge to 1 with weight 2", out)
	}
	in := p.InEdges(2)
	if len(in) != 1 || in[0].From != 1 {
		t.Errorf("InEdges(2) = %+v, want one edge from 1", in)
	}
}

func TestCalls_EmptyWhenNoCallsEdges(t *testing.T) {
	gv := GraphView{
		NodeCount: 2,
		IndexOf:   map[string]int{"a": 0, "b": 1},
		Kinds:     map[string]graphmodel.NodeKind{"a": graphmodel.KindFunction, "b": graphmodel.KindMethod},
		Relationships: []graphmodel.Relationship{
			{SourceID: "a", TargetID: "b", Kind: graphmodel.RelImports, Weight: 1},
		},
	}
	p := Calls(gv)
	if len(p.Edges) != 0 {
		t.Errorf("want 0 Calls edges, got %d", len(p.Edges))
	}
	if p.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", p.NodeCount)
	}
}

func TestCalls_RestrictsToFunctionAndMethodNodes(t *testing.T) {
	gv := GraphView{
		NodeCount: 4,
		IndexOf:   map[string]int{"f": 0, "c": 1, "m1": 2, "m2": 3},
		Kinds: map[string]graphmodel.NodeKind{
			"f":  graphmodel.KindFile,
			"c":  graphmodel.KindClass,
			"m1": graphmodel.KindMethod,
			"m2": graphmodel.KindMethod,
		},
		Relationships: []graphmodel.Relationship{
			{SourceID: "m1", TargetID: "m2", Kind: graphmodel.RelCalls, Weight: 1},
		},
	}
	p := Calls(gv)
	if p.NodeCount != 2 {
		t.Fatalf("NodeCount = %d, want 2 (File and Class nodes excluded)", p.NodeCount)
	}
	if len(p.Edges) != 1 || p.Edges[0].From != 0 || p.Edges[0].To != 1 {
		t.Errorf("Edges = %+v, want one edge 0->1 in the Function/Method sub-index", p.Edges)
	}
	if len(p.FullIndex) != 2 || p.FullIndex[0] != 2 || p.FullIndex[1] != 3 {
		t.Errorf("FullIndex = %v, want [2 3]", p.FullIndex)
	}
}

func TestImports_RestrictsToFileNodes(t *testing.T) {
	gv := GraphView{
		NodeCount: 3,
		IndexOf:   map[string]int{"a": 0, "cls": 1, "b": 2},
		Kinds: map[string]graphmodel.NodeKind{
			"a":   graphmodel.KindFile,
			"cls": graphmodel.KindClass,
			"b":   graphmodel.KindFile,
		},
		Relationships: []graphmodel.Relationship{
			{SourceID: "a", TargetID: "b", Kind: graphmodel.RelImports, Weight: 1},
		},
	}
	p := Imports(gv)
	if p.NodeCount != 2 {
		t.Fatalf("NodeCount = %d, want 2 (Class node excluded)", p.NodeCount)
	}
	if len(p.Edges) != 1 || p.Edges[0].From != 0 || p.Edges[0].To != 1 {
		t.Errorf("Edges = %+v, want one edge 0->1 in the File sub-index", p.Edges)
	}
	if len(p.FullIndex) != 2 || p.FullIndex[0] != 0 || p.FullIndex[1] != 2 {
		t.Errorf("FullIndex = %v, want [0 2]", p.FullIndex)
	}
}

func TestUndirected_SumsParallelDirectedEdges(t *testing.T) {
	gv := GraphView{
		NodeCount: 2,
		IndexOf:   map[string]int{"a": 0, "b": 1},
		Kinds:     map[string]graphmodel.NodeKind{"a": graphmodel.KindFile, "b": graphmodel.KindFile},
		Relationships: []graphmodel.Relationship{
			{SourceID: "a", TargetID: "b", Kind: graphmodel.RelImports, Weight: 3},
		},
	}
	p := Imports(gv)
	undirected := Undirected(p)
	if len(undirected[0]) != 1 || undirected[0][0].Weight != 3 {
		t.Errorf("undirected[0] = %+v, want one edge weight 3", undirected[0])
	}
	if len(undirected[1]) != 1 || undirected[1][0].Weight != 3 {
		t.Errorf("undirected[1] = %+v, want one edge weight 3", undirected[1])
	}
}

func TestImports_SelfLoopIgnored(t *testing.T) {
	gv := GraphView{
		NodeCount: 1,
		IndexOf:   map[string]int{"a": 0},
		Kinds:     map[string]graphmodel.NodeKind{"a": graphmodel.KindFile},
		Relationships: []graphmodel.Relationship{
			{SourceID: "a", TargetID: "a", Kind: graphmodel.RelImports, Weight: 1},
		},
	}
	p := Imports(gv)
	if len(p.Edges) != 0 {
		t.Errorf("want self-loops dropped, got %d edges", len(p.Edges))
	}
}
