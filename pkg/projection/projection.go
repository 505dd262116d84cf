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

// Package projection derives single-relationship-kind weighted graphs
// from the union multigraph (§4.4). Every graph algorithm in
// pkg/analytics consumes a Projection, never the raw multigraph, so
// algorithms never need to know about relationship kinds other than the
// one they were asked to analyze.
package projection

import "github.com/kraklabs/depgraph3d/pkg/graphmodel"

// Edge is one weighted directed arc in a projection, referencing graph
// nodes by their dense index (§4.3 GraphNode.Index).
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Projection is a weighted directed graph restricted to the nodes and
// node kinds relevant to one relationship kind, plus adjacency indexes
// built once so every algorithm can reuse them.
type Projection struct {
	NodeCount int
	Edges     []Edge

	// FullIndex maps this projection's dense node index back to the
	// index the same node occupies in the full graph (graphmodel.
	// GraphNode.Index), so callers can scatter per-projection results
	// into a full-graph-sized array. Its length always equals NodeCount.
	FullIndex []int

	outAdj [][]Edge
	inAdj  [][]Edge
}

// OutEdges returns the edges leaving node i, in insertion order.
func (p *Projection) OutEdges(i int) []Edge { return p.outAdj[i] }

// InEdges returns the edges entering node i, in insertion order.
func (p *Projection) InEdges(i int) []Edge { return p.inAdj[i] }

func newProjection(n int) *Projection {
	return &Projection{
		NodeCount: n,
		outAdj:    make([][]Edge, n),
		inAdj:     make([][]Edge, n),
	}
}

func (p *Projection) addEdge(from, to int, weight float64) {
	e := Edge{From: from, To: to, Weight: weight}
	p.Edges = append(p.Edges, e)
	p.outAdj[from] = append(p.outAdj[from], e)
	p.inAdj[to] = append(p.inAdj[to], e)
}

// GraphView is the minimal read surface projection needs from a built
// graph: the dense index count and the coalesced relationship list with
// endpoints already mapped to indices by the caller.
type GraphView struct {
	NodeCount     int
	Relationships []graphmodel.Relationship
	IndexOf       map[string]int
	Kinds         map[string]graphmodel.NodeKind // node id -> kind, for filtering Calls to Function/Method
}

// Imports builds the weighted directed graph over File nodes only,
// implied by resolved Imports edges (§3 "the imports projection is a
// weighted directed graph over File nodes only"; §4.4, "the primary
// input to every algorithm in §4.5"). Non-File nodes never enter this
// projection, even as isolated singletons, so N (used throughout §4.5's
// normalizations) reflects the file count, not the full graph's node
// count.
func Imports(gv GraphView) *Projection {
	return filteredProjection(gv, graphmodel.RelImports, func(k graphmodel.NodeKind) bool {
		return k == graphmodel.KindFile
	})
}

// Calls builds the weighted directed graph over Function/Method nodes
// only, implied by resolved Calls edges. The calls relation is optional:
// languages or parse runs that never resolve any calls still produce a
// valid, empty Projection rather than an error (§4.4 "tolerate
// absence").
func Calls(gv GraphView) *Projection {
	return filteredProjection(gv, graphmodel.RelCalls, func(k graphmodel.NodeKind) bool {
		return k == graphmodel.KindFunction || k == graphmodel.KindMethod
	})
}

// filteredProjection builds a dense sub-index over only the full-graph
// nodes for which keep(kind) holds, then adds every relKind edge whose
// endpoints both fall inside that sub-index, remapped from full-graph
// indices into the sub-index. p.FullIndex lets callers scatter the
// result back into full-graph-index space.
func filteredProjection(gv GraphView, relKind graphmodel.RelKind, keep func(graphmodel.NodeKind) bool) *Projection {
	idAt := make([]string, gv.NodeCount)
	for id, idx := range gv.IndexOf {
		if idx >= 0 && idx < gv.NodeCount {
			idAt[idx] = id
		}
	}

	fullIndex := make([]int, 0, gv.NodeCount)
	subOf := make(map[int]int, gv.NodeCount)
	for full := 0; full < gv.NodeCount; full++ {
		if keep(gv.Kinds[idAt[full]]) {
			subOf[full] = len(fullIndex)
			fullIndex = append(fullIndex, full)
		}
	}

	p := newProjection(len(fullIndex))
	p.FullIndex = fullIndex

	for _, rel := range gv.Relationships {
		if rel.Kind != relKind {
			continue
		}
		fromFull, ok1 := gv.IndexOf[rel.SourceID]
		toFull, ok2 := gv.IndexOf[rel.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		from, ok3 := subOf[fromFull]
		to, ok4 := subOf[toFull]
		if !ok3 || !ok4 || from == to {
			continue
		}
		w := rel.Weight
		if w == 0 {
			w = 1
		}
		p.addEdge(from, to, w)
	}
	return p
}

// Undirected returns an adjacency list view of p treating every edge as
// bidirectional and deduplicating parallel edges by summing weight; used
// by the clustering coefficient and Louvain community detection, which
// both operate on an undirected weighted graph (§4.5).
func Undirected(p *Projection) [][]Edge {
	adj := make([]map[int]float64, p.NodeCount)
	for i := range adj {
		adj[i] = make(map[int]float64)
	}
	for _, e := range p.Edges {
		if e.From == e.To {
			continue
		}
		adj[e.From][e.To] += e.Weight
		adj[e.To][e.From] += e.Weight
	}
	out := make([][]Edge, p.NodeCount)
	for i, neighbors := range adj {
		for to, w := range neighbors {
			out[i] = append(out[i], Edge{From: i, To: to, Weight: w})
		}
	}
	return out
}
