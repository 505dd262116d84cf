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

import "github.com/kraklabs/depgraph3d/pkg/projection"

// countNonTrivialSCCs runs Tarjan's algorithm over the directed imports
// projection and counts strongly connected components with more than
// one member: a cycle of mutually importing files (§4.6 summary record
// "count of strongly connected components larger than one (circular
// dependencies)"). Implemented iteratively to avoid stack overflow on
// pathological repos with long import chains.
func countNonTrivialSCCs(p *projection.Projection) int {
	n := p.NodeCount
	if n == 0 {
		return 0
	}

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	nextIndex := 0
	circular := 0

	type frame struct {
		node    int
		edgeIdx int
	}

	for start := 0; start < n; start++ {
		if index[start] != -1 {
			continue
		}
		var call []frame
		call = append(call, frame{node: start})
		index[start] = nextIndex
		lowlink[start] = nextIndex
		nextIndex++
		stack = append(stack, start)
		onStack[start] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.node
			edges := p.OutEdges(v)
			if top.edgeIdx < len(edges) {
				w := edges[top.edgeIdx].To
				top.edgeIdx++
				if index[w] == -1 {
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{node: w})
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
				continue
			}

			// Finished exploring v's out-edges; pop and propagate lowlink
			// to the parent frame, if any.
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := &call[len(call)-1]
				if lowlink[v] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[v]
				}
			}

			if lowlink[v] == index[v] {
				size := 0
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					size++
					if w == v {
						break
					}
				}
				if size > 1 {
					circular++
				}
			}
		}
	}

	return circular
}
