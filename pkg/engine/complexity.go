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

package engine

import (
	"regexp"
	"strings"

	"github.com/kraklabs/depgraph3d/pkg/analytics"
	"github.com/kraklabs/depgraph3d/pkg/graphbuild"
)

// branchKeywords matches the decision-point tokens §4.5's "cyclomatic
// complexity proxy (e.g., branch count from the AST)" names, shared
// across the scripting, Python, and C families this engine parses.
var branchKeywords = regexp.MustCompile(`\b(if|else if|elif|for|while|case|catch|except)\b|&&|\|\||\?`)

// computeComplexityAndLOC derives a per-node complexity proxy and line
// count from the node's own source lines. It runs as a token scan over
// the node's line range rather than a real AST branch count: the
// parsers already discard each file's parse tree once they emit their
// SyntacticNodes, so re-walking the tree here would mean re-parsing.
// This keeps the proxy's accuracy bounded but its cost independent of
// language grammar.
func computeComplexityAndLOC(graph *graphbuild.Graph, content map[string][]byte, ar *analytics.Result) {
	for id, n := range graph.Nodes {
		idx, ok := graph.IndexOf[id]
		if !ok || idx >= len(ar.Metrics) {
			continue
		}
		src, ok := content[n.File]
		if !ok {
			continue
		}
		lines := strings.Split(string(src), "\n")
		start, end := n.StartLine, n.EndLine
		if start < 0 {
			start = 0
		}
		if end >= len(lines) {
			end = len(lines) - 1
		}
		if start > end || start >= len(lines) {
			continue
		}
		snippet := strings.Join(lines[start:end+1], "\n")

		branches := len(branchKeywords.FindAllString(snippet, -1))
		ar.Metrics[idx].Complexity = float64(1 + branches)
		ar.Metrics[idx].HasComplex = true
		ar.Metrics[idx].LOC = end - start + 1
	}
}
