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

// Package graphbuild assembles the per-file parser output into a single
// multigraph (§4.3): a union node table keyed by stable node id, the
// intra-file relationships parsers already produced, and resolved
// cross-file Imports edges built from each file's ImportDescriptors.
package graphbuild

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

// scriptingResolveExtensions is the extension probe order used to
// resolve an extensionless relative import in the curly-brace
// scripting family (§4.3 "resolution strategy").
var scriptingResolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// BuildError reports a fatal graph-construction failure: two parsers
// produced different payloads for the same node id (§7 Build errors).
type BuildError struct {
	NodeID string
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("graphbuild: id collision on %q: %s", e.NodeID, e.Reason)
}

// Diagnostics accumulates non-fatal counts produced while building.
type Diagnostics struct {
	DanglingImports int // import descriptors that resolved to nothing
	CoalescedEdges  int // (source,target,Imports) pairs collapsed from >1 descriptor
}

// Graph is the union multigraph plus the dense index assigned to every
// node, ready for projection (§4.4).
type Graph struct {
	Nodes         map[string]graphmodel.SyntacticNode // by node id
	Relationships []graphmodel.Relationship           // coalesced, deduplicated
	Index         []graphmodel.GraphNode              // dense, sorted by node id
	IndexOf       map[string]int                      // node id -> dense index
	Diagnostics   Diagnostics
}

// ParsedFileInput is the subset of parser.ParsedFile the builder needs;
// declared locally so graphbuild does not import the parser package and
// stays usable from tests and from any future parser implementation.
type ParsedFileInput struct {
	FileNode               graphmodel.SyntacticNode
	Language               graphmodel.Language
	InnerNodes             []graphmodel.SyntacticNode
	IntraFileRelationships []graphmodel.Relationship
	Imports                []graphmodel.ImportDescriptor
}

// Build assembles a Graph from every file's parse output. It is
// single-threaded (§5): file parsing is already parallel, but node-id
// collisions and edge coalescing need one consistent view of the table.
func Build(files []ParsedFileInput) (*Graph, error) {
	g := &Graph{
		Nodes:   make(map[string]graphmodel.SyntacticNode),
		IndexOf: make(map[string]int),
	}

	fileByPath := make(map[string]graphmodel.SyntacticNode, len(files))
	languageByFileID := make(map[string]graphmodel.Language, len(files))
	for _, pf := range files {
		if err := g.addNode(pf.FileNode); err != nil {
			return nil, err
		}
		fileByPath[pf.FileNode.File] = pf.FileNode
		languageByFileID[pf.FileNode.ID] = pf.Language
		for _, n := range pf.InnerNodes {
			if err := g.addNode(n); err != nil {
				return nil, err
			}
			languageByFileID[n.ID] = pf.Language
		}
	}

	edgeWeight := make(map[edgeKey]float64)
	edgeMeta := make(map[edgeKey]map[string]string)
	var edgeOrder []edgeKey

	addEdge := func(rel graphmodel.Relationship) {
		if _, ok := g.Nodes[rel.SourceID]; !ok {
			return
		}
		if rel.Kind != graphmodel.RelImports {
			if _, ok := g.Nodes[rel.TargetID]; !ok {
				// Extends/Implements targets that name a superclass or
				// interface the parser never proved a node for (imported
				// from elsewhere, or simply undeclared) are dropped rather
				// than kept as dangling edges into nonexistent nodes.
				return
			}
		}
		key := edgeKey{rel.SourceID, rel.TargetID, rel.Kind}
		if _, seen := edgeWeight[key]; !seen {
			edgeOrder = append(edgeOrder, key)
		}
		w := rel.Weight
		if w == 0 {
			w = 1
		}
		edgeWeight[key] += w
		if rel.Metadata != nil {
			edgeMeta[key] = rel.Metadata
		}
	}

	for _, pf := range files {
		for _, rel := range pf.IntraFileRelationships {
			addEdge(rel)
		}
	}

	for _, pf := range files {
		srcDir := path.Dir(pf.FileNode.File)
		for _, imp := range pf.Imports {
			resolved, ok := resolveImport(srcDir, imp, fileByPath)
			if !ok {
				g.Diagnostics.DanglingImports++
				continue
			}
			addEdge(graphmodel.Relationship{
				SourceID: pf.FileNode.ID,
				TargetID: resolved,
				Kind:     graphmodel.RelImports,
				Weight:   1,
			})
		}
	}

	for _, key := range edgeOrder {
		rel := graphmodel.Relationship{
			SourceID: key.source,
			TargetID: key.target,
			Kind:     key.kind,
			Weight:   edgeWeight[key],
			Metadata: edgeMeta[key],
		}
		if key.kind == graphmodel.RelImports && edgeWeight[key] > 1 {
			g.Diagnostics.CoalescedEdges++
		}
		g.Relationships = append(g.Relationships, rel)
	}

	g.assignIndex(languageByFileID)
	return g, nil
}

type edgeKey struct {
	source string
	target string
	kind   graphmodel.RelKind
}

func (g *Graph) addNode(n graphmodel.SyntacticNode) error {
	if existing, ok := g.Nodes[n.ID]; ok {
		if existing.Kind != n.Kind || existing.Name != n.Name || existing.File != n.File {
			return &BuildError{NodeID: n.ID, Reason: "conflicting payload for the same node id"}
		}
		return nil
	}
	g.Nodes[n.ID] = n
	return nil
}

// assignIndex gives every node a dense integer index in ascending
// sorted-id order, stable for the lifetime of this build (§4.3).
func (g *Graph) assignIndex(languageByFileID map[string]graphmodel.Language) {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g.Index = make([]graphmodel.GraphNode, len(ids))
	for i, id := range ids {
		n := g.Nodes[id]
		g.Index[i] = graphmodel.GraphNode{
			Index:       i,
			NodeID:      id,
			Language:    languageByFileID[id],
			Kind:        n.Kind,
			DisplayPath: n.File,
			DisplayName: n.Name,
		}
		g.IndexOf[id] = i
	}
}

// resolveImport applies the scripting/Python relative-resolution
// strategy described in §4.3: try the exact relative path, then each
// allowed extension, then an index file for directory targets. Bare and
// system imports never resolve to a local node.
func resolveImport(srcDir string, imp graphmodel.ImportDescriptor, fileByPath map[string]graphmodel.SyntacticNode) (string, bool) {
	if imp.Style != graphmodel.ImportRelative {
		return "", false
	}

	candidate := path.Clean(path.Join(srcDir, imp.Raw))
	if n, ok := fileByPath[candidate]; ok {
		return n.ID, true
	}
	for _, ext := range scriptingResolveExtensions {
		if n, ok := fileByPath[candidate+ext]; ok {
			return n.ID, true
		}
	}
	for _, ext := range []string{".py", ".c", ".h"} {
		if n, ok := fileByPath[candidate+ext]; ok {
			return n.ID, true
		}
	}
	for _, ext := range scriptingResolveExtensions {
		if n, ok := fileByPath[path.Join(candidate, "index"+ext)]; ok {
			return n.ID, true
		}
	}
	// Python package-relative import: "pkg.sub" form already carried its
	// dots in Raw (e.g. ".helpers" or "..pkg.mod"); try the dotted-path
	// translation as a fallback for module-style relative imports.
	if strings.Contains(imp.Raw, ".") && !strings.HasPrefix(imp.Raw, "./") && !strings.HasPrefix(imp.Raw, "../") {
		translated := strings.ReplaceAll(strings.TrimLeft(imp.Raw, "."), ".", "/")
		dots := len(imp.Raw) - len(strings.TrimLeft(imp.Raw, "."))
		base := srcDir
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		candidate = path.Clean(path.Join(base, translated))
		if n, ok := fileByPath[candidate+".py"]; ok {
			return n.ID, true
		}
		if n, ok := fileByPath[path.Join(candidate, "__init__.py")]; ok {
			return n.ID, true
		}
	}
	return "", false
}
