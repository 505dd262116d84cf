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

package graphbuild

import (
	"testing"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

func fileInput(p string) ParsedFileInput {
	return ParsedFileInput{
		FileNode: graphmodel.SyntacticNode{
			ID:   graphmodel.FileNodeID(p),
			Kind: graphmodel.KindFile,
			Name: p,
			File: p,
		},
	}
}

// TestBuild_RelativeImportChain covers S1: a.ts -> b.ts -> c.ts resolve
// into two Imports edges over File nodes.
func TestBuild_RelativeImportChain(t *testing.T) {
	a := fileInput("a.ts")
	a.Imports = []graphmodel.ImportDescriptor{{FileID: a.FileNode.ID, Raw: "./b", Style: graphmodel.ImportRelative}}
	b := fileInput("b.ts")
	b.Imports = []graphmodel.ImportDescriptor{{FileID: b.FileNode.ID, Raw: "./c", Style: graphmodel.ImportRelative}}
	c := fileInput("c.ts")

	g, err := Build([]ParsedFileInput{a, b, c})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Diagnostics.DanglingImports != 0 {
		t.Errorf("DanglingImports = %d, want 0", g.Diagnostics.DanglingImports)
	}
	importEdges := 0
	for _, rel := range g.Relationships {
		if rel.Kind == graphmodel.RelImports {
			importEdges++
		}
	}
	if importEdges != 2 {
		t.Fatalf("want 2 Imports edges, got %d", importEdges)
	}
}

// TestBuild_DuplicateImportCoalesces covers S2: two import descriptors
// between the same pair of files collapse into one edge with weight 2.
func TestBuild_DuplicateImportCoalesces(t *testing.T) {
	a := fileInput("a.py")
	a.Imports = []graphmodel.ImportDescriptor{
		{FileID: a.FileNode.ID, Raw: "./util", Style: graphmodel.ImportRelative},
		{FileID: a.FileNode.ID, Raw: "./util", Style: graphmodel.ImportRelative},
	}
	util := fileInput("util.py")

	g, err := Build([]ParsedFileInput{a, util})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Diagnostics.CoalescedEdges != 1 {
		t.Errorf("CoalescedEdges = %d, want 1", g.Diagnostics.CoalescedEdges)
	}
	var found *graphmodel.Relationship
	for i := range g.Relationships {
		if g.Relationships[i].Kind == graphmodel.RelImports {
			found = &g.Relationships[i]
		}
	}
	if found == nil {
		t.Fatal("expected one Imports edge")
	}
	if found.Weight != 2 {
		t.Errorf("Weight = %v, want 2", found.Weight)
	}
}

// TestBuild_BareImportProducesNoEdge covers S3: a bare/external import
// must never resolve to a local node.
func TestBuild_BareImportProducesNoEdge(t *testing.T) {
	a := fileInput("a.ts")
	a.Imports = []graphmodel.ImportDescriptor{{FileID: a.FileNode.ID, Raw: "react", Style: graphmodel.ImportBare}}

	g, err := Build([]ParsedFileInput{a})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Diagnostics.DanglingImports != 1 {
		t.Errorf("DanglingImports = %d, want 1", g.Diagnostics.DanglingImports)
	}
	for _, rel := range g.Relationships {
		if rel.Kind == graphmodel.RelImports {
			t.Errorf("unexpected Imports edge for a bare import: %+v", rel)
		}
	}
}

func TestBuild_IndexIsDeterministicBySortedID(t *testing.T) {
	a := fileInput("z.ts")
	b := fileInput("a.ts")
	g, err := Build([]ParsedFileInput{a, b})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 1; i < len(g.Index); i++ {
		if g.Index[i-1].NodeID > g.Index[i].NodeID {
			t.Fatalf("index not sorted by node id at %d", i)
		}
	}
	for id, idx := range g.IndexOf {
		if g.Index[idx].NodeID != id {
			t.Errorf("IndexOf[%q] = %d, but Index[%d].NodeID = %q", id, idx, idx, g.Index[idx].NodeID)
		}
	}
}

func TestBuild_ConflictingPayloadIsFatal(t *testing.T) {
	id := "dup"
	files := []ParsedFileInput{
		{FileNode: graphmodel.SyntacticNode{ID: id, Kind: graphmodel.KindFile, Name: "a", File: "a.ts"}},
		{FileNode: graphmodel.SyntacticNode{ID: id, Kind: graphmodel.KindFile, Name: "b", File: "b.ts"}},
	}
	if _, err := Build(files); err == nil {
		t.Fatal("expected a BuildError for conflicting node payloads")
	}
}

func TestBuild_IntraFileRelationshipRequiresBothEndpoints(t *testing.T) {
	a := fileInput("a.ts")
	a.IntraFileRelationships = []graphmodel.Relationship{
		{SourceID: a.FileNode.ID, TargetID: "does-not-exist", Kind: graphmodel.RelContains, Weight: 1},
	}
	g, err := Build([]ParsedFileInput{a})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, rel := range g.Relationships {
		if rel.TargetID == "does-not-exist" {
			t.Error("relationship to a nonexistent node must be dropped")
		}
	}
}
