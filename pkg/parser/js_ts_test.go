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

package parser

import (
	"testing"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

// TestScriptingParser_RelativeImportChain covers S1: a three-file
// relative import chain in the scripting family (a.ts imports b.ts
// imports c.ts), each import resolvable to a sibling file.
func TestScriptingParser_RelativeImportChain(t *testing.T) {
	p := NewScriptingParser()
	src := []byte(`import { helper } from "./b";

export function run() {
	return helper();
}
`)
	pf, err := p.Parse("a.ts", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 1 {
		t.Fatalf("want 1 import, got %d", len(pf.Imports))
	}
	imp := pf.Imports[0]
	if imp.Raw != "./b" {
		t.Errorf("Raw = %q, want './b'", imp.Raw)
	}
	if imp.Style != graphmodel.ImportRelative {
		t.Errorf("Style = %q, want relative", imp.Style)
	}
	found := false
	for _, n := range pf.InnerNodes {
		if n.Kind == graphmodel.KindFunction && n.Name == "run" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Function node named run, got %+v", pf.InnerNodes)
	}
}

// TestScriptingParser_BareImportIsExternal covers S3: an import of a
// package-style specifier must be tagged bare, never relative.
func TestScriptingParser_BareImportIsExternal(t *testing.T) {
	p := NewScriptingParser()
	src := []byte(`import React from "react";
`)
	pf, err := p.Parse("widget.tsx", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 1 {
		t.Fatalf("want 1 import, got %d", len(pf.Imports))
	}
	if pf.Imports[0].Style != graphmodel.ImportBare {
		t.Errorf("Style = %q, want bare", pf.Imports[0].Style)
	}
}

// TestScriptingParser_DuplicateImportsEachDescribed covers the source
// side of S2: two import statements resolving to the same module each
// surface as their own descriptor; coalescing into one weighted edge
// is the graph builder's job, not the parser's.
func TestScriptingParser_DuplicateImportsEachDescribed(t *testing.T) {
	p := NewScriptingParser()
	src := []byte(`import { a } from "./util";
import { b } from "./util";
`)
	pf, err := p.Parse("m.js", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 2 {
		t.Fatalf("want 2 import descriptors, got %d", len(pf.Imports))
	}
	for _, imp := range pf.Imports {
		if imp.Raw != "./util" {
			t.Errorf("Raw = %q, want './util'", imp.Raw)
		}
	}
}

func TestScriptingParser_ClassWithHeritage(t *testing.T) {
	p := NewScriptingParser()
	src := []byte(`class Widget extends Base implements Renderable {
	render() {}
	value;
}
`)
	pf, err := p.Parse("widget.ts", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var classID string
	for _, n := range pf.InnerNodes {
		if n.Kind == graphmodel.KindClass && n.Name == "Widget" {
			classID = n.ID
		}
	}
	if classID == "" {
		t.Fatal("expected a Class node named Widget")
	}
	var sawExtends, sawImplements, sawMethod bool
	for _, rel := range pf.IntraFileRelationships {
		if rel.SourceID != classID {
			continue
		}
		switch rel.Kind {
		case graphmodel.RelExtends:
			sawExtends = true
		case graphmodel.RelImplements:
			sawImplements = true
		}
	}
	for _, n := range pf.InnerNodes {
		if n.Kind == graphmodel.KindMethod && n.Name == "render" {
			sawMethod = true
		}
	}
	if !sawExtends {
		t.Error("expected an Extends relationship from Widget")
	}
	if !sawImplements {
		t.Error("expected an Implements relationship from Widget")
	}
	if !sawMethod {
		t.Error("expected a Method node named render")
	}
}

func TestScriptingParser_ParseErrorLocalized(t *testing.T) {
	p := NewScriptingParser()
	// Unbalanced brace: tree-sitter still produces a tree with ERROR
	// nodes rather than failing outright (S6).
	src := []byte(`function broken( {
`)
	pf, err := p.Parse("broken.js", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.ParseErrors) == 0 {
		t.Error("expected at least one localized parse error")
	}
}
