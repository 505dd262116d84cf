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

// TestPythonParser_SingleFileClassWithMethods covers S5: a single-file
// repo containing one class with two methods and no imports.
func TestPythonParser_SingleFileClassWithMethods(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`class Greeter:
    def __init__(self, name):
        self.name = name

    def greet(self):
        return "hi " + self.name
`)
	pf, err := p.Parse("greeter.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 0 {
		t.Fatalf("want 0 imports, got %d", len(pf.Imports))
	}
	var methodNames []string
	for _, n := range pf.InnerNodes {
		if n.Kind == graphmodel.KindMethod {
			methodNames = append(methodNames, n.Name)
		}
	}
	if len(methodNames) != 2 {
		t.Fatalf("want 2 methods, got %v", methodNames)
	}
}

// TestPythonParser_RelativeFromImport covers the Python leg of S1.
func TestPythonParser_RelativeFromImport(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`from .helpers import util
`)
	pf, err := p.Parse("pkg/mod.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 1 {
		t.Fatalf("want 1 import, got %d", len(pf.Imports))
	}
	if pf.Imports[0].Style != graphmodel.ImportRelative {
		t.Errorf("Style = %q, want relative", pf.Imports[0].Style)
	}
}

// TestPythonParser_PlainImportIsBare ensures `import foo.bar` is never
// tagged relative: Python's plain import statement has no dotted
// relative form.
func TestPythonParser_PlainImportIsBare(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`import os.path
`)
	pf, err := p.Parse("mod.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 1 {
		t.Fatalf("want 1 import, got %d", len(pf.Imports))
	}
	if pf.Imports[0].Style != graphmodel.ImportBare {
		t.Errorf("Style = %q, want bare", pf.Imports[0].Style)
	}
	if pf.Imports[0].Raw != "os.path" {
		t.Errorf("Raw = %q, want os.path", pf.Imports[0].Raw)
	}
}

// TestPythonParser_DuplicateImportDescriptors covers the source side of
// S2 for the indentation-based family.
func TestPythonParser_DuplicateImportDescriptors(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`from . import util
from . import util
`)
	pf, err := p.Parse("pkg/a.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pf.Imports) != 2 {
		t.Fatalf("want 2 import descriptors, got %d", len(pf.Imports))
	}
	for _, imp := range pf.Imports {
		if imp.Style != graphmodel.ImportRelative {
			t.Errorf("Style = %q, want relative", imp.Style)
		}
	}
}

func TestPythonParser_NestedFunctionClosure(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`def outer():
    def inner():
        return 1
    return inner()
`)
	pf, err := p.Parse("m.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var outerID string
	for _, n := range pf.InnerNodes {
		if n.Name == "outer" {
			outerID = n.ID
		}
	}
	if outerID == "" {
		t.Fatal("expected a Function node named outer")
	}
	var innerContained bool
	for _, rel := range pf.IntraFileRelationships {
		if rel.SourceID == outerID && rel.Kind == graphmodel.RelContains {
			for _, n := range pf.InnerNodes {
				if n.ID == rel.TargetID && n.Name == "inner" {
					innerContained = true
				}
			}
		}
	}
	if !innerContained {
		t.Error("expected outer to Contain inner")
	}
}

func TestPythonParser_ClassSuperclassExtends(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`class Child(Base):
    pass
`)
	pf, err := p.Parse("m.py", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var sawExtends bool
	for _, rel := range pf.IntraFileRelationships {
		if rel.Kind == graphmodel.RelExtends {
			sawExtends = true
			if rel.Metadata["unresolved_name"] != "Base" {
				t.Errorf("unresolved_name = %q, want Base", rel.Metadata["unresolved_name"])
			}
		}
	}
	if !sawExtends {
		t.Error("expected an Extends relationship")
	}
}
