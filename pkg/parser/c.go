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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

// CParser handles the systems header-oriented family (§4.2).
type CParser struct{}

func NewCParser() *CParser { return &CParser{} }

func (p *CParser) SupportedExtensions() []string { return []string{".c", ".h"} }

func (p *CParser) Parse(path string, content []byte) (*ParsedFile, error) {
	tree, ts, err := cPool.parse(content)
	if err != nil {
		return nil, err
	}
	defer cPool.release(ts)
	defer tree.Close()

	root := tree.RootNode()
	out := &ParsedFile{}

	fileID := graphmodel.FileNodeID(path)
	lineCount := strings.Count(string(content), "\n") + 1
	out.FileNode = graphmodel.SyntacticNode{
		ID:        fileID,
		Kind:      graphmodel.KindFile,
		Name:      graphmodel.NormalizePath(path),
		File:      path,
		StartLine: 0,
		EndLine:   lineCount,
	}
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			out.ParseErrors = append(out.ParseErrors, ParseError{File: path, Line: 1, Message: "syntax errors in source"})
		}
	}

	w := &cWalker{path: path, fileID: fileID, content: content, out: out}
	for i := 0; i < int(root.ChildCount()); i++ {
		w.walkTop(root.Child(i))
	}

	return out, nil
}

type cWalker struct {
	path    string
	fileID  string
	content []byte
	out     *ParsedFile
}

func (w *cWalker) walkTop(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_definition":
		w.addFunction(node)
	case "declaration":
		w.addGlobalDeclaration(node)
	case "struct_specifier", "union_specifier":
		w.addStruct(node)
	case "preproc_include":
		w.addInclude(node)
	case "preproc_ifdef", "preproc_if", "linkage_specification":
		for i := 0; i < int(node.ChildCount()); i++ {
			w.walkTop(node.Child(i))
		}
	}
}

func (w *cWalker) addFunction(node *sitter.Node) {
	decl := node.ChildByFieldName("declarator")
	name := declaratorName(decl, w.content)
	if name == "" {
		return
	}
	id := graphmodel.NodeID(w.path, graphmodel.KindFunction, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        id,
		Kind:      graphmodel.KindFunction,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: id,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
}

// addGlobalDeclaration handles top-level variable/constant declarations
// and function prototypes (declarations whose declarator is itself a
// function_declarator, common in headers).
func (w *cWalker) addGlobalDeclaration(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_declarator":
			name := declaratorName(child, w.content)
			if name == "" {
				continue
			}
			id := graphmodel.NodeID(w.path, graphmodel.KindFunction, name, startLine(node))
			w.out.InnerNodes = append(w.out.InnerNodes, graphmodel.SyntacticNode{
				ID: id, Kind: graphmodel.KindFunction, Name: name, File: w.path,
				StartLine: startLine(node), EndLine: endLine(node),
			})
			w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
				SourceID: w.fileID, TargetID: id, Kind: graphmodel.RelContains, Weight: 1,
			})
		case "init_declarator", "identifier", "pointer_declarator", "array_declarator":
			name := declaratorName(child, w.content)
			if name == "" {
				continue
			}
			id := graphmodel.NodeID(w.path, graphmodel.KindVariable, name, startLine(node))
			w.out.InnerNodes = append(w.out.InnerNodes, graphmodel.SyntacticNode{
				ID: id, Kind: graphmodel.KindVariable, Name: name, File: w.path,
				StartLine: startLine(node), EndLine: endLine(node),
			})
			w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
				SourceID: w.fileID, TargetID: id, Kind: graphmodel.RelContains, Weight: 1,
			})
		}
	}
}

func (w *cWalker) addStruct(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	id := graphmodel.NodeID(w.path, graphmodel.KindClass, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        id,
		Kind:      graphmodel.KindClass,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: id,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		field := body.Child(i)
		if field.Type() != "field_declaration" {
			continue
		}
		for j := 0; j < int(field.ChildCount()); j++ {
			declName := declaratorName(field.Child(j), w.content)
			if declName == "" {
				continue
			}
			propID := graphmodel.NodeID(w.path, graphmodel.KindProperty, declName, startLine(field))
			w.out.InnerNodes = append(w.out.InnerNodes, graphmodel.SyntacticNode{
				ID: propID, Kind: graphmodel.KindProperty, Name: declName, File: w.path,
				StartLine: startLine(field), EndLine: endLine(field),
			})
			w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
				SourceID: id, TargetID: propID, Kind: graphmodel.RelContains, Weight: 1,
			})
			break
		}
	}
}

// addInclude emits an ImportDescriptor for a #include directive.
// Angle-bracket includes are system headers (§9 Open Questions: these
// never reach projections). Quoted includes are resolved relative to
// the including file's directory, matching C lookup semantics.
func (w *cWalker) addInclude(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string_literal":
			raw := strings.Trim(nodeText(w.content, child), `"`)
			w.out.Imports = append(w.out.Imports, graphmodel.ImportDescriptor{
				FileID: w.fileID, Raw: raw, Style: graphmodel.ImportRelative, Line: startLine(node),
			})
		case "system_lib_string":
			raw := strings.Trim(nodeText(w.content, child), "<>")
			w.out.Imports = append(w.out.Imports, graphmodel.ImportDescriptor{
				FileID: w.fileID, Raw: raw, Style: graphmodel.ImportSystem, Line: startLine(node),
			})
		}
	}
}

// declaratorName unwraps pointer/array/function/init declarators to
// find the underlying identifier, matching the nesting tree-sitter-c
// uses for e.g. `int *foo(void)` or `static const char *name = "x"`.
func declaratorName(node *sitter.Node, content []byte) string {
	for node != nil {
		switch node.Type() {
		case "identifier", "field_identifier":
			return nodeText(content, node)
		case "pointer_declarator", "array_declarator", "function_declarator", "parenthesized_declarator":
			node = node.ChildByFieldName("declarator")
		case "init_declarator":
			node = node.ChildByFieldName("declarator")
		default:
			return ""
		}
	}
	return ""
}
