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

// PythonParser handles the indentation-based family (§4.2).
type PythonParser struct{}

func NewPythonParser() *PythonParser { return &PythonParser{} }

func (p *PythonParser) SupportedExtensions() []string { return []string{".py"} }

func (p *PythonParser) Parse(path string, content []byte) (*ParsedFile, error) {
	tree, ts, err := pyPool.parse(content)
	if err != nil {
		return nil, err
	}
	defer pyPool.release(ts)
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

	w := &pyWalker{path: path, fileID: fileID, content: content, out: out}
	for i := 0; i < int(root.ChildCount()); i++ {
		w.walkModuleLevel(root.Child(i))
	}
	w.extractImports(root)

	return out, nil
}

type pyWalker struct {
	path    string
	fileID  string
	content []byte
	out     *ParsedFile
}

func (w *pyWalker) walkModuleLevel(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_definition":
		w.addFunction(node, w.fileID, graphmodel.KindFunction)
	case "class_definition":
		w.addClass(node)
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			w.walkModuleLevel(def)
		}
	}
}

func (w *pyWalker) addFunction(node *sitter.Node, containerID string, kind graphmodel.NodeKind) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := nodeText(w.content, nameNode)
	id := graphmodel.NodeID(w.path, kind, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        id,
		Kind:      kind,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: containerID,
		TargetID: id,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})

	// Nested function definitions (closures) inside this function's body.
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			if child.Type() == "function_definition" {
				w.addFunction(child, id, graphmodel.KindFunction)
			}
		}
	}
	return id
}

func (w *pyWalker) addClass(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	classID := graphmodel.NodeID(w.path, graphmodel.KindClass, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        classID,
		Kind:      graphmodel.KindClass,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: classID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})

	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		for _, target := range allIdentifiers(superclasses, w.content) {
			w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
				SourceID: classID,
				TargetID: graphmodel.NodeID(w.path, graphmodel.KindClass, target, 0),
				Kind:     graphmodel.RelExtends,
				Weight:   1,
				Metadata: map[string]string{"unresolved_name": target},
			})
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		def := member
		if member.Type() == "decorated_definition" {
			if d := member.ChildByFieldName("definition"); d != nil {
				def = d
			}
		}
		if def.Type() == "function_definition" {
			w.addFunction(def, classID, graphmodel.KindMethod)
		}
	}
}

// extractImports walks the whole tree for `import x`, `import x as y`,
// and `from x import y` forms (§4.2 "every import ... form the grammar
// offers"), including relative `from . import x` / `from ..pkg import y`.
func (w *pyWalker) extractImports(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				w.addImport(nodeText(w.content, child), startLine(node), nil)
			case "aliased_import":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					w.addImport(nodeText(w.content, nameNode), startLine(node), nil)
				}
			}
		}
	case "import_from_statement":
		raw, style := w.moduleRawAndStyle(node)
		var symbols []string
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "dotted_name":
				// Skip the module_name child itself; only collect names
				// that appear after the "import" keyword.
				if child != node.ChildByFieldName("module_name") {
					symbols = append(symbols, nodeText(w.content, child))
				}
			case "aliased_import":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					symbols = append(symbols, nodeText(w.content, nameNode))
				}
			}
		}
		if raw != "" {
			w.out.Imports = append(w.out.Imports, graphmodel.ImportDescriptor{
				FileID:          w.fileID,
				Raw:             raw,
				Style:           style,
				ImportedSymbols: symbols,
				Line:            startLine(node),
			})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.extractImports(node.Child(i))
	}
}

// moduleRawAndStyle reconstructs the raw module spelling of a
// from-import, including any leading dots for relative imports, and
// tags its style.
func (w *pyWalker) moduleRawAndStyle(node *sitter.Node) (string, graphmodel.ImportStyle) {
	modNode := node.ChildByFieldName("module_name")
	if modNode == nil {
		return "", graphmodel.ImportBare
	}
	if modNode.Type() == "relative_import" {
		raw := nodeText(w.content, modNode)
		return raw, graphmodel.ImportRelative
	}
	raw := nodeText(w.content, modNode)
	// `from . import x` with no module name surfaces module_name as a
	// dotted_name following bare dots; detect leading dot tokens in the
	// statement itself as a fallback for grammar-version differences.
	prefix := leadingDots(node, w.content)
	if prefix != "" {
		return prefix + raw, graphmodel.ImportRelative
	}
	return raw, graphmodel.ImportBare
}

func leadingDots(node *sitter.Node, content []byte) string {
	var dots strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c.Type() == "." || c.Type() == "import_prefix" {
			dots.WriteString(nodeText(content, c))
			continue
		}
		if c.Type() == "from" {
			continue
		}
		break
	}
	return dots.String()
}

func (w *pyWalker) addImport(raw string, line int, symbols []string) {
	if raw == "" {
		return
	}
	w.out.Imports = append(w.out.Imports, graphmodel.ImportDescriptor{
		FileID:          w.fileID,
		Raw:             raw,
		Style:           graphmodel.ImportBare,
		ImportedSymbols: symbols,
		Line:            line,
	})
}
