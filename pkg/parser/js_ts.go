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

// ScriptingParser handles the curly-brace scripting family: JavaScript
// and TypeScript. TypeScript's extra constructs (interfaces, type
// aliases, signature-only members) are superimposed on the JS walker,
// matching the teacher's own parser_typescript.go, which extends the JS
// node-type switch rather than duplicating it.
type ScriptingParser struct{}

func NewScriptingParser() *ScriptingParser { return &ScriptingParser{} }

func (p *ScriptingParser) SupportedExtensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".tsx"}
}

func isTypeScriptExt(path string) bool {
	return strings.HasSuffix(path, ".ts") || strings.HasSuffix(path, ".tsx")
}

func (p *ScriptingParser) Parse(path string, content []byte) (*ParsedFile, error) {
	pool := jsPool
	if isTypeScriptExt(path) {
		pool = tsPool
	}
	tree, ts, err := pool.parse(content)
	if err != nil {
		return nil, err
	}
	defer pool.release(ts)
	defer tree.Close()

	root := tree.RootNode()
	out := &ParsedFile{}

	lang := graphmodel.LangJavaScript
	if isTypeScriptExt(path) {
		lang = graphmodel.LangTypeScript
	}

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

	w := &jsWalker{path: path, fileID: fileID, content: content, lang: lang, out: out}
	w.walkTop(root)
	w.extractImports(root)

	return out, nil
}

type jsWalker struct {
	path     string
	fileID   string
	content  []byte
	lang     graphmodel.Language
	out      *ParsedFile
	anonSeq  int
}

// walkTop walks module-level declarations and recurses into classes to
// pick up members, matching the teacher's single recursive walker that
// switches on node type (walkTSFunctions / walkTSTypesAST combined).
func (w *jsWalker) walkTop(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_declaration":
		w.addFunctionOrMethod(node, "", graphmodel.KindFunction)
	case "variable_declarator":
		w.maybeFunctionVariable(node)
	case "class_declaration":
		w.addClass(node)
		return // addClass recurses into its own body for members
	case "interface_declaration":
		w.addInterface(node)
	case "type_alias_declaration":
		w.addTypeAlias(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkTop(node.Child(i))
	}
}

func (w *jsWalker) maybeFunctionVariable(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return
	}
	switch valueNode.Type() {
	case "arrow_function", "function_expression", "function":
		w.addFunctionOrMethod(node, nodeText(w.content, nameNode), graphmodel.KindFunction)
	}
}

func (w *jsWalker) addFunctionOrMethod(node *sitter.Node, explicitName string, kind graphmodel.NodeKind) *graphmodel.SyntacticNode {
	name := explicitName
	if name == "" {
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name = nodeText(w.content, nameNode)
		}
	}
	if name == "" {
		w.anonSeq++
		name = "<anonymous>"
	}
	sn := graphmodel.SyntacticNode{
		ID:        graphmodel.NodeID(w.path, kind, name, startLine(node)),
		Kind:      kind,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: sn.ID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
	return &sn
}

func (w *jsWalker) addClass(node *sitter.Node) {
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

	if heritage := findChildOfType(node, "class_heritage"); heritage != nil {
		if ext := findChildOfType(heritage, "extends_clause"); ext != nil {
			if target := firstIdentifier(ext, w.content); target != "" {
				w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
					SourceID: classID,
					TargetID: graphmodel.NodeID(w.path, graphmodel.KindClass, target, 0),
					Kind:     graphmodel.RelExtends,
					Weight:   1,
					Metadata: map[string]string{"unresolved_name": target},
				})
			}
		}
		if impl := findChildOfType(heritage, "implements_clause"); impl != nil {
			for _, target := range allIdentifiers(impl, w.content) {
				w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
					SourceID: classID,
					TargetID: graphmodel.NodeID(w.path, graphmodel.KindInterface, target, 0),
					Kind:     graphmodel.RelImplements,
					Weight:   1,
					Metadata: map[string]string{"unresolved_name": target},
				})
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "method_definition", "method_signature":
			w.addMember(member, classID)
		case "public_field_definition", "field_definition", "property_signature":
			w.addProperty(member, classID)
		}
	}
}

func (w *jsWalker) addMember(node *sitter.Node, classID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	methodID := graphmodel.NodeID(w.path, graphmodel.KindMethod, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        methodID,
		Kind:      graphmodel.KindMethod,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: classID,
		TargetID: methodID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
}

func (w *jsWalker) addProperty(node *sitter.Node, classID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = node.ChildByFieldName("property")
	}
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	propID := graphmodel.NodeID(w.path, graphmodel.KindProperty, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        propID,
		Kind:      graphmodel.KindProperty,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: classID,
		TargetID: propID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
}

func (w *jsWalker) addInterface(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	ifaceID := graphmodel.NodeID(w.path, graphmodel.KindInterface, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        ifaceID,
		Kind:      graphmodel.KindInterface,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: ifaceID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
}

func (w *jsWalker) addTypeAlias(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(w.content, nameNode)
	aliasID := graphmodel.NodeID(w.path, graphmodel.KindVariable, name, startLine(node))
	sn := graphmodel.SyntacticNode{
		ID:        aliasID,
		Kind:      graphmodel.KindVariable,
		Name:      name,
		File:      w.path,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
	w.out.InnerNodes = append(w.out.InnerNodes, sn)
	w.out.IntraFileRelationships = append(w.out.IntraFileRelationships, graphmodel.Relationship{
		SourceID: w.fileID,
		TargetID: aliasID,
		Kind:     graphmodel.RelContains,
		Weight:   1,
	})
}

// extractImports walks the whole tree for ES import/export-from
// statements and CommonJS require() calls (§4.2 "every import/require
// form the grammar offers").
func (w *jsWalker) extractImports(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		if src := findChildOfType(node, "string"); src != nil {
			w.addImport(stringLiteralValue(w.content, src), startLine(node), importedSymbolsFromClause(node, w.content))
		}
	case "export_statement":
		if src := findChildOfType(node, "string"); src != nil {
			w.addImport(stringLiteralValue(w.content, src), startLine(node), nil)
		}
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && nodeText(w.content, fn) == "require" {
			if args := node.ChildByFieldName("arguments"); args != nil {
				if s := findChildOfType(args, "string"); s != nil {
					w.addImport(stringLiteralValue(w.content, s), startLine(node), nil)
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.extractImports(node.Child(i))
	}
}

func (w *jsWalker) addImport(raw string, line int, symbols []string) {
	if raw == "" {
		return
	}
	style := graphmodel.ImportBare
	if strings.HasPrefix(raw, ".") {
		style = graphmodel.ImportRelative
	}
	w.out.Imports = append(w.out.Imports, graphmodel.ImportDescriptor{
		FileID:          w.fileID,
		Raw:             raw,
		Style:           style,
		ImportedSymbols: symbols,
		Line:            line,
	})
}

func stringLiteralValue(content []byte, n *sitter.Node) string {
	return strings.Trim(nodeText(content, n), `"'`+"`")
}

func importedSymbolsFromClause(importStmt *sitter.Node, content []byte) []string {
	clause := findChildOfType(importStmt, "import_clause")
	if clause == nil {
		return nil
	}
	var names []string
	named := findChildOfType(clause, "named_imports")
	if named != nil {
		for i := 0; i < int(named.ChildCount()); i++ {
			spec := named.Child(i)
			if spec.Type() == "import_specifier" {
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					names = append(names, nodeText(content, nameNode))
				}
			}
		}
	}
	return names
}

func findChildOfType(node *sitter.Node, t string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == t {
			return node.Child(i)
		}
	}
	return nil
}

func firstIdentifier(node *sitter.Node, content []byte) string {
	ids := allIdentifiers(node, content)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func allIdentifiers(node *sitter.Node, content []byte) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "identifier" || n.Type() == "type_identifier" {
			out = append(out, nodeText(content, n))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}
