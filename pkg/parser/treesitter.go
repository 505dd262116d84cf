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
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	sitterc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// parserPool hands out thread-unsafe *sitter.Parser instances for one
// grammar. Tree-sitter parsers are not safe for concurrent use, so the
// registry borrows one per parse and returns it when done, exactly as
// the teacher's per-language sync.Pool does.
type parserPool struct {
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	return &parserPool{
		pool: sync.Pool{
			New: func() any {
				p := sitter.NewParser()
				p.SetLanguage(lang)
				return p
			},
		},
	}
}

func (pp *parserPool) parse(content []byte) (*sitter.Tree, *sitter.Parser, error) {
	p := pp.pool.Get().(*sitter.Parser)
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		pp.pool.Put(p)
		return nil, nil, err
	}
	return tree, p, nil
}

func (pp *parserPool) release(p *sitter.Parser) {
	pp.pool.Put(p)
}

var (
	jsPool = newParserPool(javascript.GetLanguage())
	tsPool = newParserPool(typescript.GetLanguage())
	pyPool = newParserPool(python.GetLanguage())
	cPool  = newParserPool(sitterc.GetLanguage())
)

// countErrors counts ERROR nodes in the AST, used to report a parse
// error without aborting (§4.2).
func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

func nodeText(content []byte, n *sitter.Node) string {
	return string(content[n.StartByte():n.EndByte()])
}

func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }
