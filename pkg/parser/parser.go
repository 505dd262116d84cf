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

// Package parser implements the parser registry and the four language
// parsers of the initial matrix (§4.2): the curly-brace scripting family
// (JavaScript, TypeScript), the indentation-based family (Python), and
// the systems header-oriented family (C). Every parser is pure and
// thread-safe; the registry may invoke them on any worker.
package parser

import (
	"fmt"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

// ParseError is a single non-fatal syntactic failure attached to a
// ParsedFile. It never halts the build (§4.2 Failure semantics).
type ParseError struct {
	File    string
	Message string
	Line    int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// ParsedFile is the per-file output of a LanguageParser.
type ParsedFile struct {
	FileNode              graphmodel.SyntacticNode
	InnerNodes            []graphmodel.SyntacticNode
	IntraFileRelationships []graphmodel.Relationship
	Imports               []graphmodel.ImportDescriptor
	ParseErrors           []ParseError
}

// LanguageParser is the capability every language implements (§9
// "Polymorphism across languages"). The registry is a closed dispatch
// table keyed by extension; adding a language means implementing this
// interface and registering it, no framework change required.
type LanguageParser interface {
	SupportedExtensions() []string
	Parse(path string, content []byte) (*ParsedFile, error)
}

// Registry dispatches a file to its language parser by extension.
type Registry struct {
	byExt map[string]LanguageParser
}

// NewRegistry builds a registry with the four language parsers of the
// initial matrix already wired in.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]LanguageParser)}
	r.Register(NewScriptingParser())
	r.Register(NewPythonParser())
	r.Register(NewCParser())
	return r
}

// Register adds a parser for every extension it declares, overwriting
// any previous registration for a colliding extension (last one wins;
// used by tests that substitute a fake parser).
func (r *Registry) Register(p LanguageParser) {
	for _, ext := range p.SupportedExtensions() {
		r.byExt[ext] = p
	}
}

// Lookup returns the parser registered for ext, if any.
func (r *Registry) Lookup(ext string) (LanguageParser, bool) {
	p, ok := r.byExt[ext]
	return p, ok
}

// Parse dispatches path to the parser registered for its extension. An
// unrecognized extension returns an error; discovery's allowlist already
// restricts inputs, so this only triggers if a caller bypasses it.
func (r *Registry) Parse(path, ext string, content []byte) (*ParsedFile, error) {
	p, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("parser: no language parser registered for extension %q", ext)
	}
	return p.Parse(path, content)
}
