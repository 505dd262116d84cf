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

// Package graphmodel defines the entities shared by every stage of the
// analysis pipeline: files, syntactic nodes, relationships, import
// descriptors, the dense-indexed graph node, and the per-node metrics
// vector. Nothing in this package depends on tree-sitter, git, or any
// I/O; it is pure data plus the node-id hash.
package graphmodel

// NodeKind enumerates the syntactic entities a language parser can emit.
type NodeKind string

const (
	KindFile      NodeKind = "File"
	KindModule    NodeKind = "Module"
	KindClass     NodeKind = "Class"
	KindInterface NodeKind = "Interface"
	KindFunction  NodeKind = "Function"
	KindMethod    NodeKind = "Method"
	KindVariable  NodeKind = "Variable"
	KindProperty  NodeKind = "Property"
	KindImport    NodeKind = "Import"
	KindExport    NodeKind = "Export"
)

// RelKind enumerates the relationship types in the union graph.
type RelKind string

const (
	RelContains   RelKind = "Contains"
	RelCalls      RelKind = "Calls"
	RelImports    RelKind = "Imports"
	RelExports    RelKind = "Exports"
	RelExtends    RelKind = "Extends"
	RelImplements RelKind = "Implements"
	RelReferences RelKind = "References"
)

// ImportStyle tags how an import's raw module string should be resolved.
type ImportStyle string

const (
	ImportRelative ImportStyle = "relative"
	ImportBare     ImportStyle = "bare"
	ImportSystem   ImportStyle = "system"
)

// Language identifies the family a parser belongs to.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangC          Language = "c"
	LangUnknown    Language = "unknown"
)

// File is the discovery-stage entity. Its identity is the canonical
// absolute path; it is created once and never mutated.
type File struct {
	Path      string // canonical absolute path
	Language  Language
	LineCount int
	ByteSize  int64
}

// SyntacticNode is a language-agnostic AST-derived entity. Its id is a
// stable hash of (file, kind, name, start_line); see NodeID.
type SyntacticNode struct {
	ID        string
	Kind      NodeKind
	Name      string
	File      string // canonical path of the containing file
	StartLine int
	EndLine   int
	Metadata  map[string]string
}

// Relationship is an edge in the union graph, keyed by its endpoints and
// kind. Weight defaults to 1 and is only meaningful for Imports edges
// after coalescing (§4.3).
type Relationship struct {
	SourceID string
	TargetID string
	Kind     RelKind
	Weight   float64
	Metadata map[string]string
}

// ImportDescriptor is a parser-emitted, not-yet-resolved import. It is
// consumed and discarded by the graph builder.
type ImportDescriptor struct {
	FileID          string // id of the originating File node
	Raw             string // exact raw module string as written
	Style           ImportStyle
	ImportedSymbols []string // optional; surfaced for hosts, see DESIGN.md
	Line            int
	Resolved        bool   // set by the graph builder
	ResolvedFileID  string // set by the graph builder when Resolved
}

// GraphNode is the dense-indexed projection of a SyntacticNode used by
// every downstream algorithm. Index is assigned once per build by
// ascending sorted node id and is stable for the build's lifetime.
type GraphNode struct {
	Index       int
	NodeID      string
	Language    Language
	Kind        NodeKind
	DisplayPath string
	DisplayName string
}

// MetricsVector holds every raw and normalized scalar plus the four
// composites for one GraphNode. It is a pure function of the graph (and
// optional repository signals) and may be recomputed without re-parsing.
type MetricsVector struct {
	NodeIndex int

	// Raw scalars.
	PageRankImports float64
	PageRankCalls   float64
	HasCallsPR      bool
	InDegree        int
	OutDegree       int
	TotalDegree     int
	InDegreeNorm    float64
	OutDegreeNorm   float64
	TotalDegreeNorm float64
	KCore           int
	Clustering      float64
	Betweenness     float64
	BetweennessPart bool // true when this value came from a timed-out/partial run
	Closeness       float64
	Eigenvector     float64
	Community       int

	Churn      float64
	HasChurn   bool
	Complexity float64
	HasComplex bool
	Owners     int
	HasOwners  bool
	Coverage   float64
	HasCover   bool
	LOC        int

	// Normalized [0,1] counterparts used by the composer.
	NormPageRankImports float64
	NormPageRankCalls   float64
	NormIndegree        float64
	NormKCore           float64
	NormClustering      float64
	NormBetweenness     float64
	NormChurn           float64
	NormComplexity      float64
	NormOwners          float64
	NormCoverage        float64

	// Composites.
	Importance float64
	Risk       float64
	Chokepoint float64
	Payoff     float64
}
