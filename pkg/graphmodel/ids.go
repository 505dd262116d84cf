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

package graphmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// NodeID derives the stable id of a SyntacticNode from
// (canonical_path, kind, name, start_line). The same input bytes on the
// same path always yield the same id regardless of discovery order.
func NodeID(file string, kind NodeKind, name string, startLine int) string {
	idStr := fmt.Sprintf("%s|%s|%s|%d", NormalizePath(file), kind, name, startLine)
	hash := sha256.Sum256([]byte(idStr))
	return hex.EncodeToString(hash[:])
}

// FileNodeID derives the id of the File node for a given path. A File
// node is a SyntacticNode of kind File whose name is its own path and
// whose start line is 0 by convention.
func FileNodeID(path string) string {
	return NodeID(path, KindFile, NormalizePath(path), 0)
}

// NormalizePath normalizes a file path for consistent id generation:
// strips a leading "./", cleans it, forces forward slashes, and strips a
// leading "/" so absolute and relative spellings of the same file hash
// identically.
func NormalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
