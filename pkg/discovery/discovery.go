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

// Package discovery walks a root directory and emits the (path, content,
// language) triples the rest of the pipeline parses. It never follows
// symlinks, skips binary files heuristically, and excludes a default set
// of build-output and VCS directories in addition to any caller-supplied
// ignore globs.
package discovery

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

// ErrorKind classifies a DiscoveryError (§4.1, §7).
type ErrorKind string

const (
	ErrIO       ErrorKind = "io"
	ErrNotFound ErrorKind = "not-found"
	ErrDecoding ErrorKind = "decoding"
)

// DiscoveryError is the fatal error kind for the Discovering stage.
type DiscoveryError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// defaultIgnoreDirs mirrors the hidden/build-output directories §4.1
// requires excluded by default.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".hg":          true,
	".svn":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".idea":        true,
	".vscode":      true,
}

// extensionLanguage maps the extensions of the three supported families
// (§4.2) to their Language tag. Extensions outside the allowlist are
// skipped entirely; this map also backs language detection.
var extensionLanguage = map[string]graphmodel.Language{
	".js":  graphmodel.LangJavaScript,
	".mjs": graphmodel.LangJavaScript,
	".cjs": graphmodel.LangJavaScript,
	".jsx": graphmodel.LangJavaScript,
	".ts":  graphmodel.LangTypeScript,
	".tsx": graphmodel.LangTypeScript,
	".py":  graphmodel.LangPython,
	".c":   graphmodel.LangC,
	".h":   graphmodel.LangC,
}

// DefaultExtensions is the extension allowlist covering every language
// family in the initial matrix (§4.2).
func DefaultExtensions() []string {
	exts := make([]string, 0, len(extensionLanguage))
	for ext := range extensionLanguage {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IgnorePredicate additionally excludes paths beyond the default rules.
// It receives a path relative to the discovery root, slash-normalized.
type IgnorePredicate func(relPath string) bool

// DiscoveredFile is one (path, content, language) triple.
type DiscoveredFile struct {
	AbsPath  string
	RelPath  string
	Content  []byte
	Language graphmodel.Language
	Size     int64
}

// Diagnostics accumulates non-fatal skip reasons (§9 "Supplemented
// Features" / TopSkipReasons).
type Diagnostics struct {
	SkipReasons map[string]int
}

// Options configures a Walk.
type Options struct {
	Root            string
	Extensions      []string // empty means DefaultExtensions()
	Ignore          IgnorePredicate
	MaxFileSize     int64 // 0 means unbounded
	Logger          *slog.Logger
}

// Walk enumerates files under root in deterministic (lexical) order.
// Symlinks are never followed; hidden/build directories are pruned
// before descending into them so large excluded trees are never walked.
func Walk(opts Options) ([]DiscoveredFile, *Diagnostics, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, nil, &DiscoveryError{Kind: ErrIO, Path: opts.Root, Err: err}
	}
	info, err := lstatDir(root)
	if err != nil {
		return nil, nil, &DiscoveryError{Kind: ErrNotFound, Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, nil, &DiscoveryError{Kind: ErrNotFound, Path: root, Err: fmt.Errorf("not a directory")}
	}

	allow := opts.Extensions
	if len(allow) == 0 {
		allow = DefaultExtensions()
	}
	allowSet := make(map[string]bool, len(allow))
	for _, e := range allow {
		allowSet[strings.ToLower(e)] = true
	}

	diag := &Diagnostics{SkipReasons: make(map[string]int)}
	var files []DiscoveredFile

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("discovery.walk.error", "path", path, "err", err)
			diag.SkipReasons["io-error"]++
			return nil
		}

		// Never follow symlinks: a symlink DirEntry is skipped outright.
		if d.Type()&fs.ModeSymlink != 0 {
			diag.SkipReasons["symlink"]++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			name := d.Name()
			if relPath != "." && (defaultIgnoreDirs[name] || strings.HasPrefix(name, ".")) {
				diag.SkipReasons["excluded-dir"]++
				return filepath.SkipDir
			}
			if opts.Ignore != nil && opts.Ignore(relPath) {
				diag.SkipReasons["excluded-dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if opts.Ignore != nil && opts.Ignore(relPath) {
			diag.SkipReasons["excluded"]++
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !allowSet[ext] {
			diag.SkipReasons["extension"]++
			return nil
		}

		fileInfo, infoErr := d.Info()
		if infoErr != nil {
			diag.SkipReasons["io-error"]++
			return nil
		}
		if opts.MaxFileSize > 0 && fileInfo.Size() > opts.MaxFileSize {
			diag.SkipReasons["too-large"]++
			logger.Warn("discovery.skip.too_large", "path", relPath, "size", fileInfo.Size())
			return nil
		}

		content, readErr := readFileBytes(path)
		if readErr != nil {
			diag.SkipReasons["io-error"]++
			logger.Warn("discovery.skip.read_error", "path", relPath, "err", readErr)
			return nil
		}

		if looksBinary(content) {
			diag.SkipReasons["binary"]++
			return nil
		}
		if !utf8.Valid(content) {
			diag.SkipReasons["decoding"]++
			logger.Warn("discovery.skip.non_utf8", "path", relPath)
			return nil
		}

		lang := extensionLanguage[ext]
		files = append(files, DiscoveredFile{
			AbsPath:  path,
			RelPath:  relPath,
			Content:  content,
			Language: lang,
			Size:     fileInfo.Size(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, diag, &DiscoveryError{Kind: ErrIO, Path: root, Err: walkErr}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, diag, nil
}

// looksBinary applies the same heuristic most of the pack uses: a NUL
// byte anywhere in the first chunk marks the file as binary.
func looksBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) != -1
}

// MatchGlob reports whether path matches pattern, supporting *, **, ?,
// and POSIX-style character classes.
func MatchGlob(path, pattern string) bool {
	return matchesGlob(path, pattern)
}
