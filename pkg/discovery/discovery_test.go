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

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/depgraph3d/pkg/graphmodel"
)

func TestMatchesGlob_BasicPatterns(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"exact match", "foo.go", "foo.go", true},
		{"exact no match", "foo.go", "bar.go", false},
		{"star suffix ext", "foo.go", "*.go", true},
		{"star no match ext", "foo.txt", "*.go", false},
		{"double star dir", "a/b/c.go", "**/c.go", true},
		{"dir star star", "node_modules/x/y.js", "node_modules/**", true},
		{"char class", "file1.go", "file[0-9].go", true},
		{"negated class", "fileA.go", "file[!0-9].go", true},
	}
	for _, tt := range tests {
		if got := MatchGlob(tt.path, tt.pattern); got != tt.want {
			t.Errorf("%s: MatchGlob(%q, %q) = %v, want %v", tt.name, tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestWalk_SkipsExcludedAndBinary(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.ts"), "export const x = 1;")
	mustWrite(t, filepath.Join(root, "node_modules", "dep.js"), "module.exports = {}")
	mustWrite(t, filepath.Join(root, "bin.ts"), "")
	if err := os.WriteFile(filepath.Join(root, "bin.ts"), []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}

	files, diag, err := Walk(Options{Root: root})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "a.ts" {
		t.Fatalf("expected only a.ts to survive, got %+v", files)
	}
	if diag.SkipReasons["excluded-dir"] == 0 {
		t.Errorf("expected node_modules to be counted as excluded-dir")
	}
	if diag.SkipReasons["binary"] == 0 {
		t.Errorf("expected bin.ts to be counted as binary")
	}
	if files[0].Language != graphmodel.LangTypeScript {
		t.Errorf("expected typescript language tag, got %v", files[0].Language)
	}
}

func TestWalk_NotFound(t *testing.T) {
	_, _, err := Walk(Options{Root: filepath.Join(t.TempDir(), "does-not-exist")})
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
	de, ok := err.(*DiscoveryError)
	if !ok {
		t.Fatalf("expected *DiscoveryError, got %T", err)
	}
	if de.Kind != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", de.Kind)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
