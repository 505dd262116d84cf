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

import "testing"

func TestNodeID_Deterministic(t *testing.T) {
	id1 := NodeID("pkg/a.ts", KindFunction, "doThing", 10)
	id2 := NodeID("pkg/a.ts", KindFunction, "doThing", 10)
	if id1 != id2 {
		t.Errorf("NodeID should be deterministic: got %q and %q", id1, id2)
	}
}

func TestNodeID_DiscoveryOrderIndependent(t *testing.T) {
	// The same (file, kind, name, start_line) tuple must hash identically
	// no matter what else has been hashed before it.
	_ = NodeID("unrelated/b.py", KindClass, "Other", 1)
	id1 := NodeID("pkg/a.ts", KindFunction, "doThing", 10)
	_ = NodeID("unrelated/c.c", KindVariable, "g", 2)
	id2 := NodeID("pkg/a.ts", KindFunction, "doThing", 10)
	if id1 != id2 {
		t.Errorf("NodeID must not depend on call order: got %q and %q", id1, id2)
	}
}

func TestNodeID_DistinguishesFields(t *testing.T) {
	base := NodeID("pkg/a.ts", KindFunction, "doThing", 10)
	cases := []string{
		NodeID("pkg/b.ts", KindFunction, "doThing", 10),
		NodeID("pkg/a.ts", KindMethod, "doThing", 10),
		NodeID("pkg/a.ts", KindFunction, "doOther", 10),
		NodeID("pkg/a.ts", KindFunction, "doThing", 11),
	}
	for i, id := range cases {
		if id == base {
			t.Errorf("case %d: expected a distinct id, collided with base %q", i, base)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"./a/b.go":  "a/b.go",
		"a/b.go":    "a/b.go",
		"/a/b.go":   "a/b.go",
		"a/../b.go": "b.go",
	}
	for in, want := range tests {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileNodeID_MatchesNormalizedSpellings(t *testing.T) {
	id1 := FileNodeID("./src/a.py")
	id2 := FileNodeID("src/a.py")
	if id1 != id2 {
		t.Errorf("FileNodeID should normalize equivalent spellings: got %q and %q", id1, id2)
	}
}
