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

package repohistory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGit struct {
	root   string
	output string
}

func (f *fakeGit) RepoRoot() string { return f.root }

func (f *fakeGit) Run(ctx context.Context, args ...string) (string, error) {
	return f.output, nil
}

func TestCollect_AggregatesChurnAndOwners(t *testing.T) {
	// Two commits touch a.ts (two different authors); one commit touches
	// b.ts (same author as a.ts's second commit).
	log := "\x01alice\na.ts\n" +
		"\x01bob\na.ts\nb.ts\n"

	git := &fakeGit{root: "/repo", output: log}
	signals, err := Collect(context.Background(), git, Options{})
	require.NoError(t, err)

	require.Equal(t, 2, signals["/repo/a.ts"].Churn)
	require.Equal(t, 2, signals["/repo/a.ts"].Owners)
	require.Equal(t, 1, signals["/repo/b.ts"].Churn)
	require.Equal(t, 1, signals["/repo/b.ts"].Owners)
}

func TestCollect_EmptyLogYieldsNoSignals(t *testing.T) {
	git := &fakeGit{root: "/repo", output: ""}
	signals, err := Collect(context.Background(), git, Options{})
	require.NoError(t, err)
	require.Empty(t, signals)
}
