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

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/depgraph3d/pkg/telemetry"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mustWrite := func(rel, content string) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	mustWrite("a.ts", `import { helper } from "./b";

export function entry() {
  return helper();
}
`)
	mustWrite("b.ts", `import { util } from "./c";

export function helper() {
  if (util()) {
    return 1;
  }
  return 0;
}
`)
	mustWrite("c.ts", `export function util() {
  return true;
}
`)
	return root
}

func newTestEngine() *Engine {
	metrics, _ := telemetry.New()
	return New(metrics)
}

func TestAnalyze_ReachesReadyState(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	result, err := eng.Analyze(context.Background(), root, AnalyzeOptions{Workers: 2})
	require.NoError(t, err)
	require.Equal(t, StateReady, result.State)
	// 3 File nodes plus one top-level Function node per file (§3 Data
	// Model): every graph node gets a DTO, not just the File nodes the
	// imports projection itself is scoped to.
	require.Len(t, result.Nodes, 6)
	require.Equal(t, 6, result.Summary.TotalNodes)
	require.NotEmpty(t, result.RunID)
}

func TestAnalyze_RejectsUnrecognizedTimeoutKey(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	_, err := eng.Analyze(context.Background(), root, AnalyzeOptions{
		AlgorithmTimeoutsMs: map[string]int64{"pagerank": 1000},
	})
	require.Error(t, err)
}

func TestAnalyze_HonorsCancellation(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := eng.Analyze(ctx, root, AnalyzeOptions{})
	require.Error(t, err)
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, FaultCancelled, fault.Kind)
	require.Equal(t, StateCancelled, result.State)
}

func TestAnalyze_UnknownRootIsDiscoveryFault(t *testing.T) {
	eng := newTestEngine()

	result, err := eng.Analyze(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), AnalyzeOptions{})
	require.Error(t, err)
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, FaultDiscovery, fault.Kind)
	require.Equal(t, StateFailed, result.State)
}

func TestGetTopBy_OrdersDescendingByMetric(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	result, err := eng.Analyze(context.Background(), root, AnalyzeOptions{})
	require.NoError(t, err)

	top, err := eng.GetTopBy(result, "importance", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.GreaterOrEqual(t, top[0].Importance, top[1].Importance)
}

func TestGetTopBy_RejectsUnknownMetric(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	result, err := eng.Analyze(context.Background(), root, AnalyzeOptions{})
	require.NoError(t, err)

	_, err = eng.GetTopBy(result, "not-a-real-metric", 1)
	require.Error(t, err)
}

func TestAnalyze_SingleFileImportsProjectionIsFileOnly(t *testing.T) {
	root := t.TempDir()
	content := `export class Widget {
  render() {
    return 1;
  }
  destroy() {
    return 0;
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "widget.ts"), []byte(content), 0o644))
	eng := newTestEngine()

	result, err := eng.Analyze(context.Background(), root, AnalyzeOptions{})
	require.NoError(t, err)
	require.Equal(t, StateReady, result.State)

	// One File, one Class, two Method nodes, but the imports projection
	// is scoped to File nodes only (§3), so it carries just the one node
	// and zero edges, and Louvain sees a single trivial community.
	require.Equal(t, 1, result.Imports.NodeCount)
	require.Empty(t, result.Imports.Edges)
	require.Equal(t, 1, result.Summary.CommunityCount)
	require.Len(t, result.Nodes, 4)

	var foundFile bool
	for _, n := range result.Nodes {
		if n.NodeType == "File" {
			foundFile = true
			require.InDelta(t, 1.0, n.Raw.PageRankImports, 1e-9)
			require.Equal(t, 0, n.Community)
		} else {
			// Non-File nodes inherit their containing file's community
			// rather than reading as a singleton of their own.
			require.Equal(t, 0, n.Community)
		}
	}
	require.True(t, foundFile)
}

func TestRecomputeMetrics_ReusesGraphWithoutReparsing(t *testing.T) {
	root := writeProject(t)
	eng := newTestEngine()

	first, err := eng.Analyze(context.Background(), root, AnalyzeOptions{})
	require.NoError(t, err)

	second, err := eng.RecomputeMetrics(context.Background(), first.Graph, AnalyzeOptions{RNGSeed: 42})
	require.NoError(t, err)
	require.Equal(t, StateReady, second.State)
	require.Len(t, second.Nodes, len(first.Nodes))
}
