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
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ExplicitMissingPathIsError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoadConfig_NoPathSearchesUpTree_ReturnsDefaultWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(wd)) }()
	require.NoError(t, os.Chdir(dir))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ExplicitPathParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, defaultConfigFile)
	content := `
extensions:
  - .ts
  - .py
workers: 4
algorithm_timeouts_ms:
  betweenness: 5000
overall_timeout_ms: 60000
betweenness_sample_size: 200
rng_seed: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{".ts", ".py"}, cfg.Extensions)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, int64(5000), cfg.AlgorithmTimeoutsMs["betweenness"])
	require.Equal(t, int64(60000), cfg.OverallTimeoutMs)
	require.Equal(t, 200, cfg.BetweennessSampleSize)
	require.Equal(t, int64(7), cfg.RNGSeed)
}

func TestLoadConfig_InvalidYAMLIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, defaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestFindConfigFile_FindsFileInParentDirectory(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(child, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, defaultConfigFile), []byte("workers: 2\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(wd)) }()
	require.NoError(t, os.Chdir(child))

	found, err := findConfigFile()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, defaultConfigFile), found)
}
