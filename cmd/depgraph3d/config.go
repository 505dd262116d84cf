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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/depgraph3d/internal/errors"
)

const defaultConfigFile = ".depgraph3d.yaml"

// Config is the optional host-level configuration file. It covers only
// the fields of pkg/engine.AnalyzeOptions a host might want to pin across
// runs; the engine itself knows nothing about YAML or files.
type Config struct {
	Extensions            []string         `yaml:"extensions"`
	IgnoreGlobs            []string         `yaml:"ignore_globs"`
	Workers               int              `yaml:"workers"`
	AlgorithmTimeoutsMs   map[string]int64 `yaml:"algorithm_timeouts_ms"`
	OverallTimeoutMs      int64            `yaml:"overall_timeout_ms"`
	BetweennessSampleSize int              `yaml:"betweenness_sample_size"`
	RNGSeed               int64            `yaml:"rng_seed"`
}

// DefaultConfig returns a Config with no overrides: every field left at
// its zero value so AnalyzeOptions.withDefaults applies the engine's own
// defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from configPath, or (if empty) searches
// the current directory and its parents for .depgraph3d.yaml. A missing
// file anywhere in the search is not an error: DefaultConfig is returned
// instead, since the config file is entirely optional (§ "Configuration
// file" of the ambient stack).
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, err
		}
		if found == "" {
			return DefaultConfig(), nil
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors", configPath),
			err,
		)
	}

	return cfg, nil
}

// findConfigFile walks from the current directory up to the filesystem
// root looking for .depgraph3d.yaml. Returns "" (no error) if none exists
// anywhere in the chain.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		candidate := filepath.Join(dir, defaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
