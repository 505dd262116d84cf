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

// Package main implements the depgraph3d CLI: it turns a source tree into
// a versioned dependency-graph analysis via the pkg/engine pipeline.
//
// Usage:
//
//	depgraph3d analyze [path]            Run the full analysis pipeline
//	depgraph3d top <metric> [path]       Print the top-k nodes by metric
//	depgraph3d recompute [path]          Re-score an in-memory build with new options
//	depgraph3d --version                 Show version and exit
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/depgraph3d/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to every subcommand.
type GlobalFlags struct {
	JSON        bool
	NoColor     bool
	Verbose     int
	Quiet       bool
	MetricsAddr string
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .depgraph3d.yaml (default: auto-detect)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Accepted but does not change the log level (each command's --debug does)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress bars (log messages are still printed)")
		metricsAddr = flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `depgraph3d - dependency graph analysis engine

Turns a source repository into a versioned dependency graph with
structural metrics (importance, risk, chokepoint, payoff) suitable for
an interactive 3D visualization host.

Usage:
  depgraph3d <command> [options] [path]

Commands:
  analyze     Run the full analysis pipeline over a project root
  top         Print the top-k nodes ranked by a metric
  recompute   Re-score a build after changing algorithm options

Global Options:
  --json            Output in JSON format
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Accepted; does not change the log level (use --debug)
  -q, --quiet       Suppress progress bars (log messages still print)
  -c, --config      Path to .depgraph3d.yaml
  --metrics-addr    Expose Prometheus metrics at this address (e.g. :9090)
  -V, --version     Show version and exit

Examples:
  depgraph3d analyze .
  depgraph3d analyze . --json > graph.json
  depgraph3d top importance . -k 20
  depgraph3d recompute . --rng-seed 7

For detailed command help: depgraph3d <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("depgraph3d version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:        *jsonOutput,
		NoColor:     *noColor,
		Verbose:     *verbose,
		Quiet:       *quiet,
		MetricsAddr: *metricsAddr,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "analyze":
		runAnalyze(cmdArgs, *configPath, globals)
	case "top":
		runTop(cmdArgs, *configPath, globals)
	case "recompute":
		runRecompute(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
