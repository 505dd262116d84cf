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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	internalerrors "github.com/kraklabs/depgraph3d/internal/errors"
	"github.com/kraklabs/depgraph3d/internal/output"
	"github.com/kraklabs/depgraph3d/internal/ui"
	"github.com/kraklabs/depgraph3d/pkg/composer"
	"github.com/kraklabs/depgraph3d/pkg/engine"
	"github.com/kraklabs/depgraph3d/pkg/telemetry"
)

// runTop executes the 'top' CLI command: runs a full analysis, then prints
// the k highest-scoring nodes for a single metric (importance, risk,
// chokepoint, or payoff).
func runTop(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	limit := fs.IntP("limit", "k", 10, "Number of nodes to print")
	rngSeed := fs.Int64("rng-seed", 0, "Seed for Louvain and sampled betweenness/closeness")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: depgraph3d top <metric> [path] [options]

Runs the full analysis pipeline and prints the top -k nodes ranked by
metric, one of: importance, risk, chokepoint, payoff.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing metric argument")
		fs.Usage()
		os.Exit(1)
	}
	metric := fs.Arg(0)
	root := "."
	if fs.NArg() > 1 {
		root = fs.Arg(1)
	}

	opts, _, err := buildPipelineOptions(configPath, root, true, *rngSeed, 0, *debug)
	if err != nil {
		internalerrors.FatalError(err, globals.JSON)
	}

	result := runPipeline(root, opts, globals)

	eng := engine.New(telemetry.Default())
	top, err := eng.GetTopBy(result, metric, *limit)
	if err != nil {
		internalerrors.FatalError(internalerrors.NewInputError(
			"Unrecognized metric",
			err.Error(),
			"Use one of: importance, risk, chokepoint, payoff",
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(top); err != nil {
			internalerrors.FatalError(internalerrors.NewInternalError(
				"Cannot encode result as JSON", err.Error(),
				"This is a bug. Please report it.", err,
			), globals.JSON)
		}
		return
	}

	ui.Header(fmt.Sprintf("Top %d by %s", *limit, metric))
	for i, node := range top {
		fmt.Printf("%3d. %-60s %.4f\n", i+1, node.Path, valueFor(node, metric))
	}
}

// valueFor reads the composite score matching metric, mirroring the
// ordering GetTopBy already applied, purely for display.
func valueFor(node composer.NodeDTO, metric string) float64 {
	switch metric {
	case "risk":
		return node.Risk
	case "chokepoint":
		return node.Chokepoint
	case "payoff":
		return node.Payoff
	default:
		return node.Importance
	}
}
