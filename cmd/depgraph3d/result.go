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
	"errors"
	"fmt"

	"github.com/kraklabs/depgraph3d/internal/ui"
	"github.com/kraklabs/depgraph3d/pkg/engine"
	internalerrors "github.com/kraklabs/depgraph3d/internal/errors"
)

// faultToUserError converts the engine's internal Fault taxonomy (§7)
// into the CLI's UserError/exit-code vocabulary.
func faultToUserError(err error) *internalerrors.UserError {
	var fault *engine.Fault
	if !errors.As(err, &fault) {
		return internalerrors.NewInternalError(
			"Analysis failed unexpectedly",
			err.Error(),
			"This is a bug. Please report it with the project that triggered it.",
			err,
		)
	}

	switch fault.Kind {
	case engine.FaultDiscovery:
		return internalerrors.NewInputError(
			"Could not walk the project root",
			fault.Message,
			"Check that the path exists and is a readable directory",
		)
	case engine.FaultBuild:
		return internalerrors.NewInternalError(
			"Graph construction failed",
			fault.Message,
			"This is a bug. Please report it with the project that triggered it.",
			fault.Err,
		)
	case engine.FaultCancelled:
		return &internalerrors.UserError{
			Message:  "Analysis cancelled",
			Cause:    fault.Message,
			ExitCode: exitInterrupted,
			Err:      fault,
		}
	default:
		return internalerrors.NewInternalError(
			"Analysis failed unexpectedly",
			fault.Message,
			"This is a bug. Please report it with the project that triggered it.",
			fault.Err,
		)
	}
}

// exitInterrupted is the new exit code SPEC_FULL.md repurposes for an
// honored cancellation, distinct from the teacher's fixed exit-code set.
const exitInterrupted = 130

// printSummary prints a human-readable summary of an AnalysisResult.
func printSummary(result *engine.AnalysisResult) {
	ui.Header("Analysis Summary")
	fmt.Printf("Run ID:      %s\n", result.RunID)
	fmt.Printf("Root:        %s\n", result.Root)
	fmt.Printf("Nodes:       %d\n", result.Summary.TotalNodes)
	fmt.Printf("Edges:       %d\n", result.Summary.TotalEdges)
	fmt.Printf("Communities: %d (modularity %.3f)\n", result.Summary.CommunityCount, result.Summary.Modularity)
	fmt.Printf("Avg complexity: %.2f\n", result.Summary.AverageComplexity)
	fmt.Printf("High-risk nodes: %d\n", result.Summary.HighRiskCount)
	fmt.Printf("Circular dependency groups: %d\n", result.Summary.CircularDependencyCount)
	if result.Summary.BetweennessPartial {
		ui.Warning("Betweenness exceeded its time budget; scores are from a partial run")
	}
	if len(result.Diagnostics) > 0 {
		ui.Warningf("%d non-fatal diagnostics were recorded", len(result.Diagnostics))
	}
	fmt.Printf("Duration:    %s\n", result.Duration)
}
