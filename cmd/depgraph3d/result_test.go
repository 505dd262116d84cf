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
	"testing"

	internalerrors "github.com/kraklabs/depgraph3d/internal/errors"
	"github.com/kraklabs/depgraph3d/pkg/engine"
	"github.com/stretchr/testify/require"
)

func TestFaultToUserError_Discovery(t *testing.T) {
	fault := &engine.Fault{Kind: engine.FaultDiscovery, Message: "permission denied"}
	ue := faultToUserError(fault)
	require.Equal(t, internalerrors.ExitInput, ue.ExitCode)
	require.Contains(t, ue.Cause, "permission denied")
}

func TestFaultToUserError_Build(t *testing.T) {
	fault := &engine.Fault{Kind: engine.FaultBuild, Message: "invariant violated", Err: errors.New("boom")}
	ue := faultToUserError(fault)
	require.Equal(t, internalerrors.ExitInternal, ue.ExitCode)
}

func TestFaultToUserError_Cancelled(t *testing.T) {
	fault := &engine.Fault{Kind: engine.FaultCancelled, Message: "context canceled"}
	ue := faultToUserError(fault)
	require.Equal(t, exitInterrupted, ue.ExitCode)
}

func TestFaultToUserError_NonFaultError(t *testing.T) {
	ue := faultToUserError(errors.New("something else"))
	require.Equal(t, internalerrors.ExitInternal, ue.ExitCode)
}
