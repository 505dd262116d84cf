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

// Package repohistory is the optional repository-signal adapter §4.5
// mentions ("where...an optional repository-history adapter supply
// them"). It shells out to the system git binary exactly like the rest
// of the retrieved pack does, never linking a Go git implementation, and
// is entirely optional: a non-git root or a missing git binary simply
// means churn/owners stay at their zero default (§4.5 "excluded from
// downstream normalization effects").
package repohistory

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRunner executes git commands against one repository root. Mockable
// in tests.
type GitRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
	RepoRoot() string
}

// GitExecutor runs the system git binary rooted at a discovered
// repository top level.
type GitExecutor struct {
	repoRoot string
}

// NewGitExecutor discovers the git repository root containing startPath.
// It returns an error (non-fatal to the caller, §4.5) when startPath is
// not inside a git repository or git is not installed.
func NewGitExecutor(ctx context.Context, startPath string) (*GitExecutor, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("not a git repository or git unavailable: %w", err)
	}

	root := strings.TrimSpace(string(output))
	if root == "" {
		return nil, fmt.Errorf("could not determine git repository root")
	}
	return &GitExecutor{repoRoot: root}, nil
}

// RepoRoot returns the absolute repository root path.
func (g *GitExecutor) RepoRoot() string { return g.repoRoot }

// Run executes a git subcommand rooted at the repository and returns
// stdout. ctx governs timeout/cancellation.
func (g *GitExecutor) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git command timed out or canceled: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s failed: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return stdout.String(), nil
}
