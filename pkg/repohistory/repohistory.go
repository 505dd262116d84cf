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

package repohistory

import (
	"context"
	"strings"
	"time"
)

// Signals is one file's repository-history contribution to §4.5's
// quality metrics: churn (commit count touching the file in the
// lookback window) and owners (distinct author count over the same
// window).
type Signals struct {
	Churn  int
	Owners int
}

// DefaultLookback bounds how far back churn/owners counting looks,
// matching the "recent changes" language of §4.5.
const DefaultLookback = 90 * 24 * time.Hour

// Options configures one Collect call.
type Options struct {
	Lookback time.Duration // zero means DefaultLookback
}

func (o Options) withDefaults() Options {
	if o.Lookback <= 0 {
		o.Lookback = DefaultLookback
	}
	return o
}

// Collect runs one `git log --name-only` pass over the lookback window
// and aggregates per-file churn/owners from it, relative to git's own
// path output (which joinRepoPath converts back to the absolute paths
// the rest of the engine keys on). A single pass over the whole log is
// used instead of one invocation per file so cost stays proportional to
// commit count, not file count, on large repos.
func Collect(ctx context.Context, git GitRunner, opts Options) (map[string]Signals, error) {
	o := opts.withDefaults()
	since := time.Now().Add(-o.Lookback).Format("2006-01-02")

	output, err := git.Run(ctx, "log", "--since="+since, "--name-only", "--format=%x01%an")
	if err != nil {
		return nil, err
	}

	authorsByFile := make(map[string]map[string]bool)
	churnByFile := make(map[string]int)

	currentAuthor := ""
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\x01") {
			currentAuthor = strings.TrimPrefix(line, "\x01")
			continue
		}
		if currentAuthor == "" {
			continue
		}
		file := strings.TrimSpace(line)
		if file == "" {
			continue
		}
		abs := joinRepoPath(git.RepoRoot(), file)
		churnByFile[abs]++
		if authorsByFile[abs] == nil {
			authorsByFile[abs] = make(map[string]bool)
		}
		authorsByFile[abs][currentAuthor] = true
	}

	signals := make(map[string]Signals, len(churnByFile))
	for file, churn := range churnByFile {
		signals[file] = Signals{Churn: churn, Owners: len(authorsByFile[file])}
	}

	return signals, nil
}

func joinRepoPath(root, rel string) string {
	if root == "" {
		return rel
	}
	return root + "/" + rel
}
