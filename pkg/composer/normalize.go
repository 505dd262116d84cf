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

package composer

import (
	"math"
	"sort"
)

// robustNormalize min-max scales values against their 1st/99th
// percentile cut-offs (§4.6 "Robust normalization"), clamping the
// result to [0,1]. Values outside the cut-offs at either end saturate
// rather than overflow, keeping a handful of outliers from compressing
// everyone else into a sliver of the range. If the cut-offs coincide
// (e.g. every value is identical), every normalized value is 0.
func robustNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo := percentile(sorted, 0.01)
	hi := percentile(sorted, 0.99)
	if hi <= lo {
		return out
	}

	span := hi - lo
	for i, v := range values {
		x := (v - lo) / span
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		out[i] = x
	}
	return out
}

// percentile linearly interpolates the p-th percentile (0<=p<=1) of an
// already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// weightedInput is one term of a composite convex combination. present
// is false when the whole column is structurally absent from the
// build (e.g. no repository-history adapter supplied churn); its
// weight is then excluded rather than treated as a zero value, so the
// remaining inputs are renormalized to sum to 1 (§4.6 "weight
// redistributed proportionally").
type weightedInput struct {
	value   float64
	weight  float64
	present bool
}

func composite(inputs ...weightedInput) float64 {
	var sum, totalWeight float64
	for _, in := range inputs {
		if !in.present {
			continue
		}
		sum += in.weight * in.value
		totalWeight += in.weight
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}
