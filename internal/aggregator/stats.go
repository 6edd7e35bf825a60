// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package aggregator

import "sort"

// TimerStats is the set of derived values sinks need for a timer key. Timer
// values are never sorted in-place in live state; callers pass in a copy.
type TimerStats struct {
	Count    int
	CountPS  float64
	Min      float64
	Max      float64
	Mean     float64
	Total    float64
	Median   float64
	P95      float64
	P90      float64
}

// TimerValues computes TimerStats over a sorted copy of values. An empty
// input yields all-zero fields.
func TimerValues(values []float64, flushInterval float64) TimerStats {
	if len(values) == 0 {
		return TimerStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	count := len(sorted)

	return TimerStats{
		Count:   count,
		CountPS: float64(count) / flushInterval,
		Min:     sorted[0],
		Max:     sorted[count-1],
		Mean:    total / float64(count),
		Total:   total,
		Median:  Percentile(sorted, 0.5),
		P95:     Percentile(sorted, 0.95),
		P90:     Percentile(sorted, 0.90),
	}
}

// Percentile returns the linearly-interpolated value at index k=(n-1)*p in
// a sorted sequence. values must already be sorted ascending. An empty
// slice returns 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	k := float64(n-1) * p
	lo := int(k)
	hi := lo
	if frac := k - float64(lo); frac > 0 {
		hi = lo + 1
	}
	if hi >= n {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := k - float64(lo)
	return sorted[lo]*(float64(hi)-k) + sorted[hi]*frac
}

// SetStats is the derived view of a set for delivery to sinks.
type SetStats struct {
	Count     int
	CountPS   float64
	Histogram map[string]int64
	Values    map[string]int64
}

// SetValues computes SetStats for one set's value-occurrence map. An empty
// set yields {Count: 0, CountPS: 0}.
func SetValues(values map[string]int64, flushInterval float64) SetStats {
	if len(values) == 0 {
		return SetStats{}
	}
	hist := make(map[string]int64, len(values))
	for v, count := range values {
		hist[v] += count
	}
	return SetStats{
		Count:     len(values),
		CountPS:   float64(len(values)) / flushInterval,
		Histogram: hist,
		Values:    values,
	}
}
