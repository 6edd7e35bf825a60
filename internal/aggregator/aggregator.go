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

// Package aggregator holds the in-memory counter/gauge/set/timer state for
// one flush interval and applies parsed samples to it.
//
// Aggregator is not safe for concurrent use. The daemon's single event loop
// owns it exclusively; this matches the "never yield mid-mutation" scheduling
// model described for the ingest and merge paths.
package aggregator

import (
	"strconv"
	"strings"
)

// Aggregator accumulates counters, gauges, sets and timers for the
// duration of one flush interval.
type Aggregator struct {
	counters map[string]int64
	gauges   map[string]int64
	sets     map[string]map[string]int64
	timers   map[string][]float64
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		sets:     make(map[string]map[string]int64),
		timers:   make(map[string][]float64),
	}
}

// ApplyCounter increments counters[key] by int(value) * (1/rate). rate must
// be in (0, 1]; callers should default it to 1.
func (a *Aggregator) ApplyCounter(key string, value string, rate float64) {
	if rate <= 0 {
		rate = 1
	}
	n := parseIntPrefix(value)
	a.counters[key] += int64(float64(n) * (1 / rate))
}

// ApplyGauge replaces gauges[key] with value, unless value is signed
// ("+N"/"-N"), in which case it is added to the current value (treated as 0
// if the key is new). The sign is part of the sample, never the key.
func (a *Aggregator) ApplyGauge(key string, value string) {
	if value == "" {
		return
	}
	if value[0] == '+' || value[0] == '-' {
		delta := parseIntPrefix(value)
		a.gauges[key] += delta
		return
	}
	a.gauges[key] = parseIntPrefix(value)
}

// ApplySet records one occurrence of value in the set named key.
func (a *Aggregator) ApplySet(key string, value string) {
	set, ok := a.sets[key]
	if !ok {
		set = make(map[string]int64)
		a.sets[key] = set
	}
	set[value]++
}

// ApplyTimer appends value to timers[key], repeated max(1, int(sampleSize))
// times.
func (a *Aggregator) ApplyTimer(key string, value string, sampleSize float64) {
	n := int(sampleSize)
	if n < 1 {
		n = 1
	}
	f, _ := strconv.ParseFloat(value, 64)
	for i := 0; i < n; i++ {
		a.timers[key] = append(a.timers[key], f)
	}
}

// MergeCounter applies an upstream counter value directly (rate 1).
func (a *Aggregator) MergeCounter(key string, value int64) {
	a.counters[key] += value
}

// MergeGauge applies an upstream gauge sample. Upstream payloads always
// sign their gauges (including "0" for no-op), so this goes through the
// same sign-detecting path as a locally-ingested sample.
func (a *Aggregator) MergeGauge(key string, signedValue string) {
	a.ApplyGauge(key, signedValue)
}

// MergeSet additively unions an upstream value-occurrence map into the
// local set for key.
func (a *Aggregator) MergeSet(key string, values map[string]int64) {
	set, ok := a.sets[key]
	if !ok {
		set = make(map[string]int64, len(values))
		a.sets[key] = set
	}
	for v, count := range values {
		set[v] += count
	}
}

// MergeTimer extends the local timer sequence for key with remote samples.
func (a *Aggregator) MergeTimer(key string, values []float64) {
	a.timers[key] = append(a.timers[key], values...)
}

// Snapshot drains all four live maps into independent copies and resets
// the Aggregator's live state to empty maps. After Snapshot returns, all
// four public maps are empty.
func (a *Aggregator) Snapshot() (counters map[string]int64, gauges map[string]int64, sets map[string]map[string]int64, timers map[string][]float64) {
	counters, a.counters = a.counters, make(map[string]int64)
	gauges, a.gauges = a.gauges, make(map[string]int64)
	sets, a.sets = a.sets, make(map[string]map[string]int64)
	timers, a.timers = a.timers, make(map[string][]float64)
	return
}

// parseIntPrefix parses value as an integer, dropping any leading '+' and
// tolerating a fractional part (the wire format allows float-looking
// values for counters/gauges; we truncate toward zero, matching Python's
// int() conversion).
func parseIntPrefix(value string) int64 {
	v := strings.TrimPrefix(value, "+")
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f)
	}
	return 0
}
