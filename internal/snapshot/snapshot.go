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

// Package snapshot freezes one flush interval's worth of aggregator and
// telemetry state into an immutable tuple that can be handed to several
// sinks concurrently.
package snapshot

import "cardiff/internal/telemetry"

// Snapshot is the frozen view of one flush interval, ready for delivery.
type Snapshot struct {
	Timestamp int64

	Counters map[string]int64
	Gauges   map[string]int64
	Sets     map[string]map[string]int64
	Timers   map[string][]float64

	InternalCounters map[telemetry.Scope]map[string]map[string]int64
	InternalGauges   map[telemetry.Scope]map[string]map[string]int64
	InternalTimers   map[telemetry.Scope]map[string]map[string][]float64
}

// Clone returns a deep, independent copy of the snapshot so one sink's
// mutation (or slow delivery) can never be observed by another.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Timestamp:        s.Timestamp,
		Counters:         cloneInt64Map(s.Counters),
		Gauges:           cloneInt64Map(s.Gauges),
		Sets:             cloneSetMap(s.Sets),
		Timers:           cloneTimerMap(s.Timers),
		InternalCounters: cloneScopeIntMap(s.InternalCounters),
		InternalGauges:   cloneScopeIntMap(s.InternalGauges),
		InternalTimers:   cloneScopeTimerMap(s.InternalTimers),
	}
}

func cloneInt64Map(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSetMap(m map[string]map[string]int64) map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(m))
	for k, v := range m {
		out[k] = cloneInt64Map(v)
	}
	return out
}

func cloneTimerMap(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		cp := make([]float64, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func cloneScopeIntMap(m map[telemetry.Scope]map[string]map[string]int64) map[telemetry.Scope]map[string]map[string]int64 {
	out := make(map[telemetry.Scope]map[string]map[string]int64, len(m))
	for scope, hosts := range m {
		hostOut := make(map[string]map[string]int64, len(hosts))
		for host, metrics := range hosts {
			hostOut[host] = cloneInt64Map(metrics)
		}
		out[scope] = hostOut
	}
	return out
}

func cloneScopeTimerMap(m map[telemetry.Scope]map[string]map[string][]float64) map[telemetry.Scope]map[string]map[string][]float64 {
	out := make(map[telemetry.Scope]map[string]map[string][]float64, len(m))
	for scope, hosts := range m {
		hostOut := make(map[string]map[string][]float64, len(hosts))
		for host, metrics := range hosts {
			hostOut[host] = cloneTimerMap(metrics)
		}
		out[scope] = hostOut
	}
	return out
}
