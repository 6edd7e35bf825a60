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

// Package telemetry tracks the daemon's own operational counters, gauges
// and timers, nested by scope and host so a fleet of controllers can merge
// each other's self-observations without colliding.
//
// Telemetry is not safe for concurrent use, for the same reason Aggregator
// isn't: the event loop is the only writer.
package telemetry

import "time"

// Scope distinguishes metrics the controller produces directly from
// metrics attributed to backend delivery.
type Scope string

const (
	ScopeController Scope = "controller"
	ScopeBackend    Scope = "backend"
)

// Well-known internal metric names.
const (
	BadLinesSeen              = "bad_lines_seen"
	Counters                  = "counters"
	Gauges                    = "gauges"
	Sets                      = "sets"
	Timers                    = "timers"
	PacketsReceived           = "packets_received"
	ProcessingTime            = "processing_time"
	DeliveryTime              = "delivery_time"
	SnapshotTime              = "snapshot_time"
	DownstreamPacketsReceived = "downstream_packets_received"
	DownstreamPayloadsReceived = "downstream_payloads_received"
)

// DeliveryDurationName formats the per-sink delivery timer name.
func DeliveryDurationName(sinkName string) string {
	return "delivery." + sinkName + ".duration_ms"
}

// Telemetry holds internal_counters, internal_gauges and internal_timers,
// each keyed scope -> host -> metric name.
type Telemetry struct {
	host     string
	counters map[Scope]map[string]map[string]int64
	gauges   map[Scope]map[string]map[string]int64
	timers   map[Scope]map[string]map[string][]float64
}

// New returns a Telemetry scaffolded for host, with empty controller and
// backend buckets already present (matching the shape every consumer
// expects, even before anything has been recorded).
func New(host string) *Telemetry {
	t := &Telemetry{host: host}
	t.reset()
	return t
}

func (t *Telemetry) reset() {
	t.counters = newIntScaffold(t.host)
	t.gauges = newIntScaffold(t.host)
	t.timers = map[Scope]map[string]map[string][]float64{
		ScopeController: {t.host: {}},
		ScopeBackend:    {t.host: {}},
	}
}

func newIntScaffold(host string) map[Scope]map[string]map[string]int64 {
	return map[Scope]map[string]map[string]int64{
		ScopeController: {host: {}},
		ScopeBackend:    {host: {}},
	}
}

// Incr increments a named counter in scope by delta.
func (t *Telemetry) Incr(scope Scope, name string, delta int64) {
	t.counters[scope][t.host][name] += delta
}

// Gauge sets a named gauge in scope to value.
func (t *Telemetry) Gauge(scope Scope, name string, value int64) {
	t.gauges[scope][t.host][name] = value
}

// Timer appends the millisecond duration since start to the named timer
// in scope.
func (t *Telemetry) Timer(scope Scope, name string, start time.Time) {
	d := float64(time.Since(start)) / float64(time.Millisecond)
	t.timers[scope][t.host][name] = append(t.timers[scope][t.host][name], d)
}

// Snapshot returns deep-independent copies of the three internal
// structures and resets live state back to an empty per-host scaffold.
func (t *Telemetry) Snapshot() (counters map[Scope]map[string]map[string]int64, gauges map[Scope]map[string]map[string]int64, timers map[Scope]map[string]map[string][]float64) {
	counters = t.counters
	gauges = t.gauges
	timers = t.timers
	t.reset()
	return
}

// Merge folds a remote host's internal counters, gauges and timers into
// this Telemetry's live state, used when an upstream payload arrives. Every
// leaf value is replaced by the incoming one, matching the original
// daemon's merge_dicts (remote always wins at the leaf; there is no
// accumulation across repeated merges for the same host/name).
func (t *Telemetry) Merge(counters map[Scope]map[string]map[string]int64, gauges map[Scope]map[string]map[string]int64, timers map[Scope]map[string]map[string][]float64) {
	mergeInt(t.counters, counters)
	mergeInt(t.gauges, gauges)
	for scope, hosts := range timers {
		dstHosts, ok := t.timers[scope]
		if !ok {
			dstHosts = map[string]map[string][]float64{}
			t.timers[scope] = dstHosts
		}
		for host, metrics := range hosts {
			dstMetrics, ok := dstHosts[host]
			if !ok {
				dstMetrics = map[string][]float64{}
				dstHosts[host] = dstMetrics
			}
			for name, values := range metrics {
				dstMetrics[name] = values
			}
		}
	}
}

func mergeInt(dst map[Scope]map[string]map[string]int64, src map[Scope]map[string]map[string]int64) {
	for scope, hosts := range src {
		dstHosts, ok := dst[scope]
		if !ok {
			dstHosts = map[string]map[string]int64{}
			dst[scope] = dstHosts
		}
		for host, metrics := range hosts {
			dstMetrics, ok := dstHosts[host]
			if !ok {
				dstMetrics = map[string]int64{}
				dstHosts[host] = dstMetrics
			}
			for name, value := range metrics {
				dstMetrics[name] = value
			}
		}
	}
}
