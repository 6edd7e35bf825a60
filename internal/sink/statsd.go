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

package sink

import (
	"fmt"
	"net"

	"cardiff/internal/log"
	"cardiff/internal/snapshot"
)

// StatsdSink re-emits every metric as a statsd line over UDP to another
// statsd-compatible collector. Timers are flattened to a single mean
// sample per key, matching the upstream relay's own lossy behavior.
type StatsdSink struct {
	Base
	addr string
	dial func(addr string) (net.Conn, error)
}

// NewStatsdSink returns a StatsdSink that relays to addr ("host:port").
func NewStatsdSink(addr string) *StatsdSink {
	return &StatsdSink{
		addr: addr,
		dial: func(addr string) (net.Conn, error) { return net.Dial("udp", addr) },
	}
}

// Name identifies this sink in internal telemetry.
func (s *StatsdSink) Name() string { return "statsd" }

// Deliver formats every metric as a statsd line and sends it to the
// configured relay target. Any connection error is recorded on Base and
// never propagated.
func (s *StatsdSink) Deliver(snap snapshot.Snapshot) {
	lines := s.formatCounters(snap.Counters)
	lines = append(lines, s.formatGauges(snap.Gauges)...)
	lines = append(lines, s.formatSets(snap.Sets)...)
	lines = append(lines, s.formatTimers(snap.Timers)...)

	if len(lines) == 0 {
		return
	}

	conn, err := s.dial(s.addr)
	if err != nil {
		log.Errorf("statsd sink: connecting to %s: %v", s.addr, err)
		s.RecordException()
		return
	}
	defer conn.Close()

	for _, line := range lines {
		if _, err := conn.Write([]byte(line)); err != nil {
			log.Errorf("statsd sink: sending stat: %v", err)
			s.RecordException()
			return
		}
	}
}

func (s *StatsdSink) formatCounters(counters map[string]int64) []string {
	out := make([]string, 0, len(counters))
	for key, value := range counters {
		out = append(out, fmt.Sprintf("%s:%d|c", key, value))
	}
	return out
}

func (s *StatsdSink) formatGauges(gauges map[string]int64) []string {
	out := make([]string, 0, len(gauges))
	for key, value := range gauges {
		out = append(out, fmt.Sprintf("%s:%d|g", key, value))
	}
	return out
}

func (s *StatsdSink) formatSets(sets map[string]map[string]int64) []string {
	var out []string
	for key, values := range sets {
		for value := range values {
			out = append(out, fmt.Sprintf("%s:%s|s", key, value))
		}
	}
	return out
}

func (s *StatsdSink) formatTimers(timers map[string][]float64) []string {
	out := make([]string, 0, len(timers))
	for key, values := range timers {
		if len(values) == 0 {
			continue
		}
		var total float64
		for _, v := range values {
			total += v
		}
		mean := total / float64(len(values))
		out = append(out, fmt.Sprintf("%s:%0.3f|ms|%d", key, mean, len(values)))
	}
	return out
}
