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
	"time"

	"cardiff/internal/log"
	"cardiff/internal/shard"
	"cardiff/internal/snapshot"
	"cardiff/internal/transport"
)

// UpstreamSink forwards a whole flush interval's snapshot to one or more
// upstream Cardiff controllers for merging. When more than one target is
// configured, each metric key is routed to exactly one target by
// rendezvous hashing so re-aggregating them upstream stays balanced.
type UpstreamSink struct {
	Base
	host   string
	router *shard.Router
	dial   func(addr string) (net.Conn, error)
}

// NewUpstreamSink returns an UpstreamSink reporting as host and fanning
// out across targets.
func NewUpstreamSink(host string, targets []string) *UpstreamSink {
	return &UpstreamSink{
		host:   host,
		router: shard.NewRouter(targets),
		dial:   func(addr string) (net.Conn, error) { return net.DialTimeout("tcp", addr, 5*time.Second) },
	}
}

// Name identifies this sink in internal telemetry.
func (s *UpstreamSink) Name() string { return "upstream" }

// Deliver partitions the snapshot's keys across configured targets and
// sends one framed payload per target.
func (s *UpstreamSink) Deliver(snap snapshot.Snapshot) {
	byTarget := s.partition(snap)
	for target, payload := range byTarget {
		if err := s.send(target, payload); err != nil {
			log.Errorf("upstream sink: sending to %s: %v", target, err)
			s.RecordException()
		}
	}
}

func (s *UpstreamSink) partition(snap snapshot.Snapshot) map[string]transport.UpstreamPayload {
	out := map[string]transport.UpstreamPayload{}

	for key, value := range snap.Counters {
		target := s.router.Peer(key)
		p := out[target]
		if p.Counters == nil {
			p = newPayload(s.host)
		}
		p.Counters[key] = value
		out[target] = p
	}
	for key, value := range snap.Gauges {
		target := s.router.Peer(key)
		p := out[target]
		if p.Counters == nil {
			p = newPayload(s.host)
		}
		p.Gauges[key] = signGauge(value)
		out[target] = p
	}
	for key, values := range snap.Sets {
		target := s.router.Peer(key)
		p := out[target]
		if p.Counters == nil {
			p = newPayload(s.host)
		}
		p.Sets[key] = values
		out[target] = p
	}
	for key, values := range snap.Timers {
		target := s.router.Peer(key)
		p := out[target]
		if p.Counters == nil {
			p = newPayload(s.host)
		}
		p.Timers[key] = values
		out[target] = p
	}

	if len(out) == 0 {
		for _, target := range s.router.Peers() {
			out[target] = newPayload(s.host)
		}
	}

	for target, p := range out {
		p.Timestamp = snap.Timestamp
		p.InternalCounters = snap.InternalCounters
		p.InternalGauges = snap.InternalGauges
		p.InternalTimers = snap.InternalTimers
		out[target] = p
	}

	return out
}

func newPayload(host string) transport.UpstreamPayload {
	return transport.UpstreamPayload{
		Host:     host,
		Counters: map[string]int64{},
		Gauges:   map[string]string{},
		Sets:     map[string]map[string]int64{},
		Timers:   map[string][]float64{},
	}
}

// signGauge renders a gauge value as the signed string the upstream merge
// path expects (so a receiving controller routes it through the same
// sign-detecting gauge-merge logic as a locally-ingested sample).
func signGauge(value int64) string {
	switch {
	case value < 0:
		return fmt.Sprintf("%d", value)
	case value > 0:
		return fmt.Sprintf("+%d", value)
	default:
		return "0"
	}
}

func (s *UpstreamSink) send(target string, payload transport.UpstreamPayload) error {
	frame, err := transport.EncodeFrame(payload)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	conn, err := s.dial(target)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", target, err)
	}
	defer conn.Close()

	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
