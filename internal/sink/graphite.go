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

	"cardiff/internal/aggregator"
	"cardiff/internal/log"
	"cardiff/internal/snapshot"
)

// GraphiteFormat selects Carbon's plaintext or pickle listener protocol.
type GraphiteFormat int

const (
	GraphitePlaintext GraphiteFormat = iota
	GraphitePickle
)

const graphitePickleBatchSize = 300

// GraphiteSink publishes metrics to a Carbon line receiver (plaintext) or
// pickle receiver. It never emits sets: Carbon has no native representation
// for a multiset, and the original daemon silently drops them for this
// backend too.
type GraphiteSink struct {
	Base
	addr          string
	format        GraphiteFormat
	batchSize     int
	prefix        string
	flushInterval float64
	dial          func(network, addr string) (net.Conn, error)
}

// GraphiteSinkOptions configures a GraphiteSink.
type GraphiteSinkOptions struct {
	Addr          string
	Format        GraphiteFormat
	BatchSize     int
	Prefix        string
	FlushInterval float64
}

// NewGraphiteSink returns a GraphiteSink per opts.
func NewGraphiteSink(opts GraphiteSinkOptions) *GraphiteSink {
	if opts.BatchSize <= 0 {
		opts.BatchSize = graphitePickleBatchSize
	}
	if opts.Prefix == "" {
		opts.Prefix = "cardiff"
	}
	return &GraphiteSink{
		addr:          opts.Addr,
		format:        opts.Format,
		batchSize:     opts.BatchSize,
		prefix:        opts.Prefix,
		flushInterval: opts.FlushInterval,
		dial:          net.Dial,
	}
}

// Name identifies this sink in internal telemetry.
func (s *GraphiteSink) Name() string { return "graphite" }

// Deliver renders every counter, gauge and timer as Carbon datapoints and
// sends them in the configured wire format. Connection failures are
// recorded on Base and never propagated.
func (s *GraphiteSink) Deliver(snap snapshot.Snapshot) {
	conn, err := s.dial("tcp", s.addr)
	if err != nil {
		log.Errorf("graphite sink: connecting to %s: %v", s.addr, err)
		s.RecordException()
		return
	}
	defer conn.Close()

	points := s.buildPoints(snap)
	if err := s.send(conn, points); err != nil {
		log.Errorf("graphite sink: sending metrics: %v", err)
		s.RecordException()
	}
}

func (s *GraphiteSink) buildPoints(snap snapshot.Snapshot) []pickleMetric {
	var points []pickleMetric
	ts := snap.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	for key, value := range snap.Counters {
		points = append(points, pickleMetric{Path: s.key("counters", key), Timestamp: ts, Value: float64(value)})
	}
	for key, value := range snap.Gauges {
		points = append(points, pickleMetric{Path: s.key("gauges", key), Timestamp: ts, Value: float64(value)})
	}
	for key, values := range snap.Timers {
		stats := aggregator.TimerValues(values, s.flushInterval)
		points = append(points, s.timerPoints(key, stats, ts)...)
	}

	for scope, hosts := range snap.InternalCounters {
		for host, metrics := range hosts {
			for name, value := range metrics {
				points = append(points, pickleMetric{
					Path:      s.key("internal.counters", string(scope)+"."+host+"."+name),
					Timestamp: ts,
					Value:     float64(value),
				})
			}
		}
	}
	for scope, hosts := range snap.InternalGauges {
		for host, metrics := range hosts {
			for name, value := range metrics {
				points = append(points, pickleMetric{
					Path:      s.key("internal.gauges", string(scope)+"."+host+"."+name),
					Timestamp: ts,
					Value:     float64(value),
				})
			}
		}
	}
	for scope, hosts := range snap.InternalTimers {
		for host, metrics := range hosts {
			for name, values := range metrics {
				stats := aggregator.TimerValues(values, s.flushInterval)
				prefix := "internal.timers." + string(scope) + "." + host
				points = append(points, s.timerPointsPrefixed(prefix, name, stats, ts)...)
			}
		}
	}

	return points
}

func (s *GraphiteSink) timerPoints(key string, stats aggregator.TimerStats, ts int64) []pickleMetric {
	return s.timerPointsPrefixed("timers", key, stats, ts)
}

func (s *GraphiteSink) timerPointsPrefixed(prefix, key string, stats aggregator.TimerStats, ts int64) []pickleMetric {
	base := prefix + "." + key
	return []pickleMetric{
		{Path: s.key(base, "count"), Timestamp: ts, Value: float64(stats.Count)},
		{Path: s.key(base, "count_ps"), Timestamp: ts, Value: stats.CountPS},
		{Path: s.key(base, "min"), Timestamp: ts, Value: stats.Min},
		{Path: s.key(base, "max"), Timestamp: ts, Value: stats.Max},
		{Path: s.key(base, "mean"), Timestamp: ts, Value: stats.Mean},
		{Path: s.key(base, "total"), Timestamp: ts, Value: stats.Total},
		{Path: s.key(base, "median"), Timestamp: ts, Value: stats.Median},
		{Path: s.key(base, "95th"), Timestamp: ts, Value: stats.P95},
		{Path: s.key(base, "90th"), Timestamp: ts, Value: stats.P90},
	}
}

// key joins the configured prefix, a data-type segment already baked into
// base, and a metric name into one dotted Carbon path.
func (s *GraphiteSink) key(base, name string) string {
	return s.prefix + "." + base + "." + name
}

func (s *GraphiteSink) send(conn net.Conn, points []pickleMetric) error {
	switch s.format {
	case GraphitePickle:
		return s.sendPickle(conn, points)
	default:
		return s.sendPlaintext(conn, points)
	}
}

func (s *GraphiteSink) sendPlaintext(conn net.Conn, points []pickleMetric) error {
	for _, p := range points {
		line := fmt.Sprintf("%s %v %d\n", p.Path, p.Value, p.Timestamp)
		if _, err := conn.Write([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func (s *GraphiteSink) sendPickle(conn net.Conn, points []pickleMetric) error {
	for len(points) > 0 {
		batch := points
		if len(batch) > s.batchSize {
			batch = batch[:s.batchSize]
		}
		payload := encodePickleBatch(batch)
		if _, err := conn.Write(lengthPrefix(len(payload))); err != nil {
			return err
		}
		if _, err := conn.Write(payload); err != nil {
			return err
		}
		points = points[len(batch):]
	}
	return nil
}
