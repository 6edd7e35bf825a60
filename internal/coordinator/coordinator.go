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

// Package coordinator owns the periodic flush: sample resource usage,
// snapshot the aggregator and telemetry, and fan the result out to every
// configured sink concurrently.
package coordinator

import (
	"sync"
	"sync/atomic"
	"time"

	"cardiff/internal/aggregator"
	"cardiff/internal/line"
	"cardiff/internal/log"
	"cardiff/internal/obsmetrics"
	"cardiff/internal/rusage"
	"cardiff/internal/sink"
	"cardiff/internal/snapshot"
	"cardiff/internal/telemetry"
	"cardiff/internal/transport"
)

// queueDepth bounds how many pending datagrams or upstream payloads the
// flush loop will buffer before a producer starts dropping work rather
// than blocking on a busy event loop.
const queueDepth = 4096

// Coordinator owns agg and tel. Every mutation of either one happens on
// the single goroutine running flushLoop: IngestDatagram and
// MergeUpstream only enqueue work, they never touch agg or tel
// themselves, which is what lets UDP ingest, upstream TCP accepts and
// the periodic flush all feed the same state without a data race.
type Coordinator struct {
	host          string
	flushInterval time.Duration
	agg           *aggregator.Aggregator
	tel           *telemetry.Telemetry
	sinks         []sink.Sink

	ingestChan chan []byte
	mergeChan  chan transport.UpstreamPayload

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// New returns a Coordinator that flushes agg/tel to sinks every
// flushInterval.
func New(host string, flushInterval time.Duration, agg *aggregator.Aggregator, tel *telemetry.Telemetry, sinks []sink.Sink) *Coordinator {
	return &Coordinator{
		host:          host,
		flushInterval: flushInterval,
		agg:           agg,
		tel:           tel,
		sinks:         sinks,
		ingestChan:    make(chan []byte, queueDepth),
		mergeChan:     make(chan transport.UpstreamPayload, queueDepth),
		stopChan:      make(chan struct{}),
	}
}

// IngestDatagram enqueues a raw UDP datagram for parsing and application
// on the flush loop's goroutine. Safe to call from any goroutine; drops
// and logs rather than blocking if the queue is full.
func (c *Coordinator) IngestDatagram(data []byte) {
	select {
	case c.ingestChan <- data:
	default:
		log.Warnf("ingest queue full, dropping datagram")
	}
}

// MergeUpstream enqueues a downstream controller's flush for merging on
// the flush loop's goroutine. Safe to call from any goroutine; drops and
// logs rather than blocking if the queue is full.
func (c *Coordinator) MergeUpstream(payload transport.UpstreamPayload) {
	select {
	case c.mergeChan <- payload:
	default:
		log.Warnf("merge queue full, dropping upstream payload from %s", payload.Host)
	}
}

// Start launches the background flush loop.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.flushLoop()
	}()
}

// Stop signals the flush loop to perform one final flush and exit,
// blocking until it has done so.
func (c *Coordinator) Stop() {
	if !atomic.CompareAndSwapUint32(&c.stopped, 0, 1) {
		return
	}
	close(c.stopChan)
	c.wg.Wait()
}

func (c *Coordinator) flushLoop() {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush()
		case data := <-c.ingestChan:
			c.applyDatagram(data)
		case payload := <-c.mergeChan:
			c.applyUpstream(payload)
		case <-c.stopChan:
			c.Flush()
			return
		}
	}
}

// applyDatagram decodes one UDP datagram and applies every sample it
// contains to agg. Only called from flushLoop's goroutine.
func (c *Coordinator) applyDatagram(data []byte) {
	c.tel.Incr(telemetry.ScopeController, telemetry.PacketsReceived, 1)

	result := line.ParseDatagram(data)
	if result.BadLines > 0 {
		obsmetrics.ObserveBadLines(result.BadLines)
		c.tel.Incr(telemetry.ScopeController, telemetry.BadLinesSeen, int64(result.BadLines))
	}
	for _, s := range result.Samples {
		switch s.Kind {
		case line.Counter:
			c.agg.ApplyCounter(s.Key, s.Value, s.Rate)
			c.tel.Incr(telemetry.ScopeController, telemetry.Counters, 1)
		case line.Gauge:
			c.agg.ApplyGauge(s.Key, s.Value)
			c.tel.Incr(telemetry.ScopeController, telemetry.Gauges, 1)
		case line.Set:
			c.agg.ApplySet(s.Key, s.Value)
			c.tel.Incr(telemetry.ScopeController, telemetry.Sets, 1)
		case line.Timer:
			c.agg.ApplyTimer(s.Key, s.Value, 1/s.Rate)
			c.tel.Incr(telemetry.ScopeController, telemetry.Timers, 1)
		}
	}
}

// applyUpstream folds a downstream controller's flush into agg and tel.
// Only called from flushLoop's goroutine. Bumps
// downstream_packets_received once per merged key and records
// processing_time around the whole merge, per the upstream wire
// protocol's accounting.
func (c *Coordinator) applyUpstream(payload transport.UpstreamPayload) {
	start := time.Now()
	c.tel.Incr(telemetry.ScopeController, telemetry.DownstreamPayloadsReceived, 1)

	for key, value := range payload.Counters {
		c.agg.MergeCounter(key, value)
		c.tel.Incr(telemetry.ScopeController, telemetry.DownstreamPacketsReceived, 1)
	}
	for key, value := range payload.Gauges {
		c.agg.MergeGauge(key, value)
		c.tel.Incr(telemetry.ScopeController, telemetry.DownstreamPacketsReceived, 1)
	}
	for key, values := range payload.Sets {
		c.agg.MergeSet(key, values)
		c.tel.Incr(telemetry.ScopeController, telemetry.DownstreamPacketsReceived, 1)
	}
	for key, values := range payload.Timers {
		c.agg.MergeTimer(key, values)
		c.tel.Incr(telemetry.ScopeController, telemetry.DownstreamPacketsReceived, 1)
	}
	c.tel.Merge(payload.InternalCounters, payload.InternalGauges, payload.InternalTimers)

	c.tel.Timer(telemetry.ScopeController, telemetry.ProcessingTime, start)
}

// Flush samples resource usage, takes a snapshot of the aggregator and
// telemetry, and delivers it to every sink concurrently, blocking until
// all sinks have returned.
func (c *Coordinator) Flush() {
	c.sampleResourceUsage()

	snapshotStart := time.Now()
	snap := c.buildSnapshot()
	c.tel.Timer(telemetry.ScopeController, telemetry.SnapshotTime, snapshotStart)

	deliverStart := time.Now()
	elapsed := make([]time.Duration, len(c.sinks))
	var wg sync.WaitGroup
	for i, s := range c.sinks {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			elapsed[i] = c.deliverOne(s, snap)
		}()
	}
	wg.Wait()
	obsmetrics.ObserveFlushDuration(time.Since(deliverStart))
	now := time.Now()
	for i, s := range c.sinks {
		c.tel.Timer(telemetry.ScopeBackend, telemetry.DeliveryDurationName(s.Name()), now.Add(-elapsed[i]))
	}
	c.tel.Timer(telemetry.ScopeController, telemetry.DeliveryTime, deliverStart)
	log.Debugf("completed stat delivery to %d sinks", len(c.sinks))
}

// deliverOne hands s its own copy of snap and returns how long delivery
// took. It runs on a per-sink goroutine, so it never touches tel; Flush
// records the returned duration once every sink has finished.
func (c *Coordinator) deliverOne(s sink.Sink, snap snapshot.Snapshot) time.Duration {
	start := time.Now()
	log.Debugf("delivering metrics to %s", s.Name())
	ec, counts := s.(interface{ Exceptions() int64 })
	var before int64
	if counts {
		before = ec.Exceptions()
	}
	s.Deliver(snap.Clone())
	if counts {
		for n := ec.Exceptions() - before; n > 0; n-- {
			obsmetrics.ObserveSinkException(s.Name())
		}
	}
	return time.Since(start)
}

func (c *Coordinator) sampleResourceUsage() {
	log.Debugf("adding resource usage")
	u := rusage.Get()
	c.tel.Gauge(telemetry.ScopeController, "blocked_input", u.BlockedInput)
	c.tel.Gauge(telemetry.ScopeController, "blocked_output", u.BlockedOutput)
	c.tel.Gauge(telemetry.ScopeController, "cpu_time_user", int64(u.CPUTimeUserSeconds))
	c.tel.Gauge(telemetry.ScopeController, "cpu_time_system", int64(u.CPUTimeSystemSeconds))
	c.tel.Gauge(telemetry.ScopeController, "memory_usage", u.MaxRSSBytes)
	c.tel.Gauge(telemetry.ScopeController, "forced_context_switches", u.ForcedContextSwitches)
}

func (c *Coordinator) buildSnapshot() snapshot.Snapshot {
	counters, gauges, sets, timers := c.agg.Snapshot()
	intCounters, intGauges, intTimers := c.tel.Snapshot()
	return snapshot.Snapshot{
		Timestamp:        time.Now().Unix(),
		Counters:         counters,
		Gauges:           gauges,
		Sets:             sets,
		Timers:           timers,
		InternalCounters: intCounters,
		InternalGauges:   intGauges,
		InternalTimers:   intTimers,
	}
}
