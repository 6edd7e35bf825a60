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

// Package obsmetrics exposes operational metrics about the daemon itself
// (packets received, bad lines, flush duration, per-sink failures) on a
// standalone Prometheus endpoint. This is distinct from the statsd
// self-telemetry tracked in internal/telemetry, which flows to the
// configured sinks like any other metric; these are for operators running
// their own Prometheus scrape against the daemon process.
package obsmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	packetsReceivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardiff_packets_received_total",
		Help: "Total number of statsd packets received over UDP.",
	})
	badLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardiff_bad_lines_total",
		Help: "Total number of malformed statsd lines discarded.",
	})
	flushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cardiff_flush_duration_seconds",
		Help:    "Distribution of time spent delivering one flush to all sinks.",
		Buckets: prometheus.DefBuckets,
	})
	sinkExceptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardiff_sink_exceptions_total",
		Help: "Total number of delivery failures, per sink.",
	}, []string{"sink"})
	upstreamPayloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardiff_upstream_payloads_received_total",
		Help: "Total number of upstream merge payloads received.",
	})
)

func init() {
	prometheus.MustRegister(
		packetsReceivedTotal,
		badLinesTotal,
		flushDuration,
		sinkExceptionsTotal,
		upstreamPayloadsTotal,
	)
}

// ObservePacketReceived records one inbound UDP datagram.
func ObservePacketReceived() {
	packetsReceivedTotal.Inc()
}

// ObserveBadLines adds n malformed lines to the running total.
func ObserveBadLines(n int) {
	if n <= 0 {
		return
	}
	badLinesTotal.Add(float64(n))
}

// ObserveFlushDuration records how long one full flush-to-all-sinks cycle
// took.
func ObserveFlushDuration(d time.Duration) {
	flushDuration.Observe(d.Seconds())
}

// ObserveSinkException records one delivery failure for the named sink.
func ObserveSinkException(sinkName string) {
	sinkExceptionsTotal.WithLabelValues(sinkName).Inc()
}

// ObserveUpstreamPayload records one inbound upstream merge payload.
func ObserveUpstreamPayload() {
	upstreamPayloadsTotal.Inc()
}

// Serve starts a standalone HTTP server exposing /metrics on addr. It
// blocks until the server stops; callers typically run it in its own
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return server.ListenAndServe()
}
