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

// Package main runs cardiffd, a statsd-compatible metrics aggregation
// daemon: it listens for UDP samples, aggregates them for one flush
// interval, and delivers the result to every configured sink.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardiff/internal/aggregator"
	"cardiff/internal/config"
	"cardiff/internal/coordinator"
	"cardiff/internal/dedup"
	"cardiff/internal/log"
	"cardiff/internal/obsmetrics"
	"cardiff/internal/sink"
	"cardiff/internal/telemetry"
	"cardiff/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON configuration document; flags below override its top-level fields when set")
	statsdHost := flag.String("statsd_host", "", "UDP listen host for statsd ingest (overrides config)")
	statsdPort := flag.Int("statsd_port", 0, "UDP listen port for statsd ingest (overrides config)")
	upstreamHost := flag.String("upstream_host", "", "TCP listen host for the upstream merge server (overrides config)")
	upstreamPort := flag.Int("upstream_port", 0, "TCP listen port for the upstream merge server (overrides config)")
	flushInterval := flag.Int("flush_interval", 0, "Seconds between flushes (overrides config)")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose operational Prometheus /metrics on this address (overrides config)")
	hostname := flag.String("hostname", "", "Identity this daemon reports in self-telemetry (defaults to os.Hostname); upstream sink payloads always report os.Hostname")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardiffd: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(&cfg, *statsdHost, *statsdPort, *upstreamHost, *upstreamPort, *flushInterval, *metricsAddr)

	host := *hostname
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host = h
		} else {
			host = "unknown"
		}
	}

	agg := aggregator.New()
	tel := telemetry.New(host)
	sinks := buildSinks(cfg)

	coord := coordinator.New(host, time.Duration(cfg.FlushInterval)*time.Second, agg, tel, sinks)
	coord.Start()

	if cfg.ObsMetrics.Enabled {
		go func() {
			log.Infof("serving operational metrics on %s", cfg.ObsMetrics.Addr)
			if err := obsmetrics.Serve(cfg.ObsMetrics.Addr); err != nil {
				log.Errorf("operational metrics server stopped: %v", err)
			}
		}()
	}

	var udpServer *transport.UDPServer
	if cfg.Statsd.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Statsd.Host, cfg.Statsd.Port)
		udpServer, err = transport.ListenUDP(addr, func(data []byte) {
			obsmetrics.ObservePacketReceived()
			coord.IngestDatagram(data)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "cardiffd: listening for statsd UDP: %v\n", err)
			os.Exit(1)
		}
		go udpServer.Start()
	}

	dedupGuard := buildDedupGuard(cfg)

	var upstreamServer *transport.UpstreamServer
	if cfg.Upstream.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Upstream.Host, cfg.Upstream.Port)
		upstreamServer, err = transport.ListenUpstream(addr, func(payload transport.UpstreamPayload) {
			obsmetrics.ObserveUpstreamPayload()
			if dedupGuard != nil {
				seen, err := dedupGuard.Seen(context.Background(), payload.Host, payload.Timestamp)
				if err != nil {
					log.Errorf("dedup check for host %s: %v", payload.Host, err)
				} else if seen {
					log.Warnf("dropping duplicate upstream payload from host %s, epoch %d", payload.Host, payload.Timestamp)
					return
				}
			}
			coord.MergeUpstream(payload)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "cardiffd: listening for upstream TCP: %v\n", err)
			os.Exit(1)
		}
		go upstreamServer.Start()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Infof("shutting down")
	if udpServer != nil {
		udpServer.Close()
	}
	if upstreamServer != nil {
		upstreamServer.Close()
	}
	coord.Stop()
	log.Infof("final flush complete, exiting")
}

// applyFlagOverrides layers non-zero flag values on top of the loaded
// configuration document; an unset flag (the flag package's zero value)
// leaves the document's value untouched.
func applyFlagOverrides(cfg *config.Config, statsdHost string, statsdPort int, upstreamHost string, upstreamPort int, flushInterval int, metricsAddr string) {
	if statsdHost != "" {
		cfg.Statsd.Host = statsdHost
	}
	if statsdPort != 0 {
		cfg.Statsd.Port = statsdPort
	}
	if upstreamHost != "" {
		cfg.Upstream.Host = upstreamHost
	}
	if upstreamPort != 0 {
		cfg.Upstream.Port = upstreamPort
	}
	if flushInterval != 0 {
		cfg.FlushInterval = flushInterval
	}
	if metricsAddr != "" {
		cfg.ObsMetrics.Enabled = true
		cfg.ObsMetrics.Addr = metricsAddr
	}
}

// buildDedupGuard constructs the Redis-backed idempotency guard for
// inbound upstream payloads when cfg.Dedup.Enabled, or returns nil when
// dedup is off (the default: it's an opt-in safety net, not a
// correctness requirement).
func buildDedupGuard(cfg config.Config) *dedup.Guard {
	if !cfg.Dedup.Enabled {
		return nil
	}
	evaler, err := dedup.NewGoRedisEvaler(cfg.Dedup.RedisURL)
	if err != nil {
		log.Errorf("dedup enabled but redis client could not be built, disabling dedup: %v", err)
		return nil
	}
	ttl := time.Duration(cfg.Dedup.MarkerTTLSeconds) * time.Second
	return dedup.NewGuard(evaler, ttl)
}

// buildSinks constructs one sink.Sink per entry in cfg.Backends.
// Unrecognized backend types are logged and skipped rather than treated
// as a fatal configuration error, so one bad entry doesn't prevent the
// rest of the daemon from starting.
func buildSinks(cfg config.Config) []sink.Sink {
	sinks := make([]sink.Sink, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		s := buildSink(b, cfg)
		if s == nil {
			continue
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		log.Warnf("no backends configured, falling back to the logger sink")
		sinks = append(sinks, sink.NewLoggerSink(float64(cfg.FlushInterval)))
	}
	return sinks
}

func buildSink(b config.BackendConfig, cfg config.Config) sink.Sink {
	opt := func(key string) string {
		v, _ := b.Options[key].(string)
		return v
	}

	switch b.Type {
	case "logger":
		return sink.NewLoggerSink(float64(cfg.FlushInterval))
	case "statsd":
		return sink.NewStatsdSink(opt("addr"))
	case "graphite":
		return sink.NewGraphiteSink(sink.GraphiteSinkOptions{
			Addr:          opt("addr"),
			Format:        sink.GraphitePlaintext,
			Prefix:        opt("prefix"),
			FlushInterval: float64(cfg.FlushInterval),
		})
	case "graphite_pickle":
		return sink.NewGraphiteSink(sink.GraphiteSinkOptions{
			Addr:          opt("addr"),
			Format:        sink.GraphitePickle,
			Prefix:        opt("prefix"),
			FlushInterval: float64(cfg.FlushInterval),
		})
	case "amqp":
		return sink.NewAMQPSink(sink.AMQPSinkOptions{
			Addr:          opt("addr"),
			User:          opt("user"),
			Password:      opt("password"),
			Exchange:      opt("exchange"),
			Prefix:        opt("prefix"),
			FlushInterval: float64(cfg.FlushInterval),
		})
	case "upstream":
		return sink.NewUpstreamSink(hostnameOrDefault(), cfg.Upstream.Targets)
	default:
		log.Warnf("unrecognized backend type %q, skipping", b.Type)
		return nil
	}
}

func hostnameOrDefault() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
