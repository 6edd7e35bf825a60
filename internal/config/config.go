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

// Package config loads the daemon's nested JSON configuration document on
// top of inline defaults. Flag overrides are layered onto the loaded
// document by cmd/cardiffd, following the "flags double as production
// knobs, defaults inline" convention used throughout this codebase's
// command entrypoints.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// StatsdConfig controls the UDP ingest listener.
type StatsdConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// UpstreamConfig controls the TCP merge listener this controller exposes
// to downstream controllers, and, independently, whether this controller
// forwards its own flush to one or more upstream peers.
type UpstreamConfig struct {
	Enabled bool     `json:"enabled"`
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Targets []string `json:"targets"`
}

// DedupConfig controls the optional Redis idempotency guard on inbound
// upstream payloads.
type DedupConfig struct {
	Enabled  bool   `json:"enabled"`
	RedisURL string `json:"redis_url"`
	MarkerTTLSeconds int `json:"marker_ttl_seconds"`
}

// ObsMetricsConfig controls the standalone operational Prometheus
// endpoint.
type ObsMetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// BackendConfig is one sink's configuration block; the shape of Options
// depends on Type ("logger", "statsd", "graphite", "graphite_pickle",
// "amqp", "upstream").
type BackendConfig struct {
	Type    string                 `json:"type"`
	Options map[string]interface{} `json:"options"`
}

// Config is the full daemon configuration document.
type Config struct {
	FlushInterval int              `json:"flush_interval"`
	Statsd        StatsdConfig     `json:"statsd"`
	Upstream      UpstreamConfig   `json:"upstream"`
	Dedup         DedupConfig      `json:"dedup"`
	ObsMetrics    ObsMetricsConfig `json:"obsmetrics"`
	Backends      []BackendConfig  `json:"backends"`
}

// Defaults mirrors the Python daemon's module-level constants.
func Defaults() Config {
	return Config{
		FlushInterval: 300,
		Statsd: StatsdConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8125,
		},
		Upstream: UpstreamConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8126,
		},
	}
}

// Load reads and parses a JSON configuration document at path, starting
// from Defaults so a partial document only overrides what it specifies.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
