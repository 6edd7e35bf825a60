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
	"cardiff/internal/aggregator"
	"cardiff/internal/log"
	"cardiff/internal/snapshot"
)

// LoggerSink writes every metric as one log line, for development and
// debugging. It never fails, so its Base exception counter stays at zero.
type LoggerSink struct {
	Base
	flushInterval float64
}

// NewLoggerSink returns a LoggerSink reporting rates against
// flushIntervalSeconds.
func NewLoggerSink(flushIntervalSeconds float64) *LoggerSink {
	return &LoggerSink{flushInterval: flushIntervalSeconds}
}

// Name identifies this sink in internal telemetry.
func (s *LoggerSink) Name() string { return "logger" }

// Deliver logs every counter, gauge, set and timer, and then the
// corresponding internal telemetry.
func (s *LoggerSink) Deliver(snap snapshot.Snapshot) {
	s.logCounters(snap.Counters, false)
	s.logGauges(snap.Gauges, false)
	s.logSets(snap.Sets)
	s.logTimers(snap.Timers, false)

	for scope, hosts := range snap.InternalCounters {
		for host, metrics := range hosts {
			log.Infof("internal counters scope=%s host=%s", scope, host)
			s.logCounters(metrics, true)
		}
	}
	for scope, hosts := range snap.InternalGauges {
		for host, metrics := range hosts {
			log.Infof("internal gauges scope=%s host=%s", scope, host)
			s.logGauges(metrics, true)
		}
	}
	for scope, hosts := range snap.InternalTimers {
		for host, metrics := range hosts {
			log.Infof("internal timers scope=%s host=%s", scope, host)
			s.logTimers(metrics, true)
		}
	}
}

func (s *LoggerSink) logCounters(counters map[string]int64, internal bool) {
	for key, value := range counters {
		if internal {
			log.Infof("internal counter %s=%d", key, value)
		} else {
			log.Infof("counter %s=%d", key, value)
		}
	}
}

func (s *LoggerSink) logGauges(gauges map[string]int64, internal bool) {
	for key, value := range gauges {
		if internal {
			log.Infof("internal gauge %s=%d", key, value)
		} else {
			log.Infof("gauge %s=%d", key, value)
		}
	}
}

func (s *LoggerSink) logSets(sets map[string]map[string]int64) {
	for key, stats := range sets {
		derived := aggregator.SetValues(stats, s.flushInterval)
		for value, count := range derived.Values {
			log.Infof("set %s %s=%d", key, value, count)
		}
	}
}

func (s *LoggerSink) logTimers(timers map[string][]float64, internal bool) {
	for key, values := range timers {
		stats := aggregator.TimerValues(values, s.flushInterval)
		if internal {
			log.Infof("internal timer %s count=%d mean=%.3f median=%.3f p90=%.3f p95=%.3f", key, stats.Count, stats.Mean, stats.Median, stats.P90, stats.P95)
		} else {
			log.Infof("timer %s count=%d mean=%.3f median=%.3f p90=%.3f p95=%.3f", key, stats.Count, stats.Mean, stats.Median, stats.P90, stats.P95)
		}
	}
}
