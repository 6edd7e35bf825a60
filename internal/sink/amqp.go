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
	"time"

	"cardiff/internal/aggregator"
	"cardiff/internal/log"
	"cardiff/internal/snapshot"
)

// AMQP091Publisher is the minimal surface AMQPSink needs from a broker
// connection. WireClient satisfies it; tests substitute a recording fake.
type AMQP091Publisher interface {
	Publish(routingKey string, properties []tableField, body []byte) error
	Close() error
}

// AMQPSink publishes every metric as an individual message, routed by a
// dotted key built the same way the Graphite sink builds its paths.
type AMQPSink struct {
	Base
	addr          string
	user          string
	password      string
	exchange      string
	prefix        string
	flushInterval float64
	connect       func() (AMQP091Publisher, error)
}

// AMQPSinkOptions configures an AMQPSink.
type AMQPSinkOptions struct {
	Addr          string
	User          string
	Password      string
	Exchange      string
	Prefix        string
	FlushInterval float64
}

// NewAMQPSink returns an AMQPSink per opts.
func NewAMQPSink(opts AMQPSinkOptions) *AMQPSink {
	if opts.Prefix == "" {
		opts.Prefix = "cardiff"
	}
	if opts.User == "" {
		opts.User = "guest"
	}
	if opts.Password == "" {
		opts.Password = "guest"
	}
	s := &AMQPSink{
		addr:          opts.Addr,
		user:          opts.User,
		password:      opts.Password,
		exchange:      opts.Exchange,
		prefix:        opts.Prefix,
		flushInterval: opts.FlushInterval,
	}
	s.connect = func() (AMQP091Publisher, error) {
		return DialWireClient(s.addr, s.user, s.password, s.exchange)
	}
	return s
}

// Name identifies this sink in internal telemetry.
func (s *AMQPSink) Name() string { return "amqp" }

// Deliver publishes every counter, gauge and timer as its own message.
// Timer messages carry message_type "counters", not "timers" — a fidelity
// bug in the original daemon's send_timers (it hardcodes the counter
// metric-type constant), preserved here rather than silently fixed.
func (s *AMQPSink) Deliver(snap snapshot.Snapshot) {
	conn, err := s.connect()
	if err != nil {
		log.Errorf("amqp sink: connecting: %v", err)
		s.RecordException()
		return
	}
	defer conn.Close()

	ts := time.Unix(snap.Timestamp, 0)
	if snap.Timestamp == 0 {
		ts = time.Now()
	}

	if err := s.publishAll(conn, snap, ts); err != nil {
		log.Errorf("amqp sink: publishing: %v", err)
		s.RecordException()
	}
}

func (s *AMQPSink) publishAll(conn AMQP091Publisher, snap snapshot.Snapshot, ts time.Time) error {
	for key, value := range snap.Counters {
		if err := s.publishOne(conn, "counters", key, "counters", fmt.Sprintf("%d", value), ts); err != nil {
			return err
		}
	}
	for key, value := range snap.Gauges {
		if err := s.publishOne(conn, "gauges", key, "gauges", fmt.Sprintf("%d", value), ts); err != nil {
			return err
		}
	}
	for key, values := range snap.Timers {
		stats := aggregator.TimerValues(values, s.flushInterval)
		// message_type is "counters" here to match the original bug.
		if err := s.publishOne(conn, "timers", key, "counters", fmt.Sprintf("%.3f", stats.Mean), ts); err != nil {
			return err
		}
	}
	return nil
}

func (s *AMQPSink) publishOne(conn AMQP091Publisher, typePrefix, key, messageType, body string, ts time.Time) error {
	routingKey := s.prefix + "." + typePrefix + "." + key
	properties := []tableField{
		{name: "app_id", value: strVal("cardiff")},
		{name: "content-type", value: strVal("text/plain")},
		{name: "message_type", value: strVal(messageType)},
		{name: "timestamp", value: timeVal(ts)},
	}
	return conn.Publish(routingKey, properties, []byte(body))
}
