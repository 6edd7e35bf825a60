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

// cardiff-loadgen fires a mix of counters, gauges and timers at a statsd
// UDP listener so a running cardiffd can be exercised without a real
// application in front of it.
//
// Modes:
//   - burst:    send one randomized batch of counters/gauges/timers and exit
//   - sustain:  repeat bursts, sleeping a random interval between each,
//     matching the original daemon's sample traffic generator
//
// Usage examples:
//
//	cardiff-loadgen -addr=127.0.0.1:8125 -mode=burst
//	cardiff-loadgen -addr=127.0.0.1:8125 -mode=sustain -sleep_max=15s
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8125", "statsd UDP listener address")
	mode := flag.String("mode", "burst", "Traffic mode: burst|sustain")
	prefix := flag.String("prefix", "cardiff.test", "Key prefix for generated metrics")
	counterKeys := flag.Int("counters", 200, "Max distinct counter keys per burst (actual count is randomized up to this)")
	gaugeKeys := flag.Int("gauges", 100, "Number of gauge keys per burst")
	timerKeys := flag.Int("timers", 100, "Number of timer keys per burst")
	timerSamplesMax := flag.Int("timer_samples", 100, "Max timer samples per key per burst (actual count is randomized up to this)")
	sleepMax := flag.Duration("sleep_max", 15*time.Second, "Max random sleep between bursts in sustain mode")
	flag.Parse()

	conn, err := net.Dial("udp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardiff-loadgen: dialing %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	opts := burstOptions{
		prefix:          *prefix,
		counterKeys:     *counterKeys,
		gaugeKeys:       *gaugeKeys,
		timerKeys:       *timerKeys,
		timerSamplesMax: *timerSamplesMax,
	}

	switch *mode {
	case "burst":
		sendBurst(conn, opts)
	case "sustain":
		for {
			sendBurst(conn, opts)
			fmt.Println("sleeping")
			time.Sleep(time.Duration(rand.Int63n(int64(*sleepMax) + 1)))
		}
	default:
		fmt.Fprintf(os.Stderr, "cardiff-loadgen: unknown -mode=%s (want burst|sustain)\n", *mode)
		os.Exit(2)
	}
}

type burstOptions struct {
	prefix          string
	counterKeys     int
	gaugeKeys       int
	timerKeys       int
	timerSamplesMax int
}

// sendBurst writes one randomized round of counters, gauges and timers,
// mirroring the original daemon's sample traffic generator: a random
// number of counters, a fixed sweep of gauges, and a random number of
// timer samples per timer key.
func sendBurst(conn net.Conn, opts burstOptions) {
	fmt.Println("sending")

	n := rand.Intn(opts.counterKeys + 1)
	for i := 0; i < n; i++ {
		line := fmt.Sprintf("%s_counter_%d:%d|c", opts.prefix, i, rand.Intn(26))
		send(conn, line)
	}

	for i := 0; i < opts.gaugeKeys; i++ {
		line := fmt.Sprintf("%s_gauge_%d:%d|g", opts.prefix, i, rand.Intn(101))
		send(conn, line)
	}

	for i := 0; i < opts.timerKeys; i++ {
		samples := rand.Intn(opts.timerSamplesMax + 1)
		for j := 0; j < samples; j++ {
			value := float64(rand.Intn(10001)) / 1000
			line := fmt.Sprintf("%s_timing_%d:%.2f|ms", opts.prefix, i, value)
			send(conn, line)
		}
	}
}

func send(conn net.Conn, line string) {
	if _, err := conn.Write([]byte(line)); err != nil {
		fmt.Fprintf(os.Stderr, "cardiff-loadgen: write failed: %v\n", err)
	}
}
