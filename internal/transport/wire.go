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

package transport

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"cardiff/internal/telemetry"
)

// frameEnd is the sentinel byte the Python daemon used to scan for the end
// of an upstream frame (chr(206)). This implementation frames by a
// uint32 length prefix instead and re-purposes frameEnd as a trailing
// checksum-lite marker, validated rather than merely scanned-for.
const frameEnd = 0xCE

// UpstreamPayload is one downstream controller's contribution, merged
// into the upstream controller's own aggregator and telemetry on
// receipt.
type UpstreamPayload struct {
	Host      string
	Timestamp int64

	Counters map[string]int64
	Gauges   map[string]string
	Sets     map[string]map[string]int64
	Timers   map[string][]float64

	InternalCounters map[telemetry.Scope]map[string]map[string]int64
	InternalGauges   map[telemetry.Scope]map[string]map[string]int64
	InternalTimers   map[telemetry.Scope]map[string]map[string][]float64
}

// EncodeFrame serializes payload as a uint32 big-endian length prefix,
// the gob-encoded payload, and a trailing sentinel byte.
func EncodeFrame(payload UpstreamPayload) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding upstream payload: %w", err)
	}

	out := make([]byte, 4, 4+body.Len()+1)
	binary.BigEndian.PutUint32(out, uint32(body.Len()))
	out = append(out, body.Bytes()...)
	out = append(out, frameEnd)
	return out, nil
}

// DecodeFrame reads one length-prefixed frame from r, validates its
// trailing sentinel byte, and decodes the gob payload it wraps.
func DecodeFrame(r io.Reader) (UpstreamPayload, error) {
	var payload UpstreamPayload

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return payload, fmt.Errorf("reading frame length: %w", err)
	}
	size := binary.BigEndian.Uint32(lenBuf[:])

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return payload, fmt.Errorf("reading frame body: %w", err)
	}

	var sentinel [1]byte
	if _, err := io.ReadFull(r, sentinel[:]); err != nil {
		return payload, fmt.Errorf("reading frame sentinel: %w", err)
	}
	if sentinel[0] != frameEnd {
		return payload, fmt.Errorf("invalid frame sentinel: got 0x%x, want 0x%x", sentinel[0], frameEnd)
	}

	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return payload, fmt.Errorf("decoding upstream payload: %w", err)
	}
	return payload, nil
}
