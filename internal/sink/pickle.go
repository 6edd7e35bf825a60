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
	"bytes"
	"encoding/binary"
	"math"
)

// pickleMetric is one Carbon pickle-protocol datapoint: (path, (timestamp,
// value)).
type pickleMetric struct {
	Path      string
	Timestamp int64
	Value     float64
}

// Pickle protocol 2 opcodes, per CPython's pickle.py / pickletools.py.
const (
	opProto      = 0x80
	opEmptyList  = ']'
	opMark       = '('
	opAppends    = 'e'
	opTuple2     = 0x86
	opBinInt     = 'J'
	opBinFloat   = 'G'
	opBinUnicode = 'X'
	opStop       = '.'
)

// encodePickleBatch renders a slice of pickleMetric as a Python
// pickle-protocol-2 list of (path, (timestamp, value)) tuples, matching
// what carbon-relay's pickle listener expects. There is no Python pickle
// library in the Go ecosystem this corpus reaches for, so this is a
// minimal hand-rolled writer covering exactly the opcodes Carbon's
// listener needs to decode.
func encodePickleBatch(metrics []pickleMetric) []byte {
	var buf bytes.Buffer
	buf.WriteByte(opProto)
	buf.WriteByte(2)
	buf.WriteByte(opEmptyList)
	buf.WriteByte(opMark)
	for _, m := range metrics {
		writePickleString(&buf, m.Path)
		writePickleInt(&buf, m.Timestamp)
		writePickleFloat(&buf, m.Value)
		buf.WriteByte(opTuple2)
		buf.WriteByte(opTuple2)
	}
	buf.WriteByte(opAppends)
	buf.WriteByte(opStop)
	return buf.Bytes()
}

func writePickleString(buf *bytes.Buffer, s string) {
	buf.WriteByte(opBinUnicode)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writePickleInt(buf *bytes.Buffer, n int64) {
	buf.WriteByte(opBinInt)
	var intBuf [4]byte
	binary.LittleEndian.PutUint32(intBuf[:], uint32(int32(n)))
	buf.Write(intBuf[:])
}

func writePickleFloat(buf *bytes.Buffer, f float64) {
	buf.WriteByte(opBinFloat)
	var floatBuf [8]byte
	binary.BigEndian.PutUint64(floatBuf[:], math.Float64bits(f))
	buf.Write(floatBuf[:])
}

// lengthPrefix is the struct.pack('!L', len(pickled)) frame header Carbon's
// pickle listener reads before each pickled batch.
func lengthPrefix(n int) []byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(n))
	return out[:]
}
