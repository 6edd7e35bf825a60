package transport

import (
	"bytes"
	"testing"

	"cardiff/internal/telemetry"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := UpstreamPayload{
		Host:     "hostB",
		Counters: map[string]int64{"foo": 5},
		Gauges:   map[string]string{"g1": "+3"},
		Sets:     map[string]map[string]int64{"s1": {"a": 1}},
		Timers:   map[string][]float64{"t1": {1, 2, 3}},
		InternalCounters: map[telemetry.Scope]map[string]map[string]int64{
			telemetry.ScopeController: {"hostB": {"packets_received": 10}},
		},
	}

	encoded, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodeFrame(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Host != in.Host || out.Counters["foo"] != 5 || out.Gauges["g1"] != "+3" {
		t.Fatalf("round-trip mismatch: %+v", out)
	}
	if out.Sets["s1"]["a"] != 1 || len(out.Timers["t1"]) != 3 {
		t.Fatalf("round-trip mismatch for sets/timers: %+v", out)
	}
	if out.InternalCounters[telemetry.ScopeController]["hostB"]["packets_received"] != 10 {
		t.Fatalf("round-trip mismatch for internal counters: %+v", out.InternalCounters)
	}
}

func TestDecodeRejectsBadSentinel(t *testing.T) {
	in := UpstreamPayload{Host: "hostB"}
	encoded, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded[len(encoded)-1] = 0x00

	if _, err := DecodeFrame(bytes.NewReader(encoded)); err == nil {
		t.Fatalf("expected sentinel validation failure")
	}
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	in := UpstreamPayload{Host: "hostB", Counters: map[string]int64{"foo": 1}}
	encoded, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	truncated := encoded[:len(encoded)-5]

	if _, err := DecodeFrame(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("expected truncated frame to error")
	}
}
