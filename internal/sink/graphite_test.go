package sink

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"cardiff/internal/snapshot"
)

func startFakeCarbon(t *testing.T) (addr string, received chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	received = make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), received
}

func TestGraphiteSinkPlaintextFormat(t *testing.T) {
	addr, received := startFakeCarbon(t)
	s := NewGraphiteSink(GraphiteSinkOptions{Addr: addr, Format: GraphitePlaintext, FlushInterval: 10, Prefix: "cardiff"})

	snap := snapshot.Snapshot{
		Timestamp: 1700000000,
		Counters:  map[string]int64{"foo": 5},
		Gauges:    map[string]int64{"bar": 2},
	}
	s.Deliver(snap)

	select {
	case data := <-received:
		text := string(data)
		if !strings.Contains(text, "cardiff.counters.foo 5 1700000000") {
			t.Fatalf("expected plaintext counter line, got %q", text)
		}
		if !strings.Contains(text, "cardiff.gauges.bar 2 1700000000") {
			t.Fatalf("expected plaintext gauge line, got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for carbon payload")
	}
}

func TestGraphiteSinkOmitsSets(t *testing.T) {
	addr, received := startFakeCarbon(t)
	s := NewGraphiteSink(GraphiteSinkOptions{Addr: addr, Format: GraphitePlaintext, FlushInterval: 10})

	snap := snapshot.Snapshot{
		Timestamp: 1700000000,
		Sets:      map[string]map[string]int64{"s1": {"a": 1}},
	}
	s.Deliver(snap)

	select {
	case data := <-received:
		if strings.Contains(string(data), "s1") {
			t.Fatalf("expected graphite sink to omit sets entirely, got %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for carbon payload")
	}
}

func TestGraphiteSinkPickleFraming(t *testing.T) {
	addr, received := startFakeCarbon(t)
	s := NewGraphiteSink(GraphiteSinkOptions{Addr: addr, Format: GraphitePickle, FlushInterval: 10})

	snap := snapshot.Snapshot{
		Timestamp: 1700000000,
		Counters:  map[string]int64{"foo": 5},
	}
	s.Deliver(snap)

	select {
	case data := <-received:
		r := bufio.NewReader(strings.NewReader(string(data)))
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			t.Fatalf("expected 4-byte length prefix, got error: %v", err)
		}
		size := int(lenBuf[0])<<24 | int(lenBuf[1])<<16 | int(lenBuf[2])<<8 | int(lenBuf[3])
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			t.Fatalf("expected pickle body of %d bytes: %v", size, err)
		}
		if body[0] != opProto {
			t.Fatalf("expected pickle body to start with PROTO opcode")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for carbon payload")
	}
}

func TestGraphiteSinkRecordsExceptionOnDialFailure(t *testing.T) {
	s := NewGraphiteSink(GraphiteSinkOptions{Addr: "127.0.0.1:0", Format: GraphitePlaintext, FlushInterval: 10})
	s.dial = func(network, addr string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Err: io.ErrClosedPipe}
	}
	s.Deliver(snapshot.Snapshot{Counters: map[string]int64{"foo": 1}})
	if s.Exceptions() != 1 {
		t.Fatalf("expected one recorded exception, got %d", s.Exceptions())
	}
}
