package obsmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePacketReceivedIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(packetsReceivedTotal)
	ObservePacketReceived()
	after := testutil.ToFloat64(packetsReceivedTotal)
	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestObserveBadLinesIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(badLinesTotal)
	ObserveBadLines(0)
	ObserveBadLines(-5)
	after := testutil.ToFloat64(badLinesTotal)
	if after != before {
		t.Fatalf("expected non-positive counts to be ignored, got %v -> %v", before, after)
	}
}

func TestObserveSinkExceptionLabelsByName(t *testing.T) {
	before := testutil.ToFloat64(sinkExceptionsTotal.WithLabelValues("graphite"))
	ObserveSinkException("graphite")
	after := testutil.ToFloat64(sinkExceptionsTotal.WithLabelValues("graphite"))
	if after != before+1 {
		t.Fatalf("expected labeled counter to increment, got %v -> %v", before, after)
	}
}

func TestObserveFlushDurationDoesNotPanic(t *testing.T) {
	ObserveFlushDuration(250 * time.Millisecond)
}
