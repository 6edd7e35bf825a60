package telemetry

import (
	"testing"
	"time"
)

func TestNewScaffold(t *testing.T) {
	tel := New("hostA")
	counters, gauges, timers := tel.Snapshot()
	for _, scope := range []Scope{ScopeController, ScopeBackend} {
		if _, ok := counters[scope]["hostA"]; !ok {
			t.Fatalf("expected counters scaffold for scope %s", scope)
		}
		if _, ok := gauges[scope]["hostA"]; !ok {
			t.Fatalf("expected gauges scaffold for scope %s", scope)
		}
		if _, ok := timers[scope]["hostA"]; !ok {
			t.Fatalf("expected timers scaffold for scope %s", scope)
		}
	}
}

func TestIncrAndSnapshot(t *testing.T) {
	tel := New("hostA")
	tel.Incr(ScopeController, PacketsReceived, 1)
	tel.Incr(ScopeController, PacketsReceived, 2)
	counters, _, _ := tel.Snapshot()
	if counters[ScopeController]["hostA"][PacketsReceived] != 3 {
		t.Fatalf("expected 3, got %d", counters[ScopeController]["hostA"][PacketsReceived])
	}
}

func TestSnapshotResetsToScaffold(t *testing.T) {
	tel := New("hostA")
	tel.Incr(ScopeController, PacketsReceived, 5)
	tel.Snapshot()
	counters, _, _ := tel.Snapshot()
	if len(counters[ScopeController]["hostA"]) != 0 {
		t.Fatalf("expected empty scaffold after second snapshot, got %+v", counters)
	}
}

func TestGauge(t *testing.T) {
	tel := New("hostA")
	tel.Gauge(ScopeController, "memory_usage", 1024)
	_, gauges, _ := tel.Snapshot()
	if gauges[ScopeController]["hostA"]["memory_usage"] != 1024 {
		t.Fatalf("unexpected gauge value: %+v", gauges)
	}
}

func TestTimerRecordsDuration(t *testing.T) {
	tel := New("hostA")
	start := time.Now().Add(-5 * time.Millisecond)
	tel.Timer(ScopeController, ProcessingTime, start)
	_, _, timers := tel.Snapshot()
	values := timers[ScopeController]["hostA"][ProcessingTime]
	if len(values) != 1 || values[0] < 5 {
		t.Fatalf("expected one timer sample >= 5ms, got %+v", values)
	}
}

func TestDeliveryDurationName(t *testing.T) {
	if got := DeliveryDurationName("graphite"); got != "delivery.graphite.duration_ms" {
		t.Fatalf("unexpected name: %s", got)
	}
}

func TestMergeCounters(t *testing.T) {
	a := New("hostA")
	b := New("hostB")
	b.Incr(ScopeController, PacketsReceived, 7)
	bc, bg, bt := b.Snapshot()
	a.Merge(bc, bg, bt)
	ac, _, _ := a.Snapshot()
	if ac[ScopeController]["hostB"][PacketsReceived] != 7 {
		t.Fatalf("expected merged remote host counters, got %+v", ac)
	}
	// own host's scaffold must still be present and untouched
	if _, ok := ac[ScopeController]["hostA"]; !ok {
		t.Fatalf("expected own host scaffold to survive merge")
	}
}

func TestMergeTimersReplace(t *testing.T) {
	a := New("hostA")
	a.timers[ScopeController]["hostA"][ProcessingTime] = []float64{1, 2}
	remote := map[Scope]map[string]map[string][]float64{
		ScopeController: {"hostA": {ProcessingTime: {3, 4, 5}}},
	}
	a.Merge(nil, nil, remote)
	values := a.timers[ScopeController]["hostA"][ProcessingTime]
	if len(values) != 3 || values[0] != 3 || values[1] != 4 || values[2] != 5 {
		t.Fatalf("expected remote timer values to replace local ones, got %+v", values)
	}
}

func TestMergeTimersIntroducesNewHost(t *testing.T) {
	a := New("hostA")
	remote := map[Scope]map[string]map[string][]float64{
		ScopeController: {"hostB": {ProcessingTime: {1, 2}}},
	}
	a.Merge(nil, nil, remote)
	values := a.timers[ScopeController]["hostB"][ProcessingTime]
	if len(values) != 2 {
		t.Fatalf("expected new host's timer values to be present, got %+v", values)
	}
}
