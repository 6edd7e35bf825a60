package aggregator

import "testing"

func TestApplyCounter(t *testing.T) {
	a := New()
	a.ApplyCounter("foo", "5", 1)
	a.ApplyCounter("foo", "3", 1)
	counters, _, _, _ := a.Snapshot()
	if counters["foo"] != 8 {
		t.Fatalf("expected foo=8, got %d", counters["foo"])
	}
}

func TestApplyCounterRate(t *testing.T) {
	a := New()
	a.ApplyCounter("foo", "10", 0.5)
	counters, _, _, _ := a.Snapshot()
	if counters["foo"] != 20 {
		t.Fatalf("expected foo=20, got %d", counters["foo"])
	}
}

func TestApplyGauge(t *testing.T) {
	a := New()
	a.ApplyGauge("g1", "10")
	a.ApplyGauge("g1", "+3")
	a.ApplyGauge("g1", "-1")
	_, gauges, _, _ := a.Snapshot()
	if gauges["g1"] != 12 {
		t.Fatalf("expected g1=12, got %d", gauges["g1"])
	}
}

func TestApplyGaugeSignedNoPrior(t *testing.T) {
	a := New()
	a.ApplyGauge("g2", "+4")
	_, gauges, _, _ := a.Snapshot()
	if gauges["g2"] != 4 {
		t.Fatalf("expected g2=4, got %d", gauges["g2"])
	}
}

func TestApplySet(t *testing.T) {
	a := New()
	a.ApplySet("s1", "a")
	a.ApplySet("s1", "a")
	a.ApplySet("s1", "b")
	_, _, sets, _ := a.Snapshot()
	if sets["s1"]["a"] != 2 || sets["s1"]["b"] != 1 {
		t.Fatalf("unexpected set state: %+v", sets["s1"])
	}
}

func TestApplyTimer(t *testing.T) {
	a := New()
	a.ApplyTimer("t", "100", 1)
	a.ApplyTimer("t", "200", 1)
	a.ApplyTimer("t", "300", 1)
	_, _, _, timers := a.Snapshot()
	stats := TimerValues(timers["t"], 10)
	if stats.Count != 3 || stats.Min != 100 || stats.Max != 300 || stats.Mean != 200 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Median != 200 || stats.P90 != 280 || stats.P95 != 290 {
		t.Fatalf("unexpected percentile stats: %+v", stats)
	}
}

func TestSnapshotResetsLiveState(t *testing.T) {
	a := New()
	a.ApplyCounter("foo", "1", 1)
	a.ApplyGauge("bar", "1")
	a.ApplySet("baz", "x")
	a.ApplyTimer("qux", "1", 1)
	a.Snapshot()
	counters, gauges, sets, timers := a.Snapshot()
	if len(counters) != 0 || len(gauges) != 0 || len(sets) != 0 || len(timers) != 0 {
		t.Fatalf("expected empty state after double snapshot, got c=%v g=%v s=%v t=%v", counters, gauges, sets, timers)
	}
}

func TestMergeCounterCommutesWithLocal(t *testing.T) {
	a := New()
	a.MergeCounter("x", 7)
	a.ApplyCounter("x", "3", 1)
	counters, _, _, _ := a.Snapshot()
	if counters["x"] != 10 {
		t.Fatalf("expected x=10, got %d", counters["x"])
	}
}

func TestMergeCommutativity(t *testing.T) {
	a1, a2 := New(), New()
	a1.MergeCounter("x", 5)
	a1.ApplyCounter("x", "2", 1)
	a2.ApplyCounter("x", "2", 1)
	a2.MergeCounter("x", 5)
	c1, _, _, _ := a1.Snapshot()
	c2, _, _, _ := a2.Snapshot()
	if c1["x"] != c2["x"] {
		t.Fatalf("expected merge to commute, got %d vs %d", c1["x"], c2["x"])
	}
}

func TestEmptyTimerStats(t *testing.T) {
	stats := TimerValues(nil, 10)
	if stats != (TimerStats{}) {
		t.Fatalf("expected all-zero stats for empty timer, got %+v", stats)
	}
}

func TestEmptySetStats(t *testing.T) {
	stats := SetValues(nil, 10)
	if stats.Count != 0 || stats.CountPS != 0 {
		t.Fatalf("expected zero count for empty set, got %+v", stats)
	}
}

func TestPercentileBounds(t *testing.T) {
	values := []float64{1, 5, 2, 9, 3}
	stats := TimerValues(values, 1)
	if !(stats.Min <= stats.Median && stats.Median <= stats.P90 && stats.P90 <= stats.P95 && stats.P95 <= stats.Max) {
		t.Fatalf("percentile bounds violated: %+v", stats)
	}
	if stats.Mean != stats.Total/float64(stats.Count) {
		t.Fatalf("mean != total/count: %+v", stats)
	}
}
