package rusage

import "testing"

func TestGetReturnsNonNegativeSample(t *testing.T) {
	s := Get()
	if s.MaxRSSBytes < 0 {
		t.Fatalf("expected non-negative max rss, got %d", s.MaxRSSBytes)
	}
	if s.CPUTimeUserSeconds < 0 || s.CPUTimeSystemSeconds < 0 {
		t.Fatalf("expected non-negative cpu times, got %+v", s)
	}
}
