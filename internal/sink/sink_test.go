package sink

import "testing"

func TestBaseRecordException(t *testing.T) {
	var b Base
	if b.Exceptions() != 0 {
		t.Fatalf("expected 0 exceptions initially")
	}
	b.RecordException()
	b.RecordException()
	if b.Exceptions() != 2 {
		t.Fatalf("expected 2 exceptions, got %d", b.Exceptions())
	}
	if b.LastException().IsZero() {
		t.Fatalf("expected last exception time to be set")
	}
}
