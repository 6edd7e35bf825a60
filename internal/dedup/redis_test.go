package dedup

import (
	"context"
	"testing"
	"time"
)

// fakeEvaler implements a tiny in-memory SETNX so Guard's script-calling
// logic can be tested without a real Redis server.
type fakeEvaler struct {
	marked map[string]bool
}

func newFakeEvaler() *fakeEvaler {
	return &fakeEvaler{marked: map[string]bool{}}
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	key := keys[0]
	if f.marked[key] {
		return int64(0), nil
	}
	f.marked[key] = true
	return int64(1), nil
}

func TestGuardFirstSeenIsNotDuplicate(t *testing.T) {
	g := NewGuard(newFakeEvaler(), time.Hour)
	dup, err := g.Seen(context.Background(), "hostA", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatalf("expected first observation to not be a duplicate")
	}
}

func TestGuardSecondSeenIsDuplicate(t *testing.T) {
	g := NewGuard(newFakeEvaler(), time.Hour)
	ctx := context.Background()
	if _, err := g.Seen(ctx, "hostA", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup, err := g.Seen(ctx, "hostA", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Fatalf("expected repeated observation to be a duplicate")
	}
}

func TestNewGoRedisEvalerRejectsMalformedURL(t *testing.T) {
	if _, err := NewGoRedisEvaler("://not-a-url"); err == nil {
		t.Fatalf("expected an error for a malformed redis URL")
	}
}

func TestNewGoRedisEvalerParsesValidURL(t *testing.T) {
	g, err := NewGoRedisEvaler("redis://127.0.0.1:6379/0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil {
		t.Fatalf("expected a non-nil evaler")
	}
}

func TestGuardDistinctEpochsAreIndependent(t *testing.T) {
	g := NewGuard(newFakeEvaler(), time.Hour)
	ctx := context.Background()
	if _, err := g.Seen(ctx, "hostA", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup, err := g.Seen(ctx, "hostA", 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatalf("expected a different epoch to not be treated as a duplicate")
	}
}
