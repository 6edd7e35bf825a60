package shard

import "testing"

func TestPeerIsDeterministic(t *testing.T) {
	r := NewRouter([]string{"a:1", "b:1", "c:1"})
	first := r.Peer("some.metric.key")
	for i := 0; i < 10; i++ {
		if got := r.Peer("some.metric.key"); got != first {
			t.Fatalf("expected stable peer assignment, got %s then %s", first, got)
		}
	}
}

func TestPeerIsOneOfConfigured(t *testing.T) {
	peers := []string{"a:1", "b:1", "c:1"}
	r := NewRouter(peers)
	got := r.Peer("foo")
	found := false
	for _, p := range peers {
		if p == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("peer %s not among configured peers %v", got, peers)
	}
}

func TestSetPeersUpdatesRouting(t *testing.T) {
	r := NewRouter([]string{"a:1"})
	if got := r.Peer("foo"); got != "a:1" {
		t.Fatalf("expected sole peer a:1, got %s", got)
	}
	r.SetPeers([]string{"b:1"})
	if got := r.Peer("foo"); got != "b:1" {
		t.Fatalf("expected updated sole peer b:1, got %s", got)
	}
}

func TestPeersReturnsConfiguredSet(t *testing.T) {
	r := NewRouter([]string{"a:1", "b:1"})
	peers := r.Peers()
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %v", peers)
	}
}
