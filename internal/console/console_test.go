package console

import (
	"testing"
	"time"
)

// TestSmartCleanupCancelledByReconnect exercises §8 invariant 6: the
// connection-set cardinality always matches live clients, and a
// reconnect inside the grace window must cancel pending teardown.
func TestSmartCleanupCancelledByReconnect(t *testing.T) {
	b := New(nil, 30*time.Millisecond)

	b.track("zoneA", "c1")
	b.track("zoneA", "c2")
	if got := b.ConnectionCount("zoneA"); got != 2 {
		t.Fatalf("ConnectionCount = %d, want 2", got)
	}

	b.untrack("zoneA", "c1", func() { t.Fatal("teardown fired with a client still connected") })
	if got := b.ConnectionCount("zoneA"); got != 1 {
		t.Fatalf("ConnectionCount after first disconnect = %d, want 1", got)
	}

	expired := make(chan struct{})
	b.untrack("zoneA", "c2", func() { close(expired) })
	if got := b.ConnectionCount("zoneA"); got != 0 {
		t.Fatalf("ConnectionCount after last disconnect = %d, want 0", got)
	}

	// Reconnect immediately, inside the grace window: teardown must not fire.
	b.track("zoneA", "c3")
	select {
	case <-expired:
		t.Fatal("teardown fired despite reconnect inside grace window")
	case <-time.After(60 * time.Millisecond):
	}
	if got := b.ConnectionCount("zoneA"); got != 1 {
		t.Fatalf("ConnectionCount after reconnect = %d, want 1", got)
	}
}

// TestSmartCleanupFiresAfterGraceWindow confirms teardown runs once the
// grace window elapses with nobody reconnecting.
func TestSmartCleanupFiresAfterGraceWindow(t *testing.T) {
	b := New(nil, 10*time.Millisecond)

	b.track("zoneB", "c1")
	expired := make(chan struct{})
	b.untrack("zoneB", "c1", func() { close(expired) })

	select {
	case <-expired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("teardown did not fire after grace window elapsed")
	}
}

// TestConnectionCountTracksIndependentKeys confirms unrelated zones
// don't share connection-set state.
func TestConnectionCountTracksIndependentKeys(t *testing.T) {
	b := New(nil, time.Second)

	b.track("zoneA", "c1")
	b.track("zoneB", "c1")
	b.track("zoneB", "c2")

	if got := b.ConnectionCount("zoneA"); got != 1 {
		t.Fatalf("zoneA ConnectionCount = %d, want 1", got)
	}
	if got := b.ConnectionCount("zoneB"); got != 2 {
		t.Fatalf("zoneB ConnectionCount = %d, want 2", got)
	}
}
