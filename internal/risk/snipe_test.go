package risk

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestGuard() *Guard {
	return NewGuard(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGuardTripStartsCoolDown(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	g.Trip("m1", 50, 72)

	if !g.CoolingDown("m1", 300*time.Second) {
		t.Error("market should be cooling down right after a trip")
	}
	if g.CoolingDown("m2", 300*time.Second) {
		t.Error("untripped market should not be cooling down")
	}
}

func TestGuardCoolDownExpires(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	base := time.Now()
	g.now = func() time.Time { return base }
	g.Trip("m1", 50, 72)

	g.now = func() time.Time { return base.Add(299 * time.Second) }
	if !g.CoolingDown("m1", 300*time.Second) {
		t.Error("cool-down ended one second early")
	}

	g.now = func() time.Time { return base.Add(300 * time.Second) }
	if g.CoolingDown("m1", 300*time.Second) {
		t.Error("cool-down did not end at the timeout")
	}

	// Expiry drops the entry, so a shorter timeout later stays clear.
	if g.CoolingDown("m1", time.Nanosecond) {
		t.Error("expired entry was not dropped")
	}
}

func TestGuardZeroTimeoutNeverCools(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	g.Trip("m1", 50, 72)

	if g.CoolingDown("m1", 0) {
		t.Error("zero timeout should disable the cool-down")
	}
}

func TestGuardRemove(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	g.Trip("m1", 50, 72)
	g.Remove("m1")

	if g.CoolingDown("m1", time.Hour) {
		t.Error("removed market should not be cooling down")
	}
}
