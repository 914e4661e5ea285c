package hoststate

import (
	"errors"
	"testing"
	"time"

	"github.com/omnizone/hostd/internal/platform"
)

func TestRecordSuccessResetsErrorCount(t *testing.T) {
	s := New("omni01", "omni01.local", "illumos", "2024.10", "x86_64", 5, 5*time.Minute)
	now := time.Now()

	s.RecordError(platform.FamilyStorage, errors.New("zpool timeout"), now)
	s.RecordError(platform.FamilyStorage, errors.New("zpool timeout"), now)
	if got := s.ConsecutiveErrors(platform.FamilyStorage); got != 2 {
		t.Fatalf("ConsecutiveErrors = %d, want 2", got)
	}

	s.RecordSuccess(platform.FamilyStorage, now)
	if got := s.ConsecutiveErrors(platform.FamilyStorage); got != 0 {
		t.Fatalf("ConsecutiveErrors after success = %d, want 0", got)
	}
}

func TestResetStaleErrorCountsOnlyResetsPastWindow(t *testing.T) {
	s := New("omni01", "omni01.local", "illumos", "2024.10", "x86_64", 5, time.Minute)
	base := time.Now()

	s.RecordError(platform.FamilyDevices, errors.New("prtconf failed"), base)
	s.ResetStaleErrorCounts(base.Add(30 * time.Second))
	if got := s.ConsecutiveErrors(platform.FamilyDevices); got != 1 {
		t.Fatalf("error count reset too early: %d", got)
	}

	s.ResetStaleErrorCounts(base.Add(2 * time.Minute))
	if got := s.ConsecutiveErrors(platform.FamilyDevices); got != 0 {
		t.Fatalf("error count not reset after window elapsed: %d", got)
	}
}

func TestSnapshotHealthDegradesWithRepeatedErrors(t *testing.T) {
	s := New("omni01", "omni01.local", "illumos", "2024.10", "x86_64", 3, time.Hour)
	now := time.Now()

	snap := s.Snapshot(now, nil)
	if snap.Status != "healthy" {
		t.Fatalf("fresh host status = %q, want healthy", snap.Status)
	}

	for i := 0; i < 10; i++ {
		s.RecordError(platform.FamilyStorage, errors.New("boom"), now)
	}

	snap = s.Snapshot(now, nil)
	if snap.Status == "healthy" {
		t.Fatalf("status stayed healthy after 10 consecutive storage errors")
	}
}

func TestSnapshotCopiesErrorCountsMap(t *testing.T) {
	s := New("omni01", "omni01.local", "illumos", "2024.10", "x86_64", 5, time.Hour)
	now := time.Now()
	s.RecordError(platform.FamilyNetworkUsage, errors.New("dladm failed"), now)

	snap := s.Snapshot(now, nil)
	snap.ErrorCounts["network_usage"] = 999

	if got := s.ConsecutiveErrors(platform.FamilyNetworkUsage); got == 999 {
		t.Fatal("mutating a snapshot's ErrorCounts leaked into internal state")
	}
}

func TestFamilyEnabledDefaultsTrue(t *testing.T) {
	s := New("omni01", "omni01.local", "illumos", "2024.10", "x86_64", 5, time.Hour)
	if !s.FamilyEnabled(platform.FamilyDevices) {
		t.Fatal("family should default enabled until explicitly disabled")
	}
	s.SetFamilyEnabled(platform.FamilyDevices, false)
	if s.FamilyEnabled(platform.FamilyDevices) {
		t.Fatal("SetFamilyEnabled(false) did not take effect")
	}
}
