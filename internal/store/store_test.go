package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostd-test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertHostInfoRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	h := model.HostInfo{
		Host:              "omni01",
		Hostname:          "omni01.local",
		Platform:          "illumos",
		Release:           "2024.10",
		Arch:              "x86_64",
		UptimeSeconds:     12345,
		NetworkAccounting: true,
		LastNetworkScan:   &now,
		ErrorCounts:       map[string]int{"storage": 2},
		Status:            "healthy",
	}
	if err := s.UpsertHostInfo(h); err != nil {
		t.Fatalf("UpsertHostInfo: %v", err)
	}

	got, err := s.GetHostInfo("omni01")
	if err != nil {
		t.Fatalf("GetHostInfo: %v", err)
	}
	if got.Hostname != h.Hostname || got.Status != h.Status {
		t.Errorf("got %+v, want hostname=%s status=%s", got, h.Hostname, h.Status)
	}
	if got.ErrorCounts["storage"] != 2 {
		t.Errorf("error_counts not preserved: %+v", got.ErrorCounts)
	}
	if got.LastNetworkScan == nil || !got.LastNetworkScan.Equal(now) {
		t.Errorf("last_network_scan = %v, want %v", got.LastNetworkScan, now)
	}

	// A second collector's pass only knows last_storage_scan; the
	// earlier last_network_scan must survive via COALESCE.
	storageScan := now.Add(time.Minute)
	h2 := h
	h2.LastNetworkScan = nil
	h2.LastStorageScan = &storageScan
	if err := s.UpsertHostInfo(h2); err != nil {
		t.Fatalf("UpsertHostInfo (partial): %v", err)
	}

	got2, err := s.GetHostInfo("omni01")
	if err != nil {
		t.Fatalf("GetHostInfo: %v", err)
	}
	if got2.LastNetworkScan == nil || !got2.LastNetworkScan.Equal(now) {
		t.Errorf("partial upsert clobbered last_network_scan: got %v, want %v", got2.LastNetworkScan, now)
	}
	if got2.LastStorageScan == nil || !got2.LastStorageScan.Equal(storageScan) {
		t.Errorf("last_storage_scan = %v, want %v", got2.LastStorageScan, storageScan)
	}
}

func TestReplaceNetworkInterfacesIsCurrentState(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	first := []model.NetworkInterface{
		{Host: "omni01", Link: "net0", Class: "phys", State: "up", ScanTimestamp: now},
		{Host: "omni01", Link: "net1", Class: "phys", State: "up", ScanTimestamp: now},
	}
	if err := s.ReplaceNetworkInterfaces("omni01", first); err != nil {
		t.Fatalf("ReplaceNetworkInterfaces: %v", err)
	}

	names, err := s.KnownLinkNames("omni01")
	if err != nil {
		t.Fatalf("KnownLinkNames: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 links, got %d: %v", len(names), names)
	}

	second := []model.NetworkInterface{
		{Host: "omni01", Link: "net0", Class: "phys", State: "up", ScanTimestamp: now.Add(time.Minute)},
	}
	if err := s.ReplaceNetworkInterfaces("omni01", second); err != nil {
		t.Fatalf("ReplaceNetworkInterfaces (second): %v", err)
	}

	names, err = s.KnownLinkNames("omni01")
	if err != nil {
		t.Fatalf("KnownLinkNames: %v", err)
	}
	// Deletion is scoped to the links in the new set: net0 is replaced
	// and net1, absent from this scan, keeps its earlier row.
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if len(names) != 2 || !seen["net0"] || !seen["net1"] {
		t.Fatalf("expected net0 replaced and net1 untouched, got %v", names)
	}
}

func TestTaskQueueClaimRespectsZoneExclusion(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	id1, err := s.CreateTask(model.Task{ZoneName: "z1", Operation: "zone_start", Priority: "normal", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := s.CreateTask(model.Task{ZoneName: "z1", Operation: "zone_stop", Priority: "urgent", CreatedAt: now}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	claimed, err := s.ClaimNextTask(now)
	if err != nil {
		t.Fatalf("ClaimNextTask: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claimable task")
	}
	if claimed.Priority != "urgent" {
		t.Errorf("expected urgent task claimed first, got %s", claimed.Priority)
	}

	second, err := s.ClaimNextTask(now)
	if err != nil {
		t.Fatalf("ClaimNextTask (second): %v", err)
	}
	if second != nil {
		t.Fatalf("expected no claimable task while z1 has a running task, got %+v", second)
	}

	if err := s.UpdateTaskStatus(claimed.ID, "completed", "ok", "", now); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	third, err := s.ClaimNextTask(now)
	if err != nil {
		t.Fatalf("ClaimNextTask (third): %v", err)
	}
	if third == nil || third.ID != id1 {
		t.Fatalf("expected the remaining z1 task to become claimable, got %+v", third)
	}
}

func TestHasAnyAPIKeyGatesBootstrap(t *testing.T) {
	s := openTestStore(t)

	has, err := s.HasAnyAPIKey()
	if err != nil {
		t.Fatalf("HasAnyAPIKey: %v", err)
	}
	if has {
		t.Fatal("expected no api keys on a fresh store")
	}

	if err := s.InsertAPIKey("wh_abc123", "bcrypt-hash", time.Now().UTC()); err != nil {
		t.Fatalf("InsertAPIKey: %v", err)
	}

	has, err = s.HasAnyAPIKey()
	if err != nil {
		t.Fatalf("HasAnyAPIKey: %v", err)
	}
	if !has {
		t.Fatal("expected HasAnyAPIKey to be true after insert")
	}

	rec, err := s.LookupAPIKeyByPrefix("wh_abc123")
	if err != nil {
		t.Fatalf("LookupAPIKeyByPrefix: %v", err)
	}
	if rec.Hash != "bcrypt-hash" {
		t.Errorf("hash = %q, want %q", rec.Hash, "bcrypt-hash")
	}
}
