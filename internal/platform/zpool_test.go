package platform

import "testing"

func TestParseZpoolList(t *testing.T) {
	out := []byte("rpool\t100000\t50000\t50000\t50\tONLINE\n")
	// zpool list -Hp uses tabs; SplitFields via strings.Fields tolerates both.
	pools := ParseZpoolList("host1", out)
	if len(pools) != 1 {
		t.Fatalf("got %d pools, want 1", len(pools))
	}
	p := pools[0]
	if p.Pool != "rpool" || p.ScanType != "list" || p.Health != "ONLINE" {
		t.Errorf("unexpected pool record: %+v", p)
	}
	if p.CapacityPct == nil || *p.CapacityPct != 50.0 {
		t.Errorf("CapacityPct = %v, want 50.0", p.CapacityPct)
	}
}

func TestParseZpoolStatusExtractsFields(t *testing.T) {
	out := []byte(`  pool: rpool
 state: ONLINE
status: some known issue
  scan: none requested
config:

	NAME        STATE     READ WRITE CKSUM
	rpool       ONLINE       0     0     0
	  mirror-0  ONLINE       0     0     0

errors: No known data errors
`)
	pools := ParseZpoolStatus("host1", out)
	if len(pools) != 1 {
		t.Fatalf("got %d pool status records, want 1", len(pools))
	}
	p := pools[0]
	if p.Pool != "rpool" || p.Health != "ONLINE" || p.ScanType != "status" {
		t.Errorf("unexpected status record: %+v", p)
	}
	if p.PoolType != "mirror" {
		t.Errorf("PoolType = %q, want mirror", p.PoolType)
	}
	if p.Errors != "No known data errors" {
		t.Errorf("Errors = %q", p.Errors)
	}
}

func TestDiscoverPoolNames(t *testing.T) {
	out := []byte("rpool\ntank\n\n")
	names := DiscoverPoolNames(out)
	if len(names) != 2 || names[0] != "rpool" || names[1] != "tank" {
		t.Errorf("DiscoverPoolNames = %v, want [rpool tank]", names)
	}
}
