package platform

import (
	"testing"
	"time"
)

func TestTruncationCorrelate(t *testing.T) {
	known := []string{"net0", "net0_1", "vnic0"}

	cands, conf := TruncationCorrelate("net0", known)
	if conf != ConfidenceHigh || len(cands) != 1 {
		t.Errorf("exact match: got %v/%s, want high/[net0]", cands, conf)
	}

	cands, conf = TruncationCorrelate("vnic", known)
	if conf != ConfidenceMedium || len(cands) != 1 || cands[0] != "vnic0" {
		t.Errorf("unique prefix: got %v/%s, want medium/[vnic0]", cands, conf)
	}

	cands, conf = TruncationCorrelate("net", known)
	if conf != ConfidenceLow || len(cands) != 2 {
		t.Errorf("ambiguous prefix: got %v/%s, want low/2 candidates", cands, conf)
	}

	cands, conf = TruncationCorrelate("bogus", known)
	if conf != "" || cands != nil {
		t.Errorf("no match: got %v/%s, want empty", cands, conf)
	}
}

func TestComputeUsageDeltaFloorsNegativeDelta(t *testing.T) {
	now := time.Now()
	prev := LinkCounterSnapshot{Link: "net0", At: now, RBytes: 1000, OBytes: 1000}
	cur := LinkCounterSnapshot{Link: "net0", At: now.Add(10 * time.Second), RBytes: 500, OBytes: 2000} // rbytes wrapped/reset

	speed := int64(1000)
	usage := ComputeUsageDelta("host1", prev, cur, &speed, "phys")

	if usage.RBytesDelta == nil || *usage.RBytesDelta != 0 {
		t.Errorf("expected rbytes delta floored to 0, got %v", usage.RBytesDelta)
	}
	if usage.OBytesDelta == nil || *usage.OBytesDelta != 1000 {
		t.Errorf("expected obytes delta 1000, got %v", usage.OBytesDelta)
	}
	if usage.TxMbps == nil {
		t.Error("expected TxMbps to be computed")
	}
	if usage.TxUtilizationPct == nil {
		t.Error("expected TxUtilizationPct to be computed")
	}
}

func TestComputeUsageDeltaZeroElapsedTime(t *testing.T) {
	now := time.Now()
	prev := LinkCounterSnapshot{Link: "net0", At: now, RBytes: 1000}
	cur := LinkCounterSnapshot{Link: "net0", At: now, RBytes: 2000}

	usage := ComputeUsageDelta("host1", prev, cur, nil, "phys")
	if usage.RBytesDelta != nil {
		t.Error("expected nil delta fields when elapsed time is zero")
	}
}
