package platform

import (
	"math"
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// LinkCounterSnapshot is one point-in-time reading of a link's
// cumulative packet/byte counters, as reported by `dladm show-link -s
// -p -o link,ipackets,rbytes,ierrors,opackets,obytes,oerrors`.
type LinkCounterSnapshot struct {
	Link     string
	At       time.Time
	RBytes   int64
	OBytes   int64
	IPackets int64
	OPackets int64
	IErrors  int64
	OErrors  int64
}

// ParseDladmShowLinkStat parses a counter snapshot line set. A short or
// truncated link name (as `dladm show-usage` produces under some
// terminal widths) is returned verbatim; correlating it against known
// interfaces is TruncationCorrelate's job, not the parser's, keeping the
// two concerns — "read the numbers" and "guess the real name" —
// independently testable.
func ParseDladmShowLinkStat(output []byte) []LinkCounterSnapshot {
	var out []LinkCounterSnapshot
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		f := splitColonFields(line)
		if len(f) < 7 {
			continue
		}
		snap := LinkCounterSnapshot{
			Link:     f[0],
			At:       now,
			IPackets: orZero(ParseInt64OrNil(f[1])),
			RBytes:   orZero(ParseInt64OrNil(f[2])),
			IErrors:  orZero(ParseInt64OrNil(f[3])),
			OPackets: orZero(ParseInt64OrNil(f[4])),
			OBytes:   orZero(ParseInt64OrNil(f[5])),
			OErrors:  orZero(ParseInt64OrNil(f[6])),
		}
		out = append(out, snap)
	}
	return out
}

func orZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// TruncationConfidence classifies how confidently a short link name maps
// to a full interface name (§4.2: "label each usage row with all
// possible full names and a confidence {high, medium, low} based on
// prefix-match cardinality").
const (
	ConfidenceHigh   = "high"   // exact match
	ConfidenceMedium = "medium" // unique prefix match
	ConfidenceLow    = "low"    // ambiguous prefix match (multiple candidates)
)

// TruncationCorrelate resolves a (possibly truncated) link name from
// show-usage output against the set of known full interface names for
// the host, returning the matched candidate name(s) and a confidence
// level.
func TruncationCorrelate(shortName string, knownLinks []string) (candidates []string, confidence string) {
	for _, full := range knownLinks {
		if full == shortName {
			return []string{full}, ConfidenceHigh
		}
	}
	for _, full := range knownLinks {
		if strings.HasPrefix(full, shortName) {
			candidates = append(candidates, full)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, ""
	case 1:
		return candidates, ConfidenceMedium
	default:
		return candidates, ConfidenceLow
	}
}

// ComputeUsageDelta derives one NetworkUsage record from a pair of
// counter snapshots for the same link, per §4.3's Network-usage
// algorithm: per-field deltas floored at zero (monotonic counter
// wraparound/reset treated as "no info"), instantaneous rx/tx rates, and
// utilization against the link's configured speed. Any NaN/invalid
// arithmetic becomes nil rather than propagating (§4.3).
func ComputeUsageDelta(host string, prev, cur LinkCounterSnapshot, linkSpeedMbps *int64, linkClass string) model.NetworkUsage {
	dt := cur.At.Sub(prev.At).Seconds()

	usage := model.NetworkUsage{
		Host:               host,
		Link:               cur.Link,
		ScanTimestamp:      cur.At,
		RBytes:             cur.RBytes,
		OBytes:             cur.OBytes,
		IPackets:           cur.IPackets,
		OPackets:           cur.OPackets,
		IErrors:            cur.IErrors,
		OErrors:            cur.OErrors,
		InterfaceSpeedMbps: linkSpeedMbps,
		InterfaceClass:     linkClass,
	}

	if dt <= 0 {
		return usage
	}
	td := RoundTo2(dt)
	usage.TimeDeltaSeconds = &td

	rDelta := flooredDelta(cur.RBytes, prev.RBytes)
	oDelta := flooredDelta(cur.OBytes, prev.OBytes)
	usage.RBytesDelta = &rDelta
	usage.OBytesDelta = &oDelta

	rxBps := safeDiv(float64(rDelta), dt)
	txBps := safeDiv(float64(oDelta), dt)
	usage.RxBps = rxBps
	usage.TxBps = txBps

	if rxBps != nil {
		mbps := RoundTo2(*rxBps * 8 / 1_000_000)
		usage.RxMbps = &mbps
	}
	if txBps != nil {
		mbps := RoundTo2(*txBps * 8 / 1_000_000)
		usage.TxMbps = &mbps
	}

	if linkSpeedMbps != nil && *linkSpeedMbps > 0 {
		speedBps := float64(*linkSpeedMbps) * 1_000_000 / 8
		if rxBps != nil {
			pct := RoundTo2(*rxBps / speedBps * 100)
			if finite(pct) {
				usage.RxUtilizationPct = &pct
			}
		}
		if txBps != nil {
			pct := RoundTo2(*txBps / speedBps * 100)
			if finite(pct) {
				usage.TxUtilizationPct = &pct
			}
		}
	}

	return usage
}

// flooredDelta computes cur-prev, flooring at zero: a negative delta
// means the counter wrapped or the NIC was reset, and §4.3 treats that
// as "no info" rather than a misleading huge number or a negative rate.
func flooredDelta(cur, prev int64) int64 {
	d := cur - prev
	if d < 0 {
		return 0
	}
	return d
}

func safeDiv(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator
	if !finite(v) {
		return nil
	}
	return &v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
