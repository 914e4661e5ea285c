// Package hoststate holds the single in-memory source of truth for
// this host's current HostInfo: the authoritative working copy the
// collectors mutate on every pass. The scheduler takes a snapshot
// under a read lock after each pass and upserts it to internal/store;
// the Query API reads the host_info row from the store.
package hoststate

import (
	"sync"
	"time"

	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/platform"
)

// familyWeight mirrors the teacher's resourceWeight: collectors whose
// failure is more consequential to operators (storage, devices) carry
// more weight in the health deduction than cosmetic ones.
func familyWeight(family platform.ResourceFamily) float64 {
	switch family {
	case platform.FamilyStorage, platform.FamilyStorageFrequent:
		return 1.5
	case platform.FamilyDevices:
		return 1.2
	case platform.FamilyNetworkConfig, platform.FamilyNetworkUsage:
		return 1.0
	case platform.FamilySystemMetrics:
		return 1.0
	default:
		return 0.5
	}
}

// State is the RWMutex-guarded singleton mirror for one host.
type State struct {
	mu sync.RWMutex

	info HostInfoInternal

	maxConsecutiveErrors int
	resetErrorCountAfter time.Duration
}

// HostInfoInternal carries everything model.HostInfo does plus the
// per-collector bookkeeping needed to derive health, kept apart from
// model.HostInfo since that type is also the database row shape and
// shouldn't grow transient scheduling-only fields.
type HostInfoInternal struct {
	model.HostInfo

	lastErrorAt      map[string]time.Time
	lastScanAt       map[string]time.Time
	enabledFamilies  map[string]bool
}

// New creates a State seeded with host identity fields that don't
// change across the process lifetime.
func New(host, hostname, platformName, release, arch string, maxConsecutiveErrors int, resetErrorCountAfter time.Duration) *State {
	return &State{
		info: HostInfoInternal{
			HostInfo: model.HostInfo{
				Host:     host,
				Hostname: hostname,
				Platform: platformName,
				Release:  release,
				Arch:     arch,
				Status:   "stopped",
			},
			lastErrorAt:     map[string]time.Time{},
			lastScanAt:      map[string]time.Time{},
			enabledFamilies: map[string]bool{},
		},
		maxConsecutiveErrors: maxConsecutiveErrors,
		resetErrorCountAfter: resetErrorCountAfter,
	}
}

// SetUptime updates the host's reported uptime, typically refreshed
// each system-metrics pass.
func (s *State) SetUptime(seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.UptimeSeconds = seconds
}

// SetNetworkAccounting records whether extended accounting was
// successfully enabled at init.
func (s *State) SetNetworkAccounting(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.NetworkAccounting = enabled
}

// SetFamilyEnabled marks a resource family available or unavailable,
// e.g. when its required binaries aren't present on this platform.
func (s *State) SetFamilyEnabled(family platform.ResourceFamily, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.enabledFamilies[string(family)] = enabled
}

// RecordSuccess zeroes the consecutive-error counter for family and
// stamps its last-scan timestamp, mirroring §4.3's per-collector
// "success resets the error count" contract.
func (s *State) RecordSuccess(family platform.ResourceFamily, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info.ErrorCounts == nil {
		s.info.ErrorCounts = map[string]int{}
	}
	s.info.ErrorCounts[string(family)] = 0
	s.info.lastScanAt[string(family)] = at
	s.setLastScanLocked(family, at)
	s.info.LastErrorMessage = ""
}

// RecordError increments family's consecutive-error counter and
// records the failure message. Counters are only reset by a
// subsequent success or by the staleness window in
// ResetStaleErrorCounts, per §4.3's error-accounting contract.
func (s *State) RecordError(family platform.ResourceFamily, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info.ErrorCounts == nil {
		s.info.ErrorCounts = map[string]int{}
	}
	s.info.ErrorCounts[string(family)]++
	s.info.lastErrorAt[string(family)] = at
	if err != nil {
		s.info.LastErrorMessage = err.Error()
	}
}

// ResetStaleErrorCounts zeroes any family's error counter whose last
// error is older than the configured reset window — a transient run
// of failures shouldn't permanently depress health once the
// underlying condition clears and scans simply stop erroring without
// an explicit success (e.g. a family was disabled, not fixed).
func (s *State) ResetStaleErrorCounts(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for family, lastErr := range s.info.lastErrorAt {
		if now.Sub(lastErr) >= s.resetErrorCountAfter {
			s.info.ErrorCounts[family] = 0
		}
	}
}

func (s *State) setLastScanLocked(family platform.ResourceFamily, at time.Time) {
	switch family {
	case platform.FamilyNetworkConfig:
		s.info.LastNetworkScan = &at
	case platform.FamilyNetworkUsage:
		s.info.LastUsageScan = &at
	case platform.FamilyStorage:
		s.info.LastStorageScan = &at
	case platform.FamilyStorageFrequent:
		s.info.LastStorageFastScan = &at
	case platform.FamilyDevices:
		s.info.LastDeviceScan = &at
	case platform.FamilySystemMetrics:
		s.info.LastMetricsScan = &at
	}
}

// Snapshot returns a copy of the current HostInfo suitable for
// persistence or serving over the Query API, with Status recomputed
// from the current error/staleness picture.
func (s *State) Snapshot(now time.Time, expectedIntervals map[string]time.Duration) model.HostInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.info.HostInfo
	out.ErrorCounts = make(map[string]int, len(s.info.ErrorCounts))
	for k, v := range s.info.ErrorCounts {
		out.ErrorCounts[k] = v
	}
	out.Status = s.computeHealthLocked(now, expectedIntervals)
	return out
}

// computeHealthLocked maps consecutive-error counts, weighted by
// family, plus scan staleness onto the six-value status enum. It is
// a deduction model in the teacher's ComputeHealthScore shape:
// start at 100, deduct per offending signal, then bucket the result.
func (s *State) computeHealthLocked(now time.Time, expectedIntervals map[string]time.Duration) string {
	score := 100.0

	for family, count := range s.info.ErrorCounts {
		if count == 0 {
			continue
		}
		weight := familyWeight(platform.ResourceFamily(family))
		switch {
		case count >= s.maxConsecutiveErrors*3:
			score -= 40 * weight
		case count >= s.maxConsecutiveErrors:
			score -= 20 * weight
		case count >= s.maxConsecutiveErrors/2:
			score -= 8 * weight
		default:
			score -= 3 * weight
		}
	}

	for family, interval := range expectedIntervals {
		last, ok := s.info.lastScanAt[family]
		if !ok {
			continue
		}
		staleBy := now.Sub(last)
		switch {
		case staleBy > interval*5:
			score -= 20 * familyWeight(platform.ResourceFamily(family))
		case staleBy > interval*2:
			score -= 8 * familyWeight(platform.ResourceFamily(family))
		}
	}

	if score < 0 {
		score = 0
	}

	switch {
	case score >= 90:
		return "healthy"
	case score >= 70:
		return "degraded"
	case score >= 40:
		return "faulted"
	case score > 0:
		return "critical"
	default:
		return "error"
	}
}

// FamilyEnabled reports whether family is currently marked available
// on this host.
func (s *State) FamilyEnabled(family platform.ResourceFamily) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.info.enabledFamilies[string(family)]
	return !ok || enabled
}

// ConsecutiveErrors returns the current error count for family,
// mainly for tests and diagnostics.
func (s *State) ConsecutiveErrors(family platform.ResourceFamily) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.ErrorCounts[string(family)]
}
