package platform

import (
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// zoneDatasetMarkers are the substrings §4.3 names for identifying
// zone/VM-related datasets: "containing /zones/, /vm[s]/, /bhyve/,
// /kvm/, or a known zone name substring."
var zoneDatasetMarkers = []string{"/zones/", "/vm/", "/vms/", "/bhyve/", "/kvm/"}

// IsZoneRelatedDataset reports whether a dataset name should be tracked
// by the Storage collector, per §4.3's zone/VM filter. knownZones lets
// the caller also match a dataset whose path embeds a zone name that
// doesn't follow the common path markers.
func IsZoneRelatedDataset(name string, knownZones []string) bool {
	lower := strings.ToLower(name)
	for _, marker := range zoneDatasetMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, zone := range knownZones {
		if zone != "" && strings.Contains(lower, strings.ToLower(zone)) {
			return true
		}
	}
	return false
}

// ParseZfsList parses `zfs list -Hp -o
// name,used,avail,refer,type,compressratio,mountpoint` output into
// ZFSDataset records for every listed dataset, unfiltered (this function
// stays a pure parser, per §4.2's "one function per command" rule — the
// collector filters the result to zone-related datasets afterwards).
func ParseZfsList(host string, output []byte) []model.ZFSDataset {
	var out []model.ZFSDataset
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		f := SplitFields(line)
		if len(f) < 7 {
			continue
		}
		pool := f[0]
		if idx := strings.Index(pool, "/"); idx >= 0 {
			pool = pool[:idx]
		}
		if idx := strings.Index(pool, "@"); idx >= 0 {
			pool = pool[:idx]
		}
		rec := model.ZFSDataset{
			Host:            host,
			Name:            f[0],
			Pool:            pool,
			ScanTimestamp:   now,
			UsedBytes:       ParseInt64OrNil(f[1]),
			AvailableBytes:  ParseInt64OrNil(f[2]),
			ReferencedBytes: ParseInt64OrNil(f[3]),
			Type:            f[4],
			CompressRatio:   parseRatio(f[5]),
			Mountpoint:      f[6],
			DatasetExists:   true,
		}
		out = append(out, rec)
	}
	return out
}

func parseRatio(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "x")
	return ParseFloat64OrNil(s)
}

// MissingDataset builds a tombstone ZFSDataset record
// (dataset_exists=false). The Storage collector uses it for a dataset
// that the previous scan recorded as present and the current `zfs list`
// no longer shows; no separate existence check is made per dataset.
func MissingDataset(host, name, pool string) model.ZFSDataset {
	return model.ZFSDataset{
		Host:          host,
		Name:          name,
		Pool:          pool,
		ScanTimestamp: time.Now(),
		DatasetExists: false,
	}
}

// CrossReferenceDiskToPool searches zpool status free text for a disk's
// device name or serial number, returning the pool name it belongs to
// (empty if not found). Grounds §4.3's "Cross-references disks with
// pool membership by searching the pool status text for device name or
// serial number occurrences."
func CrossReferenceDiskToPool(statusText, deviceName, serial string) string {
	var curPool string
	for _, raw := range strings.Split(statusText, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "pool:") {
			curPool = strings.TrimSpace(strings.TrimPrefix(trimmed, "pool:"))
			continue
		}
		if curPool == "" {
			continue
		}
		if deviceName != "" && strings.Contains(trimmed, deviceName) {
			return curPool
		}
		if serial != "" && strings.Contains(trimmed, serial) {
			return curPool
		}
	}
	return ""
}
