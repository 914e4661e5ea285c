package platform

import (
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ParseZpoolList parses `zpool list -Hp -o
// name,size,alloc,free,capacity,health` output into ZFSPool records with
// scan_type="list".
func ParseZpoolList(host string, output []byte) []model.ZFSPool {
	var out []model.ZFSPool
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		f := SplitFields(line)
		if len(f) < 6 {
			continue
		}
		alloc := ParseInt64OrNil(f[2])
		free := ParseInt64OrNil(f[3])
		rec := model.ZFSPool{
			Host:          host,
			Pool:          f[0],
			ScanTimestamp: now,
			ScanType:      "list",
			AllocBytes:    alloc,
			FreeBytes:     free,
			CapacityPct:   Capacity(alloc, free),
			Health:        f[5],
		}
		out = append(out, rec)
	}
	return out
}

// ParseZpoolIostat parses `zpool iostat -Hp` one-line-per-pool output
// (alloc, free, read ops, write ops, read bw, write bw) into ZFSPool
// records with scan_type="iostat". It never overwrites a "status" or
// "list" row for the same pool — each scan_type is an independent
// perspective appended as its own row (§3 invariant).
func ParseZpoolIostat(host string, output []byte) []model.ZFSPool {
	var out []model.ZFSPool
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "pool") || strings.HasPrefix(line, "capacity") {
			continue
		}
		f := SplitFields(line)
		if len(f) < 6 {
			continue
		}
		alloc := ParseInt64OrNil(f[1])
		free := ParseInt64OrNil(f[2])
		rec := model.ZFSPool{
			Host:           host,
			Pool:           f[0],
			ScanTimestamp:  now,
			ScanType:       "iostat",
			AllocBytes:     alloc,
			FreeBytes:      free,
			CapacityPct:    Capacity(alloc, free),
			ReadOps:        ParseInt64OrNil(f[3]),
			WriteOps:       ParseInt64OrNil(f[4]),
			ReadBandwidth:  ParseInt64OrNil(f[5]),
			WriteBandwidth: optionalIndex(f, 6),
		}
		out = append(out, rec)
	}
	return out
}

func optionalIndex(f []string, i int) *int64 {
	if i >= len(f) {
		return nil
	}
	return ParseInt64OrNil(f[i])
}

// ParseZpoolStatus parses `zpool status` free-text output into ZFSPool
// status records (scan_type="status") plus the vdev topology keywords
// encountered, for callers that need to annotate pool_type elsewhere
// (storage-frequent's "most recent pool record" annotation, §4.3).
func ParseZpoolStatus(host string, output []byte) []model.ZFSPool {
	var out []model.ZFSPool
	now := time.Now()

	var cur *model.ZFSPool
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for _, raw := range splitLines(output) {
		line := strings.TrimRight(raw, " ")
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "pool:"):
			flush()
			cur = &model.ZFSPool{
				Host:          host,
				Pool:          strings.TrimSpace(strings.TrimPrefix(trimmed, "pool:")),
				ScanTimestamp: now,
				ScanType:      "status",
			}
		case cur == nil:
			continue
		case strings.HasPrefix(trimmed, "state:"):
			cur.Health = strings.TrimSpace(strings.TrimPrefix(trimmed, "state:"))
		case strings.HasPrefix(trimmed, "status:"):
			cur.Status = strings.TrimSpace(strings.TrimPrefix(trimmed, "status:"))
		case strings.HasPrefix(trimmed, "errors:"):
			cur.Errors = strings.TrimSpace(strings.TrimPrefix(trimmed, "errors:"))
		default:
			for _, kw := range []string{"raidz1", "raidz2", "raidz3", "mirror", "stripe"} {
				if strings.HasPrefix(trimmed, kw) {
					cur.PoolType = kw
				}
			}
		}
	}
	flush()
	return out
}

// AnnotatePoolType sets PoolType in place on every record of a pool
// whose PoolType is still empty, for §4.3's storage-frequent requirement that
// "topology lines... annotate pool_type on the most recent pool record."
func AnnotatePoolType(pools []model.ZFSPool, poolTypes map[string]string) {
	for i := range pools {
		if t, ok := poolTypes[pools[i].Pool]; ok && pools[i].PoolType == "" {
			pools[i].PoolType = t
		}
	}
}

// DiscoverPoolNames parses `zpool list -H -o name` into a plain name
// list. The Storage collector does not call it; it takes pool names
// from ParseZpoolList's records.
func DiscoverPoolNames(output []byte) []string {
	var names []string
	for _, line := range splitLines(output) {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}
