package platform

import (
	"strconv"
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ParseIostatDisk parses the per-device section of `iostat -xn` output
// into DiskIOStats records. Header and separator lines are tolerated and
// skipped (§4.2).
func ParseIostatDisk(host string, output []byte) []model.DiskIOStats {
	var out []model.DiskIOStats
	now := time.Now()
	for _, line := range splitLines(output) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "r/s") || strings.HasPrefix(trimmed, "extended") {
			continue
		}
		f := SplitFields(trimmed)
		if len(f) < 6 {
			continue
		}
		device := f[len(f)-1]
		if !looksLikeDiskDevice(device) {
			continue
		}
		rec := model.DiskIOStats{
			Host:           host,
			DeviceName:     device,
			ScanTimestamp:  now,
			ReadOps:        mustFloat(f[0]),
			WriteOps:       mustFloat(f[1]),
			ReadBandwidth:  mustFloat(f[2]),
			WriteBandwidth: mustFloat(f[3]),
		}
		out = append(out, rec)
	}
	return out
}

func looksLikeDiskDevice(name string) bool {
	return strings.HasPrefix(name, "c") || strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "rpool") || strings.Contains(name, "d0")
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParsePoolIostatLatency parses `zpool iostat -lq` (queue/latency
// breakdown) output for one sampling pass into PoolIOStats records,
// reading total/disk/syncq/asyncq/scrub/trim wait columns where present.
func ParsePoolIostatLatency(host string, output []byte) []model.PoolIOStats {
	var out []model.PoolIOStats
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "pool") || strings.HasPrefix(line, "capacity") {
			continue
		}
		f := SplitFields(line)
		if len(f) < 6 {
			continue
		}
		rec := model.PoolIOStats{
			Host:           host,
			Pool:           f[0],
			ScanTimestamp:  now,
			ReadOps:        mustFloat(f[3]),
			WriteOps:       mustFloat(f[4]),
			ReadBandwidth:  mustFloat(f[5]),
			WriteBandwidth: optFloat(f, 6),
		}
		rec.TotalWait = optFloatPtr(f, 7)
		rec.DiskWait = optFloatPtr(f, 8)
		rec.SyncqWait = optFloatPtr(f, 9)
		rec.AsyncqWait = optFloatPtr(f, 10)
		rec.ScrubWait = optFloatPtr(f, 11)
		rec.TrimWait = optFloatPtr(f, 12)
		out = append(out, rec)
	}
	return out
}

func optFloat(f []string, i int) float64 {
	if i >= len(f) {
		return 0
	}
	return mustFloat(f[i])
}

func optFloatPtr(f []string, i int) *float64 {
	if i >= len(f) {
		return nil
	}
	return ParseFloat64OrNil(f[i])
}

// SplitIostatSamplingPair splits the output of an `iostat ... 1 2` call
// (or `zpool iostat ... 1 2`) into the cumulative-since-boot first
// sample and the real-time second sample, per §4.3's storage-frequent
// contract: "the first set (cumulative) is skipped, the second
// (real-time) is parsed." Samples are separated by the command
// repeating its header block.
func SplitIostatSamplingPair(output []byte, headerMarker string) (first, second []byte) {
	text := string(output)
	idx := strings.Index(text, headerMarker)
	if idx < 0 {
		return output, nil
	}
	secondIdx := strings.Index(text[idx+len(headerMarker):], headerMarker)
	if secondIdx < 0 {
		return []byte(text[:idx]), []byte(text[idx:])
	}
	secondIdx += idx + len(headerMarker)
	return []byte(text[:secondIdx]), []byte(text[secondIdx:])
}
