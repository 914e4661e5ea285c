package platform

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ParseKstatARC parses `kstat -p zfs:0:arcstats:` colon-delimited
// `name value` output into an ARCStats record, computing hit ratio and
// data/meta efficiency via ARCEfficiency (§4.2).
func ParseKstatARC(host string, output []byte) model.ARCStats {
	rec := model.ARCStats{Host: host, ScanTimestamp: time.Now()}
	kv := map[string]int64{}

	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		nameParts := strings.Split(parts[0], ":")
		name := nameParts[len(nameParts)-1]
		v, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		kv[name] = v
	}

	rec.ArcSize = kv["size"]
	rec.ArcTarget = kv["c"]
	rec.ArcMin = kv["c_min"]
	rec.ArcMax = kv["c_max"]
	rec.MRUSize = kv["p"]
	rec.MFUSize = kv["size"] - kv["p"]
	rec.DataSize = kv["data_size"]
	rec.MetaSize = kv["metadata_size"]
	rec.Hits = kv["hits"]
	rec.Misses = kv["misses"]
	rec.MRUHits = kv["mru_hits"]
	rec.MFUHits = kv["mfu_hits"]
	rec.L2Size = kv["l2_size"]
	rec.L2Hits = kv["l2_hits"]
	rec.L2Misses = kv["l2_misses"]

	hits, misses := kv["hits"], kv["misses"]
	rec.HitRatio = ARCEfficiency(&hits, &misses)

	dataHits, dataMisses := kv["demand_data_hits"], kv["demand_data_misses"]
	rec.DataEfficiency = ARCEfficiency(&dataHits, &dataMisses)

	metaHits, metaMisses := kv["demand_metadata_hits"], kv["demand_metadata_misses"]
	rec.MetaEfficiency = ARCEfficiency(&metaHits, &metaMisses)

	return rec
}

// ParsePsrinfoCPUCount parses `psrinfo` output to count online CPUs.
func ParsePsrinfoCPUCount(output []byte) int {
	count := 0
	for _, line := range splitLines(output) {
		if strings.Contains(line, "on-line") {
			count++
		}
	}
	return count
}

// ParseVmstatCPU parses one data line of `vmstat 1 2` (the real-time
// sample, the first being cumulative-since-boot and skipped, matching
// the storage-frequent sampling convention applied here for consistency)
// into the subset of CPUStats it reports: context switches, interrupts,
// syscalls, and process counts.
func ParseVmstatCPU(host string, dataLine string, cpuCount int) model.CPUStats {
	f := SplitFields(dataLine)
	rec := model.CPUStats{Host: host, ScanTimestamp: time.Now(), CPUCount: cpuCount}
	if len(f) < 17 {
		return rec
	}
	rec.ProcessesRunning = atoiOr0(f[0])
	rec.ProcessesBlocked = atoiOr0(f[1])
	rec.InterruptsPerSec = mustFloat(f[13])
	rec.SyscallsPerSec = mustFloat(f[14])
	rec.ContextSwitchesPerSec = mustFloat(f[15])
	idle := mustFloat(f[len(f)-1])
	rec.UtilizationPct = RoundTo2(100 - idle)
	return rec
}

func atoiOr0(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// ParseUptimeLoadAvg parses the load-average triplet out of `uptime`
// output ("load average: 1.02, 0.98, 0.91").
func ParseUptimeLoadAvg(output []byte) (one, five, fifteen float64) {
	text := string(output)
	idx := strings.Index(text, "load average")
	if idx < 0 {
		return 0, 0, 0
	}
	rest := text[idx:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return 0, 0, 0
	}
	parts := strings.Split(rest[colon+1:], ",")
	if len(parts) < 3 {
		return 0, 0, 0
	}
	one = mustFloat(strings.TrimSpace(parts[0]))
	five = mustFloat(strings.TrimSpace(parts[1]))
	fifteen = mustFloat(strings.TrimSpace(strings.Fields(parts[2])[0]))
	return one, five, fifteen
}

// ParseSwapAndMemory parses `kstat -p unix:0:system_pages:` and `swap
// -s` combined: physmem/pagesfree for memory, and the swap -s
// "allocated/reserved/used/available" summary line for swap.
func ParseSwapAndMemory(host string, pagesOutput []byte, swapOutput []byte, pageSizeBytes int64) model.MemoryStats {
	rec := model.MemoryStats{Host: host, ScanTimestamp: time.Now()}
	kv := map[string]int64{}
	for _, line := range splitLines(pagesOutput) {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		nameParts := strings.Split(parts[0], ":")
		name := nameParts[len(nameParts)-1]
		if v, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			kv[name] = v
		}
	}

	rec.TotalBytes = kv["physmem"] * pageSizeBytes
	rec.FreeBytes = kv["pagesfree"] * pageSizeBytes
	rec.UsedBytes = rec.TotalBytes - rec.FreeBytes
	if rec.TotalBytes > 0 {
		rec.UtilizationPct = RoundTo2(float64(rec.UsedBytes) / float64(rec.TotalBytes) * 100)
	}

	swapText := string(swapOutput)
	if used := extractSwapField(swapText, "used"); used != nil {
		rec.SwapUsedBytes = *used
	}
	if total := extractSwapField(swapText, "total"); total != nil {
		rec.SwapTotalBytes = *total
	}

	return rec
}

func extractSwapField(text, field string) *int64 {
	idx := strings.Index(text, field+" =")
	if idx < 0 {
		return nil
	}
	rest := strings.TrimSpace(text[idx+len(field)+2:])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	v, ok := ParseSizeToBytes(fields[0])
	if !ok {
		return nil
	}
	return v
}

// PerCoreSample is one CPU core's utilization, serialized as the
// per_core_json sub-document CPUStats carries when `include_cores` is
// requested on the Query API (§6).
type PerCoreSample struct {
	Core           int     `json:"core"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// EncodePerCoreJSON serializes per-core samples for storage on
// CPUStats.PerCoreJSON.
func EncodePerCoreJSON(samples []PerCoreSample) string {
	b, err := json.Marshal(samples)
	if err != nil {
		return ""
	}
	return string(b)
}
