package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// illumosPageSizeBytes is the standard illumos MMU page size used to
// scale `kstat unix:0:system_pages:` counters (expressed in pages) to
// bytes. A host running a non-default page size would need this read
// from `pagesize(1)`, which the devices/storage/network families have
// no analogue for probing; system-metrics accepts the common default.
const illumosPageSizeBytes = 4096

// SystemMetricsCollector samples CPU, memory, swap, and ZFS ARC state on
// a short cadence, per §4.3's System-metrics collector.
type SystemMetricsCollector struct {
	base
}

func NewSystemMetricsCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string) *SystemMetricsCollector {
	return &SystemMetricsCollector{base{family: platform.FamilySystemMetrics, runner: r, store: s, state: st, host: host}}
}

func (c *SystemMetricsCollector) Family() platform.ResourceFamily { return c.family }

func (c *SystemMetricsCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *SystemMetricsCollector) collect(ctx context.Context) error {
	tasks := []runner.Task{
		{Key: "kstat_arc", Tool: "kstat", Args: []string{"-p", "zfs:0:arcstats:"}},
		{Key: "kstat_pages", Tool: "kstat", Args: []string{"-p", "unix:0:system_pages:"}},
		{Key: "swap", Tool: "swap", Args: []string{"-s"}},
		{Key: "vmstat", Tool: "vmstat", Args: []string{"1", "2"}},
		{Key: "uptime", Tool: "uptime", Args: []string{}},
		{Key: "psrinfo", Tool: "psrinfo", Args: []string{}},
	}
	settled := c.runner.RunParallel(ctx, tasks)
	out := map[string]*runner.Result{}
	for _, r := range settled {
		if r.Err != nil {
			return fmt.Errorf("collect %s: %w", r.Key, r.Err)
		}
		out[r.Key] = r.Result
	}

	arc := platform.ParseKstatARC(c.host, []byte(out["kstat_arc"].Stdout))
	if err := c.store.InsertARCStats(arc); err != nil {
		return fmt.Errorf("insert arc stats: %w", err)
	}

	cpuCount := platform.ParsePsrinfoCPUCount([]byte(out["psrinfo"].Stdout))
	dataLine := lastVmstatDataLine(out["vmstat"].Stdout)
	cpu := platform.ParseVmstatCPU(c.host, dataLine, cpuCount)
	cpu.LoadAvg1, cpu.LoadAvg5, cpu.LoadAvg15 = platform.ParseUptimeLoadAvg([]byte(out["uptime"].Stdout))
	if err := c.store.InsertCPUStats(cpu); err != nil {
		return fmt.Errorf("insert cpu stats: %w", err)
	}

	mem := platform.ParseSwapAndMemory(c.host, []byte(out["kstat_pages"].Stdout), []byte(out["swap"].Stdout), illumosPageSizeBytes)
	if err := c.store.InsertMemoryStats(mem); err != nil {
		return fmt.Errorf("insert memory stats: %w", err)
	}

	return nil
}

// lastVmstatDataLine returns the final numeric data row of a `vmstat 1
// 2` invocation: the first data row is the cumulative-since-boot
// sample, the second is the real-time sample the storage-frequent
// family's "1 2" convention also prefers (§4.3). vmstat's two-line
// header repeats only once (not per-sample, unlike iostat/zpool
// iostat), so rows are identified by their first field being numeric
// rather than by a repeating header marker.
func lastVmstatDataLine(output string) string {
	var last string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		last = trimmed
	}
	return last
}
