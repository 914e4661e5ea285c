package store

import (
	"fmt"

	"github.com/omnizone/hostd/internal/model"
)

// InsertCPUStats appends a single system-wide CPU sample row.
func (s *Store) InsertCPUStats(c model.CPUStats) error {
	_, err := s.DB.Exec(`
		INSERT INTO cpu_stats (
			host, scan_timestamp, utilization_pct, load_avg_1, load_avg_5,
			load_avg_15, context_switches_per_sec, interrupts_per_sec,
			syscalls_per_sec, processes_running, processes_blocked, cpu_count,
			per_core_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Host, c.ScanTimestamp, c.UtilizationPct, c.LoadAvg1, c.LoadAvg5, c.LoadAvg15,
		c.ContextSwitchesPerSec, c.InterruptsPerSec, c.SyscallsPerSec,
		c.ProcessesRunning, c.ProcessesBlocked, c.CPUCount, c.PerCoreJSON)
	if err != nil {
		return fmt.Errorf("insert cpu_stats: %w", err)
	}
	return nil
}

// InsertMemoryStats appends a single system-wide memory sample row.
func (s *Store) InsertMemoryStats(m model.MemoryStats) error {
	_, err := s.DB.Exec(`
		INSERT INTO memory_stats (
			host, scan_timestamp, total_bytes, used_bytes, free_bytes,
			utilization_pct, swap_total_bytes, swap_used_bytes, page_in_per_sec,
			page_out_per_sec, page_faults_per_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Host, m.ScanTimestamp, m.TotalBytes, m.UsedBytes, m.FreeBytes,
		m.UtilizationPct, m.SwapTotalBytes, m.SwapUsedBytes, m.PageInPerSec,
		m.PageOutPerSec, m.PageFaultsPerSec)
	if err != nil {
		return fmt.Errorf("insert memory_stats: %w", err)
	}
	return nil
}
