// Package cleanup purges time-series rows and terminal tasks/sessions
// past their configured retention window, on a daily robfig/cron/v3
// schedule, per §4.5.
package cleanup

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omnizone/hostd/internal/config"
	"github.com/omnizone/hostd/internal/store"
)

// task is one named retention sweep.
type task struct {
	name string
	run  func(now time.Time) (int64, error)
}

// Service runs every registered retention task on a daily cron
// schedule.
type Service struct {
	tasks []task
	cron  *cron.Cron
}

// New builds the cleanup Service's task registry from the store's
// retention tables plus the tasks and sessions tables, each bound to
// its configured window.
func New(s *store.Store, cfg config.RetentionConfig) *Service {
	svc := &Service{cron: cron.New()}

	tableWindow := map[string]time.Duration{
		"network_usage": cfg.NetworkUsage,
		"zfs_pools":     cfg.Storage,
		"zfs_datasets":  cfg.Storage,
		"disk_io_stats": cfg.StorageFrequent,
		"pool_io_stats": cfg.StorageFrequent,
		"arc_stats":     cfg.SystemMetrics,
		"cpu_stats":     cfg.SystemMetrics,
		"memory_stats":  cfg.SystemMetrics,
		"pci_devices":   cfg.Devices,
	}

	for _, table := range store.RetentionTableNames() {
		table := table
		window, ok := tableWindow[table]
		if !ok || window <= 0 {
			continue
		}
		svc.tasks = append(svc.tasks, task{
			name: table,
			run: func(now time.Time) (int64, error) {
				return s.DeleteOlderThan(table, now.Add(-window))
			},
		})
	}

	svc.tasks = append(svc.tasks, task{
		name: "tasks",
		run: func(now time.Time) (int64, error) {
			return s.DeleteCompletedTasksOlderThan(now.Add(-cfg.Tasks))
		},
	})
	svc.tasks = append(svc.tasks, task{
		name: "sessions",
		run: func(now time.Time) (int64, error) {
			return s.DeleteClosedSessionsOlderThan(now.Add(-cfg.Tasks))
		},
	})

	return svc
}

// Start schedules the daily sweep at spec (a standard 5-field cron
// expression, e.g. "0 3 * * *") and runs one sweep immediately so a
// freshly started daemon doesn't wait a full day for its first purge.
func (svc *Service) Start(spec string) error {
	if _, err := svc.cron.AddFunc(spec, svc.RunAll); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}
	svc.cron.Start()
	go svc.RunAll()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight sweep to
// finish.
func (svc *Service) Stop() {
	ctx := svc.cron.Stop()
	<-ctx.Done()
}

// RunAll executes every registered retention task once, logging
// per-task row counts and continuing past individual failures so one
// broken table doesn't block the rest of the sweep.
func (svc *Service) RunAll() {
	now := time.Now()
	for _, t := range svc.tasks {
		n, err := t.run(now)
		if err != nil {
			log.Printf("[cleanup] %s: %v", t.name, err)
			continue
		}
		if n > 0 {
			log.Printf("[cleanup] %s: purged %d rows", t.name, n)
		}
	}
}
