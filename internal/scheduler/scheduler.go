// Package scheduler drives the six resource-family collectors on their
// independently configured cadences, the same way the teacher's
// orchestrator fans collectors out over goroutines and waits for
// completion — generalized here from a one-shot report run into a
// continuously ticking daemon loop, one goroutine and time.Ticker per
// collector rather than a single WaitGroup barrier.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/omnizone/hostd/internal/collector"
	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// Scheduler owns the lifecycle of every collector goroutine for one
// host.
type Scheduler struct {
	collectors []collector.Collector
	intervals  map[string]time.Duration
	state      *hoststate.State
	store      *store.Store
	runner     *runner.CommandRunner

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a Scheduler. intervals is keyed by platform.ResourceFamily
// string value; a family with no entry falls back to one minute.
func New(collectors []collector.Collector, intervals map[string]time.Duration, st *hoststate.State, s *store.Store, r *runner.CommandRunner) *Scheduler {
	return &Scheduler{
		collectors: collectors,
		intervals:  intervals,
		state:      st,
		store:      s,
		runner:     r,
	}
}

// Start probes binary availability per family, upserts the initial
// HostInfo row, kicks one immediate async pass per collector, then
// starts each collector's own ticker loop. Calling Start twice is a
// no-op.
func (sch *Scheduler) Start(ctx context.Context) error {
	sch.mu.Lock()
	if sch.running {
		sch.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	sch.cancel = cancel
	sch.running = true
	sch.mu.Unlock()

	sch.probeAvailability()
	sch.state.SetNetworkAccounting(true)
	if err := sch.store.UpsertHostInfo(sch.state.Snapshot(time.Now(), sch.intervals)); err != nil {
		return err
	}

	sch.wg.Add(1)
	go sch.resetStaleErrorsLoop(ctx)

	for _, c := range sch.collectors {
		c := c
		sch.wg.Add(1)
		go sch.runLoop(ctx, c)
	}
	return nil
}

// Stop cancels every collector's ticker loop and waits for in-flight
// passes to return before returning itself.
func (sch *Scheduler) Stop() {
	sch.mu.Lock()
	cancel := sch.cancel
	sch.running = false
	sch.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	sch.wg.Wait()
}

// Restart stops and starts the scheduler, picking up any configuration
// change applied in between (e.g. a changed interval after a config
// reload).
func (sch *Scheduler) Restart(ctx context.Context) error {
	sch.Stop()
	return sch.Start(ctx)
}

func (sch *Scheduler) runLoop(ctx context.Context, c collector.Collector) {
	defer sch.wg.Done()

	interval := sch.intervals[string(c.Family())]
	if interval <= 0 {
		interval = time.Minute
	}

	sch.runOnce(ctx, c)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sch.runOnce(ctx, c)
		}
	}
}

// runOnce invokes one collector pass unless its family has been marked
// unavailable (missing binaries), then republishes the HostInfo
// snapshot so readers always see the freshest health/status picture.
func (sch *Scheduler) runOnce(ctx context.Context, c collector.Collector) {
	if !sch.state.FamilyEnabled(c.Family()) {
		return
	}
	if err := c.Collect(ctx); err != nil {
		log.Printf("[scheduler] %s: %v", c.Family(), err)
	}
	if err := sch.store.UpsertHostInfo(sch.state.Snapshot(time.Now(), sch.intervals)); err != nil {
		log.Printf("[scheduler] upsert host info: %v", err)
	}
}

// resetStaleErrorsLoop periodically clears consecutive-error counts
// that have gone quiet for longer than the configured reset window, so
// a resolved transient failure stops depressing the host's health
// score even without an intervening success (§4.3).
func (sch *Scheduler) resetStaleErrorsLoop(ctx context.Context) {
	defer sch.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sch.state.ResetStaleErrorCounts(time.Now())
		}
	}
}

// probeAvailability marks each resource family enabled or disabled
// based on whether at least one of its non-optional command binaries
// resolves on this host, so a platform missing (say) pptadm or running
// in a minimal zone doesn't spam error counts for commands that will
// never succeed (§7 "Unavailable feature").
func (sch *Scheduler) probeAvailability() {
	seen := map[platform.ResourceFamily]bool{}
	for _, c := range sch.collectors {
		family := c.Family()
		if seen[family] {
			continue
		}
		seen[family] = true

		available := false
		for _, spec := range platform.SpecsForFamily(family) {
			if spec.SoftOptional {
				continue
			}
			if sch.runner.Available(spec.Binary) {
				available = true
				break
			}
		}
		sch.state.SetFamilyEnabled(family, available)
	}
}

// TriggerCollection runs every collector whose family matches kind (or
// every collector if kind is empty) immediately, out of band from its
// own ticker, returning a per-family success map — the manual-trigger
// contract behind POST /monitoring/collect (§4.4, §6).
func (sch *Scheduler) TriggerCollection(ctx context.Context, kind string) map[string]bool {
	results := map[string]bool{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range sch.collectors {
		if kind != "" && string(c.Family()) != kind {
			continue
		}
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Collect(ctx)
			mu.Lock()
			results[string(c.Family())] = err == nil
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := sch.store.UpsertHostInfo(sch.state.Snapshot(time.Now(), sch.intervals)); err != nil {
		log.Printf("[scheduler] upsert host info: %v", err)
	}
	return results
}
