// Package collector implements the six resource-family collectors:
// network-config, network-usage, storage, storage-frequent, devices,
// and system-metrics. Each wraps a platform command runner, a parser
// set, and a persistence step behind a single-flight latch, following
// the same Collector-interface shape the teacher's collectors do —
// generalized from procfs polling to illumos command-line tools.
package collector

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// Collector is implemented by each of the six resource-family
// collectors.
type Collector interface {
	Family() platform.ResourceFamily
	Collect(ctx context.Context) error
}

// base provides the single-flight latch and error-accounting wiring
// shared by every collector, matching §4.3's "an internal boolean
// latch; if collect() is invoked re-entrantly while busy, it returns
// immediately (a no-op)."
type base struct {
	family  platform.ResourceFamily
	busy    atomic.Bool
	runner  *runner.CommandRunner
	store   *store.Store
	state   *hoststate.State
	host    string
}

// guard runs fn unless this collector is already mid-pass, recording
// success/error with hoststate either way, and returns fn's error to
// the caller so the Scheduler can report a per-collector success flag
// (§4.4). A re-entrant call while busy is a silent no-op, not an
// error — it simply returns nil.
func (b *base) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.busy.CompareAndSwap(false, true) {
		return nil
	}
	defer b.busy.Store(false)

	now := time.Now()
	if err := fn(ctx); err != nil {
		log.Printf("[collector:%s] error: %v", b.family, err)
		b.state.RecordError(b.family, err, now)
		return err
	}
	b.state.RecordSuccess(b.family, now)
	return nil
}
