package collector

import (
	"context"
	"fmt"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// StorageFrequentCollector samples pool and per-disk I/O at a short
// cadence using each command's own "1 2" sampling pair: the first,
// cumulative-since-boot sample is discarded and only the second,
// real-time sample is parsed and persisted, per §4.3. Pool rows are
// additionally annotated with the pool_type most recently discovered
// by the Storage collector's zpool status pass, since storage-frequent
// itself never calls zpool status.
type StorageFrequentCollector struct {
	base
}

func NewStorageFrequentCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string) *StorageFrequentCollector {
	return &StorageFrequentCollector{base{family: platform.FamilyStorageFrequent, runner: r, store: s, state: st, host: host}}
}

func (c *StorageFrequentCollector) Family() platform.ResourceFamily { return c.family }

func (c *StorageFrequentCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *StorageFrequentCollector) collect(ctx context.Context) error {
	tasks := []runner.Task{
		{Key: "zpool_iostat", Tool: "zpool", Args: []string{"iostat", "-lq", "1", "2"}},
		{Key: "iostat_disk", Tool: "iostat", Args: []string{"-xn", "1", "2"}},
	}
	settled := c.runner.RunParallel(ctx, tasks)
	out := map[string]*runner.Result{}
	for _, r := range settled {
		if r.Err != nil {
			return fmt.Errorf("collect %s: %w", r.Key, r.Err)
		}
		out[r.Key] = r.Result
	}

	_, poolSecond := platform.SplitIostatSamplingPair([]byte(out["zpool_iostat"].Stdout), "capacity")
	pools := platform.ParsePoolIostatLatency(c.host, poolSecond)
	for i := range pools {
		t, err := c.store.MostRecentPoolTypeByPool(c.host, pools[i].Pool)
		if err != nil {
			return fmt.Errorf("most recent pool type for %s: %w", pools[i].Pool, err)
		}
		pools[i].PoolType = t
	}
	if err := c.store.InsertPoolIOStatsBatch(pools); err != nil {
		return fmt.Errorf("insert pool io stats: %w", err)
	}

	_, diskSecond := platform.SplitIostatSamplingPair([]byte(out["iostat_disk"].Stdout), "extended device statistics")
	disks := platform.ParseIostatDisk(c.host, diskSecond)
	if err := c.store.InsertDiskIOStatsBatch(disks); err != nil {
		return fmt.Errorf("insert disk io stats: %w", err)
	}

	return nil
}
