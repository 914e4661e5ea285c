package collector

import (
	"context"
	"fmt"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// StorageCollector discovers pools, zones, zone-related datasets, and
// disks, recording append-only perspectives for pools/datasets and a
// current-state replace for disks, per §4.3's Storage collector. Pools
// and zones are discovered dynamically on every pass rather than
// hard-coded, so a pool or zone created between passes is picked up
// without a restart.
type StorageCollector struct {
	base
}

func NewStorageCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string) *StorageCollector {
	return &StorageCollector{base{family: platform.FamilyStorage, runner: r, store: s, state: st, host: host}}
}

func (c *StorageCollector) Family() platform.ResourceFamily { return c.family }

func (c *StorageCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *StorageCollector) collect(ctx context.Context) error {
	tasks := []runner.Task{
		{Key: "zpool_list", Tool: "zpool", Args: []string{"list", "-Hp", "-o", "name,size,alloc,free,capacity,health"}},
		{Key: "zpool_status", Tool: "zpool", Args: []string{"status"}},
		{Key: "zfs_list", Tool: "zfs", Args: []string{"list", "-Hp", "-o", "name,used,avail,refer,type,compressratio,mountpoint"}},
		{Key: "zoneadm_list", Tool: "zoneadm", Args: []string{"list", "-cp"}},
		{Key: "diskinfo", Tool: "diskinfo", Args: []string{"-Hp"}},
	}
	settled := c.runner.RunParallel(ctx, tasks)
	out := map[string]*runner.Result{}
	for _, r := range settled {
		if r.Err != nil {
			return fmt.Errorf("collect %s: %w", r.Key, r.Err)
		}
		out[r.Key] = r.Result
	}

	listPools := platform.ParseZpoolList(c.host, []byte(out["zpool_list"].Stdout))
	statusPools := platform.ParseZpoolStatus(c.host, []byte(out["zpool_status"].Stdout))
	zones := platform.ParseZoneadmList([]byte(out["zoneadm_list"].Stdout))

	allPools := append(append([]model.ZFSPool{}, listPools...), statusPools...)
	if err := c.store.InsertZFSPools(allPools); err != nil {
		return fmt.Errorf("insert zfs pools: %w", err)
	}

	datasets := platform.ParseZfsList(c.host, []byte(out["zfs_list"].Stdout))
	var zoneDatasets []model.ZFSDataset
	currentByPool := map[string][]string{}
	for _, d := range datasets {
		if !platform.IsZoneRelatedDataset(d.Name, zones) {
			continue
		}
		zoneDatasets = append(zoneDatasets, d)
		currentByPool[d.Pool] = append(currentByPool[d.Pool], d.Name)
	}

	for pool, names := range currentByPool {
		known, err := c.store.KnownDatasetNames(c.host, pool)
		if err != nil {
			return fmt.Errorf("known dataset names for %s: %w", pool, err)
		}
		for _, k := range known {
			if !contains(names, k) {
				zoneDatasets = append(zoneDatasets, platform.MissingDataset(c.host, k, pool))
			}
		}
	}

	if err := c.store.InsertZFSDatasets(zoneDatasets); err != nil {
		return fmt.Errorf("insert zfs datasets: %w", err)
	}

	disks := platform.ParseDiskinfo(c.host, []byte(out["diskinfo"].Stdout))
	statusText := out["zpool_status"].Stdout
	for i := range disks {
		disks[i].PoolAssignment = platform.CrossReferenceDiskToPool(statusText, disks[i].DeviceName, disks[i].SerialNumber)
	}
	if err := c.store.UpsertDisks(c.host, disks); err != nil {
		return fmt.Errorf("upsert disks: %w", err)
	}

	return nil
}
