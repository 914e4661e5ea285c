package store

import (
	"fmt"

	"github.com/omnizone/hostd/internal/model"
)

// InsertZFSPools appends pool rows. Each scan_type (iostat, status,
// list) is an independent perspective that never overwrites another;
// the table is purely append-only, matching §4.4.
func (s *Store) InsertZFSPools(pools []model.ZFSPool) error {
	if len(pools) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO zfs_pools (
			host, pool, scan_timestamp, scan_type, alloc_bytes, free_bytes,
			capacity_pct, read_ops, write_ops, read_bandwidth, write_bandwidth,
			health, status, errors, pool_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pools {
		if _, err := stmt.Exec(p.Host, p.Pool, p.ScanTimestamp, p.ScanType, p.AllocBytes,
			p.FreeBytes, p.CapacityPct, p.ReadOps, p.WriteOps, p.ReadBandwidth,
			p.WriteBandwidth, p.Health, p.Status, p.Errors, p.PoolType); err != nil {
			return fmt.Errorf("insert zfs_pool %s/%s: %w", p.Pool, p.ScanType, err)
		}
	}
	return tx.Commit()
}

// MostRecentPoolTypeByPool returns the pool_type already recorded for
// pool on its most recent annotated row, if any — used so a pool's
// topology, once determined from zpool status, need not be
// rediscovered on every iostat/list pass.
func (s *Store) MostRecentPoolTypeByPool(host, pool string) (string, error) {
	var poolType string
	row := s.DB.QueryRow(`
		SELECT pool_type FROM zfs_pools
		WHERE host = ? AND pool = ? AND pool_type != ''
		ORDER BY scan_timestamp DESC LIMIT 1
	`, host, pool)
	if err := row.Scan(&poolType); err != nil {
		return "", nil
	}
	return poolType, nil
}

// InsertZFSDatasets appends dataset rows, including tombstone rows for
// datasets that have vanished (dataset_exists = false), per §4.4.
func (s *Store) InsertZFSDatasets(datasets []model.ZFSDataset) error {
	if len(datasets) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO zfs_datasets (
			host, name, pool, type, scan_timestamp, used_bytes, available_bytes,
			referenced_bytes, compressratio, mountpoint, properties_json, dataset_exists
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range datasets {
		if _, err := stmt.Exec(d.Host, d.Name, d.Pool, d.Type, d.ScanTimestamp, d.UsedBytes,
			d.AvailableBytes, d.ReferencedBytes, d.CompressRatio, d.Mountpoint,
			d.PropertiesJSON, d.DatasetExists); err != nil {
			return fmt.Errorf("insert zfs_dataset %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// KnownDatasetNames returns the dataset names last seen present
// (dataset_exists = true) for a host/pool on the most recent scan,
// used by the storage collector to detect vanished datasets that
// need a tombstone row on the next pass.
func (s *Store) KnownDatasetNames(host, pool string) ([]string, error) {
	rows, err := s.DB.Query(`
		SELECT DISTINCT name FROM zfs_datasets
		WHERE host = ? AND pool = ? AND dataset_exists = 1
		AND scan_timestamp = (
			SELECT MAX(scan_timestamp) FROM zfs_datasets WHERE host = ? AND pool = ?
		)
	`, host, pool, host, pool)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// UpsertDisks replaces the current-state disk inventory for a host,
// matching the same delete-then-insert idiom used for routes and IP
// addresses — a disk no longer visible to diskinfo shouldn't linger
// in the current-state view.
func (s *Store) UpsertDisks(host string, disks []model.Disk) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM disks WHERE host = ?`, host); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO disks (
			host, device_name, disk_index, serial_number, manufacturer, model,
			firmware, capacity_bytes, disk_type, interface_type, pool_assignment,
			is_available, scan_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range disks {
		if _, err := stmt.Exec(host, d.DeviceName, d.DiskIndex, d.SerialNumber, d.Manufacturer,
			d.Model, d.Firmware, d.CapacityBytes, d.DiskType, d.InterfaceType,
			d.PoolAssignment, d.IsAvailable, d.ScanTimestamp); err != nil {
			return fmt.Errorf("insert disk %s: %w", d.DeviceName, err)
		}
	}
	return tx.Commit()
}

// InsertDiskIOStatsBatch appends disk I/O sample rows.
func (s *Store) InsertDiskIOStatsBatch(rows []model.DiskIOStats) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO disk_io_stats (
			host, device_name, scan_timestamp, read_ops, write_ops,
			read_bandwidth, write_bandwidth
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Host, r.DeviceName, r.ScanTimestamp, r.ReadOps,
			r.WriteOps, r.ReadBandwidth, r.WriteBandwidth); err != nil {
			return fmt.Errorf("insert disk_io_stats %s: %w", r.DeviceName, err)
		}
	}
	return tx.Commit()
}

// InsertPoolIOStatsBatch appends pool-level latency sample rows.
func (s *Store) InsertPoolIOStatsBatch(rows []model.PoolIOStats) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO pool_io_stats (
			host, pool, scan_timestamp, read_ops, write_ops, read_bandwidth,
			write_bandwidth, total_wait, disk_wait, syncq_wait, asyncq_wait,
			scrub_wait, trim_wait, pool_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Host, r.Pool, r.ScanTimestamp, r.ReadOps, r.WriteOps,
			r.ReadBandwidth, r.WriteBandwidth, r.TotalWait, r.DiskWait, r.SyncqWait,
			r.AsyncqWait, r.ScrubWait, r.TrimWait, r.PoolType); err != nil {
			return fmt.Errorf("insert pool_io_stats %s: %w", r.Pool, err)
		}
	}
	return tx.Commit()
}

// InsertARCStats appends a single ARC sample row.
func (s *Store) InsertARCStats(a model.ARCStats) error {
	_, err := s.DB.Exec(`
		INSERT INTO arc_stats (
			host, scan_timestamp, arc_size, arc_target, arc_min, arc_max,
			mru_size, mfu_size, data_size, meta_size, hits, misses, mru_hits,
			mfu_hits, hit_ratio, data_efficiency, meta_efficiency,
			l2_size, l2_hits, l2_misses
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Host, a.ScanTimestamp, a.ArcSize, a.ArcTarget, a.ArcMin, a.ArcMax,
		a.MRUSize, a.MFUSize, a.DataSize, a.MetaSize, a.Hits, a.Misses, a.MRUHits,
		a.MFUHits, a.HitRatio, a.DataEfficiency, a.MetaEfficiency,
		a.L2Size, a.L2Hits, a.L2Misses)
	if err != nil {
		return fmt.Errorf("insert arc_stats: %w", err)
	}
	return nil
}
