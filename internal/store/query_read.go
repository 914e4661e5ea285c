package store

import (
	"database/sql"

	"github.com/omnizone/hostd/internal/model"
)

// LatestNetworkInterfaces returns the stored interface rows for a host.
// Replacement is scoped to the links in each scan, so every row is the
// latest for its link; a link missing from later scans keeps its last
// row.
func (s *Store) LatestNetworkInterfaces(host string) ([]model.NetworkInterface, error) {
	rows, err := s.DB.Query(`
		SELECT id, host, link, class, state, mtu, speed, duplex, over, macaddress,
			macaddrtype, vid, zone, policy_json, ports_detail_json, scan_timestamp
		FROM network_interfaces WHERE host = ? ORDER BY link ASC
	`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NetworkInterface
	for rows.Next() {
		var ifc model.NetworkInterface
		var mtu, vid sql.NullInt64
		var speed sql.NullInt64
		if err := rows.Scan(&ifc.ID, &ifc.Host, &ifc.Link, &ifc.Class, &ifc.State, &mtu,
			&speed, &ifc.Duplex, &ifc.Over, &ifc.MACAddress, &ifc.MACAddrType, &vid,
			&ifc.Zone, &ifc.PolicyJSON, &ifc.PortsJSON, &ifc.ScanTimestamp); err != nil {
			return nil, err
		}
		if mtu.Valid {
			v := int(mtu.Int64)
			ifc.MTU = &v
		}
		if speed.Valid {
			v := speed.Int64
			ifc.Speed = &v
		}
		if vid.Valid {
			v := int(vid.Int64)
			ifc.VID = &v
		}
		out = append(out, ifc)
	}
	return out, rows.Err()
}

// LatestIPAddresses returns the current-state IP address rows for a
// host.
func (s *Store) LatestIPAddresses(host string) ([]model.IPAddress, error) {
	rows, err := s.DB.Query(`
		SELECT id, host, interface, address, prefix, ip_version, state, scan_timestamp
		FROM ip_addresses WHERE host = ? ORDER BY interface ASC
	`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IPAddress
	for rows.Next() {
		var a model.IPAddress
		if err := rows.Scan(&a.ID, &a.Host, &a.Interface, &a.Address, &a.Prefix,
			&a.IPVersion, &a.State, &a.ScanTimestamp); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestRoutes returns the current-state route rows for a host.
func (s *Store) LatestRoutes(host string) ([]model.Route, error) {
	rows, err := s.DB.Query(`
		SELECT id, host, destination, gateway, interface, flags, ref, use,
			is_default, ip_version, scan_timestamp
		FROM routes WHERE host = ? ORDER BY destination ASC
	`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Route
	for rows.Next() {
		var r model.Route
		var ref, use sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Host, &r.Destination, &r.Gateway, &r.Interface,
			&r.Flags, &ref, &use, &r.IsDefault, &r.IPVersion, &r.ScanTimestamp); err != nil {
			return nil, err
		}
		if ref.Valid {
			v := ref.Int64
			r.Ref = &v
		}
		if use.Valid {
			v := use.Int64
			r.Use = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestZFSPools returns the most recent row per (pool, scan_type) for
// a host, so a caller sees the latest list/status/iostat perspective
// for each pool without wading through the full append-only history.
func (s *Store) LatestZFSPools(host string) ([]model.ZFSPool, error) {
	rows, err := s.DB.Query(`
		SELECT p.id, p.host, p.pool, p.scan_timestamp, p.scan_type, p.alloc_bytes,
			p.free_bytes, p.capacity_pct, p.read_ops, p.write_ops, p.read_bandwidth,
			p.write_bandwidth, p.health, p.status, p.errors, p.pool_type
		FROM zfs_pools p
		INNER JOIN (
			SELECT pool, scan_type, MAX(scan_timestamp) AS max_ts
			FROM zfs_pools WHERE host = ? GROUP BY pool, scan_type
		) latest ON p.pool = latest.pool AND p.scan_type = latest.scan_type
			AND p.scan_timestamp = latest.max_ts
		WHERE p.host = ?
		ORDER BY p.pool ASC, p.scan_type ASC
	`, host, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ZFSPool
	for rows.Next() {
		var p model.ZFSPool
		if err := rows.Scan(&p.ID, &p.Host, &p.Pool, &p.ScanTimestamp, &p.ScanType,
			&p.AllocBytes, &p.FreeBytes, &p.CapacityPct, &p.ReadOps, &p.WriteOps,
			&p.ReadBandwidth, &p.WriteBandwidth, &p.Health, &p.Status, &p.Errors,
			&p.PoolType); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestZFSDatasets returns the most recent row per dataset name for a
// host, including tombstoned (dataset_exists = false) datasets so a
// caller can distinguish "vanished" from "never seen".
func (s *Store) LatestZFSDatasets(host string) ([]model.ZFSDataset, error) {
	rows, err := s.DB.Query(`
		SELECT d.id, d.host, d.name, d.pool, d.type, d.scan_timestamp, d.used_bytes,
			d.available_bytes, d.referenced_bytes, d.compressratio, d.mountpoint,
			d.properties_json, d.dataset_exists
		FROM zfs_datasets d
		INNER JOIN (
			SELECT name, MAX(scan_timestamp) AS max_ts FROM zfs_datasets
			WHERE host = ? GROUP BY name
		) latest ON d.name = latest.name AND d.scan_timestamp = latest.max_ts
		WHERE d.host = ?
		ORDER BY d.name ASC
	`, host, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ZFSDataset
	for rows.Next() {
		var d model.ZFSDataset
		if err := rows.Scan(&d.ID, &d.Host, &d.Name, &d.Pool, &d.Type, &d.ScanTimestamp,
			&d.UsedBytes, &d.AvailableBytes, &d.ReferencedBytes, &d.CompressRatio,
			&d.Mountpoint, &d.PropertiesJSON, &d.DatasetExists); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LatestDisks returns the current-state disk inventory for a host.
func (s *Store) LatestDisks(host string) ([]model.Disk, error) {
	rows, err := s.DB.Query(`
		SELECT id, host, device_name, disk_index, serial_number, manufacturer, model,
			firmware, capacity_bytes, disk_type, interface_type, pool_assignment,
			is_available, scan_timestamp
		FROM disks WHERE host = ? ORDER BY device_name ASC
	`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Disk
	for rows.Next() {
		var d model.Disk
		var idx sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Host, &d.DeviceName, &idx, &d.SerialNumber,
			&d.Manufacturer, &d.Model, &d.Firmware, &d.CapacityBytes, &d.DiskType,
			&d.InterfaceType, &d.PoolAssignment, &d.IsAvailable, &d.ScanTimestamp); err != nil {
			return nil, err
		}
		if idx.Valid {
			v := int(idx.Int64)
			d.DiskIndex = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LatestDiskIOStats returns the most recent disk_io_stats row per
// device for a host.
func (s *Store) LatestDiskIOStats(host string) ([]model.DiskIOStats, error) {
	rows, err := s.DB.Query(`
		SELECT r.id, r.host, r.device_name, r.scan_timestamp, r.read_ops, r.write_ops,
			r.read_bandwidth, r.write_bandwidth
		FROM disk_io_stats r
		INNER JOIN (
			SELECT device_name, MAX(scan_timestamp) AS max_ts FROM disk_io_stats
			WHERE host = ? GROUP BY device_name
		) latest ON r.device_name = latest.device_name AND r.scan_timestamp = latest.max_ts
		WHERE r.host = ?
		ORDER BY r.device_name ASC
	`, host, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DiskIOStats
	for rows.Next() {
		var r model.DiskIOStats
		if err := rows.Scan(&r.ID, &r.Host, &r.DeviceName, &r.ScanTimestamp, &r.ReadOps,
			&r.WriteOps, &r.ReadBandwidth, &r.WriteBandwidth); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestARCStats returns the most recent ARC sample for a host, or nil
// if none has been collected yet.
func (s *Store) LatestARCStats(host string) (*model.ARCStats, error) {
	row := s.DB.QueryRow(`
		SELECT id, host, scan_timestamp, arc_size, arc_target, arc_min, arc_max,
			mru_size, mfu_size, data_size, meta_size, hits, misses, mru_hits, mfu_hits,
			hit_ratio, data_efficiency, meta_efficiency, l2_size, l2_hits, l2_misses
		FROM arc_stats WHERE host = ? ORDER BY scan_timestamp DESC LIMIT 1
	`, host)

	var a model.ARCStats
	err := row.Scan(&a.ID, &a.Host, &a.ScanTimestamp, &a.ArcSize, &a.ArcTarget, &a.ArcMin,
		&a.ArcMax, &a.MRUSize, &a.MFUSize, &a.DataSize, &a.MetaSize, &a.Hits, &a.Misses,
		&a.MRUHits, &a.MFUHits, &a.HitRatio, &a.DataEfficiency, &a.MetaEfficiency,
		&a.L2Size, &a.L2Hits, &a.L2Misses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestCPUStats returns the most recent CPU sample for a host, or nil
// if none has been collected yet.
func (s *Store) LatestCPUStats(host string) (*model.CPUStats, error) {
	row := s.DB.QueryRow(`
		SELECT id, host, scan_timestamp, utilization_pct, load_avg_1, load_avg_5,
			load_avg_15, context_switches_per_sec, interrupts_per_sec, syscalls_per_sec,
			processes_running, processes_blocked, cpu_count, per_core_json
		FROM cpu_stats WHERE host = ? ORDER BY scan_timestamp DESC LIMIT 1
	`, host)

	var c model.CPUStats
	err := row.Scan(&c.ID, &c.Host, &c.ScanTimestamp, &c.UtilizationPct, &c.LoadAvg1,
		&c.LoadAvg5, &c.LoadAvg15, &c.ContextSwitchesPerSec, &c.InterruptsPerSec,
		&c.SyscallsPerSec, &c.ProcessesRunning, &c.ProcessesBlocked, &c.CPUCount,
		&c.PerCoreJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestMemoryStats returns the most recent memory sample for a host,
// or nil if none has been collected yet.
func (s *Store) LatestMemoryStats(host string) (*model.MemoryStats, error) {
	row := s.DB.QueryRow(`
		SELECT id, host, scan_timestamp, total_bytes, used_bytes, free_bytes,
			utilization_pct, swap_total_bytes, swap_used_bytes, page_in_per_sec,
			page_out_per_sec, page_faults_per_sec
		FROM memory_stats WHERE host = ? ORDER BY scan_timestamp DESC LIMIT 1
	`, host)

	var m model.MemoryStats
	err := row.Scan(&m.ID, &m.Host, &m.ScanTimestamp, &m.TotalBytes, &m.UsedBytes,
		&m.FreeBytes, &m.UtilizationPct, &m.SwapTotalBytes, &m.SwapUsedBytes,
		&m.PageInPerSec, &m.PageOutPerSec, &m.PageFaultsPerSec)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
