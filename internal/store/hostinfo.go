package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// UpsertHostInfo inserts or updates the singleton HostInfo row for a
// host, matching §3: "upserted at init and after every collector pass."
func (s *Store) UpsertHostInfo(h model.HostInfo) error {
	errCounts, err := json.Marshal(h.ErrorCounts)
	if err != nil {
		return fmt.Errorf("marshal error_counts: %w", err)
	}

	_, err = s.DB.Exec(`
		INSERT INTO host_info (
			host, hostname, platform, release, arch, uptime_seconds,
			network_accounting_enabled, last_network_scan, last_usage_scan,
			last_storage_scan, last_storage_frequent_scan, last_device_scan,
			last_system_metrics_scan, error_counts_json, last_error_message, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET
			hostname=excluded.hostname,
			platform=excluded.platform,
			release=excluded.release,
			arch=excluded.arch,
			uptime_seconds=excluded.uptime_seconds,
			network_accounting_enabled=excluded.network_accounting_enabled,
			last_network_scan=COALESCE(excluded.last_network_scan, host_info.last_network_scan),
			last_usage_scan=COALESCE(excluded.last_usage_scan, host_info.last_usage_scan),
			last_storage_scan=COALESCE(excluded.last_storage_scan, host_info.last_storage_scan),
			last_storage_frequent_scan=COALESCE(excluded.last_storage_frequent_scan, host_info.last_storage_frequent_scan),
			last_device_scan=COALESCE(excluded.last_device_scan, host_info.last_device_scan),
			last_system_metrics_scan=COALESCE(excluded.last_system_metrics_scan, host_info.last_system_metrics_scan),
			error_counts_json=excluded.error_counts_json,
			last_error_message=excluded.last_error_message,
			status=excluded.status
	`,
		h.Host, h.Hostname, h.Platform, h.Release, h.Arch, h.UptimeSeconds,
		h.NetworkAccounting, h.LastNetworkScan, h.LastUsageScan,
		h.LastStorageScan, h.LastStorageFastScan, h.LastDeviceScan,
		h.LastMetricsScan, string(errCounts), h.LastErrorMessage, h.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert host_info: %w", err)
	}
	return nil
}

// GetHostInfo reads the HostInfo row for a host, returning
// sql.ErrNoRows if none exists yet.
func (s *Store) GetHostInfo(host string) (*model.HostInfo, error) {
	row := s.DB.QueryRow(`
		SELECT host, hostname, platform, release, arch, uptime_seconds,
			network_accounting_enabled, last_network_scan, last_usage_scan,
			last_storage_scan, last_storage_frequent_scan, last_device_scan,
			last_system_metrics_scan, error_counts_json, last_error_message, status
		FROM host_info WHERE host = ?`, host)

	var h model.HostInfo
	var errCountsJSON string
	var lastNet, lastUsage, lastStorage, lastStorageFast, lastDevice, lastMetrics sql.NullTime

	err := row.Scan(&h.Host, &h.Hostname, &h.Platform, &h.Release, &h.Arch, &h.UptimeSeconds,
		&h.NetworkAccounting, &lastNet, &lastUsage, &lastStorage, &lastStorageFast,
		&lastDevice, &lastMetrics, &errCountsJSON, &h.LastErrorMessage, &h.Status)
	if err != nil {
		return nil, err
	}

	h.LastNetworkScan = nullTimeToPtr(lastNet)
	h.LastUsageScan = nullTimeToPtr(lastUsage)
	h.LastStorageScan = nullTimeToPtr(lastStorage)
	h.LastStorageFastScan = nullTimeToPtr(lastStorageFast)
	h.LastDeviceScan = nullTimeToPtr(lastDevice)
	h.LastMetricsScan = nullTimeToPtr(lastMetrics)

	h.ErrorCounts = map[string]int{}
	_ = json.Unmarshal([]byte(errCountsJSON), &h.ErrorCounts)

	return &h, nil
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
