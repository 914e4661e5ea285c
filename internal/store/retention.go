package store

import (
	"fmt"
	"time"
)

// retentionTables maps each time-series table to the timestamp column
// cleanup should prune on. Tasks and console sessions have their own
// dedicated deletion logic (DeleteCompletedTasksOlderThan,
// DeleteClosedSessionsOlderThan) since they prune with a status filter
// on completed_at or last_seen, not scan_timestamp.
var retentionTables = map[string]string{
	"network_usage":  "scan_timestamp",
	"zfs_pools":      "scan_timestamp",
	"zfs_datasets":   "scan_timestamp",
	"disk_io_stats":  "scan_timestamp",
	"pool_io_stats":  "scan_timestamp",
	"arc_stats":      "scan_timestamp",
	"cpu_stats":      "scan_timestamp",
	"memory_stats":   "scan_timestamp",
	"pci_devices":    "scan_timestamp",
}

// DeleteOlderThan purges rows in table older than cutoff. table must
// be a key of retentionTables; callers never accept it from request
// input, so building the query by string concat here is safe — the
// value is always one of the constants above, never user data.
func (s *Store) DeleteOlderThan(table string, cutoff time.Time) (int64, error) {
	col, ok := retentionTables[table]
	if !ok {
		return 0, fmt.Errorf("no retention column registered for table %q", table)
	}
	res, err := s.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE %s < ?`, table, col), cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return res.RowsAffected()
}

// DeleteClosedSessionsOlderThan purges closed console sessions past
// the retention cutoff.
func (s *Store) DeleteClosedSessionsOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.DB.Exec(`DELETE FROM sessions WHERE status = 'closed' AND last_seen < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge closed sessions: %w", err)
	}
	return res.RowsAffected()
}

// RetentionTableNames returns the table names DeleteOlderThan accepts,
// for the cleanup scheduler to range over at startup.
func RetentionTableNames() []string {
	names := make([]string, 0, len(retentionTables))
	for name := range retentionTables {
		names = append(names, name)
	}
	return names
}
