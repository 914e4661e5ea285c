package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// QueryPoolIOStats implements the same three §4.7 read strategies as
// QueryNetworkUsage, applied to pool_io_stats with pool as the entity
// key instead of link.
func (s *Store) QueryPoolIOStats(host, pool string, since *time.Time, limit, samples int, perEntity bool) ([]model.PoolIOStats, SamplingMeta, error) {
	var rows []model.PoolIOStats
	var meta SamplingMeta

	elapsed, err := timeIt(func() error {
		var innerErr error
		switch {
		case perEntity && since == nil:
			rows, innerErr = s.latestPoolIOStatsPerPool(host, pool)
			meta = SamplingMeta{Strategy: StrategyLatestPerEntity}
		case perEntity && since != nil:
			rows, meta, innerErr = s.evenSampledPoolIOStats(host, pool, *since, samples)
		default:
			rows, innerErr = s.flatPoolIOStats(host, pool, since, limit)
			meta = SamplingMeta{Strategy: StrategyLimitOrderDesc}
		}
		return innerErr
	})
	meta.QueryTimeMs = elapsed
	if err != nil {
		return nil, meta, err
	}
	return rows, meta, nil
}

func scanPoolIOStats(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.PoolIOStats, error) {
	var out []model.PoolIOStats
	for rows.Next() {
		var p model.PoolIOStats
		if err := rows.Scan(&p.Host, &p.Pool, &p.ScanTimestamp, &p.ReadOps, &p.WriteOps,
			&p.ReadBandwidth, &p.WriteBandwidth, &p.TotalWait, &p.DiskWait, &p.SyncqWait,
			&p.AsyncqWait, &p.ScrubWait, &p.TrimWait, &p.PoolType); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const poolIOStatsColumns = `host, pool, scan_timestamp, read_ops, write_ops, read_bandwidth,
	write_bandwidth, total_wait, disk_wait, syncq_wait, asyncq_wait, scrub_wait, trim_wait, pool_type`

func (s *Store) latestPoolIOStatsPerPool(host, pool string) ([]model.PoolIOStats, error) {
	query := `
		SELECT p.host, p.pool, p.scan_timestamp, p.read_ops, p.write_ops, p.read_bandwidth,
			p.write_bandwidth, p.total_wait, p.disk_wait, p.syncq_wait, p.asyncq_wait,
			p.scrub_wait, p.trim_wait, p.pool_type
		FROM pool_io_stats p
		INNER JOIN (
			SELECT pool, MAX(scan_timestamp) AS max_ts FROM pool_io_stats WHERE host = ?
	`
	args := []any{host}
	if pool != "" {
		query += ` AND pool = ?`
		args = append(args, pool)
	}
	query += ` GROUP BY pool ) latest ON p.pool = latest.pool AND p.scan_timestamp = latest.max_ts
		WHERE p.host = ?`
	args = append(args, host)

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPoolIOStats(rows)
}

func (s *Store) evenSampledPoolIOStats(host, pool string, since time.Time, samples int) ([]model.PoolIOStats, SamplingMeta, error) {
	query := fmt.Sprintf(`SELECT %s FROM pool_io_stats WHERE host = ? AND scan_timestamp >= ?`, poolIOStatsColumns)
	args := []any{host, since}
	if pool != "" {
		query += ` AND pool = ?`
		args = append(args, pool)
	}
	query += ` ORDER BY pool ASC, scan_timestamp ASC`

	dbRows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, SamplingMeta{}, err
	}
	defer dbRows.Close()
	all, err := scanPoolIOStats(dbRows)
	if err != nil {
		return nil, SamplingMeta{}, err
	}

	byPool := map[string][]model.PoolIOStats{}
	var poolOrder []string
	for _, p := range all {
		if _, ok := byPool[p.Pool]; !ok {
			poolOrder = append(poolOrder, p.Pool)
		}
		byPool[p.Pool] = append(byPool[p.Pool], p)
	}
	sort.Strings(poolOrder)

	if samples <= 0 {
		samples = 100
	}

	var out []model.PoolIOStats
	for _, p := range poolOrder {
		entityRows := byPool[p]
		for _, idx := range EvenSampleIndices(len(entityRows), samples) {
			out = append(out, entityRows[idx])
		}
	}

	return out, SamplingMeta{Strategy: StrategyEvenPerEntity, EntityCount: len(poolOrder)}, nil
}

func (s *Store) flatPoolIOStats(host, pool string, since *time.Time, limit int) ([]model.PoolIOStats, error) {
	query := fmt.Sprintf(`SELECT %s FROM pool_io_stats WHERE host = ?`, poolIOStatsColumns)
	args := []any{host}
	if pool != "" {
		query += ` AND pool = ?`
		args = append(args, pool)
	}
	if since != nil {
		query += ` AND scan_timestamp >= ?`
		args = append(args, *since)
	}
	query += ` ORDER BY scan_timestamp DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPoolIOStats(rows)
}
