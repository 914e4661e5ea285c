package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// QueryNetworkUsage implements §4.7's three read strategies for the
// network_usage time series: latest-per-entity when no since is
// given, even index-sampling per entity when since is given, or a
// flat limit/order-by-time-desc scan when per_entity is false.
func (s *Store) QueryNetworkUsage(host, link string, since *time.Time, limit, samples int, perEntity bool) ([]model.NetworkUsage, SamplingMeta, error) {
	var rows []model.NetworkUsage
	var meta SamplingMeta

	elapsed, err := timeIt(func() error {
		var innerErr error
		switch {
		case perEntity && since == nil:
			rows, innerErr = s.latestNetworkUsagePerLink(host, link)
			meta = SamplingMeta{Strategy: StrategyLatestPerEntity}
		case perEntity && since != nil:
			rows, meta, innerErr = s.evenSampledNetworkUsage(host, link, *since, samples)
		default:
			rows, innerErr = s.flatNetworkUsage(host, link, since, limit)
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

func (s *Store) latestNetworkUsagePerLink(host, link string) ([]model.NetworkUsage, error) {
	query := `
		SELECT u.host, u.link, u.scan_timestamp, u.rbytes, u.obytes, u.ipackets,
			u.opackets, u.ierrors, u.oerrors, u.rbytes_delta, u.obytes_delta,
			u.rx_bps, u.tx_bps, u.rx_mbps, u.tx_mbps, u.rx_utilization_pct,
			u.tx_utilization_pct, u.interface_speed_mbps, u.interface_class,
			u.time_delta_seconds, u.truncation_confidence
		FROM network_usage u
		INNER JOIN (
			SELECT link, MAX(scan_timestamp) AS max_ts FROM network_usage
			WHERE host = ?
	`
	args := []any{host}
	if link != "" {
		query += ` AND link = ?`
		args = append(args, link)
	}
	query += ` GROUP BY link ) latest ON u.link = latest.link AND u.scan_timestamp = latest.max_ts
		WHERE u.host = ?`
	args = append(args, host)

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNetworkUsage(rows)
}

func (s *Store) evenSampledNetworkUsage(host, link string, since time.Time, samples int) ([]model.NetworkUsage, SamplingMeta, error) {
	query := `
		SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
			ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps, rx_mbps,
			tx_mbps, rx_utilization_pct, tx_utilization_pct, interface_speed_mbps,
			interface_class, time_delta_seconds, truncation_confidence
		FROM network_usage WHERE host = ? AND scan_timestamp >= ?
	`
	args := []any{host, since}
	if link != "" {
		query += ` AND link = ?`
		args = append(args, link)
	}
	query += ` ORDER BY link ASC, scan_timestamp ASC`

	dbRows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, SamplingMeta{}, err
	}
	defer dbRows.Close()
	all, err := scanNetworkUsage(dbRows)
	if err != nil {
		return nil, SamplingMeta{}, err
	}

	byLink := map[string][]model.NetworkUsage{}
	var linkOrder []string
	for _, u := range all {
		if _, ok := byLink[u.Link]; !ok {
			linkOrder = append(linkOrder, u.Link)
		}
		byLink[u.Link] = append(byLink[u.Link], u)
	}
	sort.Strings(linkOrder)

	if samples <= 0 {
		samples = 100
	}

	var out []model.NetworkUsage
	for _, l := range linkOrder {
		entityRows := byLink[l]
		for _, idx := range EvenSampleIndices(len(entityRows), samples) {
			out = append(out, entityRows[idx])
		}
	}

	return out, SamplingMeta{Strategy: StrategyEvenPerEntity, EntityCount: len(linkOrder)}, nil
}

func (s *Store) flatNetworkUsage(host, link string, since *time.Time, limit int) ([]model.NetworkUsage, error) {
	query := `
		SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
			ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps, rx_mbps,
			tx_mbps, rx_utilization_pct, tx_utilization_pct, interface_speed_mbps,
			interface_class, time_delta_seconds, truncation_confidence
		FROM network_usage WHERE host = ?
	`
	args := []any{host}
	if link != "" {
		query += ` AND link = ?`
		args = append(args, link)
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
	return scanNetworkUsage(rows)
}

// QueryNetworkUsageBucketed implements §4.7's database-side NTILE
// bucketisation: partition each link's rows (ordered by time) into
// bucketCount buckets and keep the earliest row per bucket. Falls
// back to parallel per-link offset-stepping if the driver rejects the
// window-function query (older sqlite builds without NTILE support).
func (s *Store) QueryNetworkUsageBucketed(host, link string, since time.Time, bucketCount int) ([]model.NetworkUsage, SamplingMeta, error) {
	if bucketCount <= 0 {
		bucketCount = 100
	}

	var rows []model.NetworkUsage
	var meta SamplingMeta
	elapsed, err := timeIt(func() error {
		r, ntileErr := s.ntileBucketedNetworkUsage(host, link, since, bucketCount)
		if ntileErr == nil {
			rows = r
			meta = SamplingMeta{Strategy: StrategyNTileBucket, BucketCount: bucketCount}
			return nil
		}
		r, fallbackErr := s.offsetSteppedNetworkUsage(host, link, since, bucketCount)
		if fallbackErr != nil {
			return fallbackErr
		}
		rows = r
		meta = SamplingMeta{Strategy: StrategyEvenPerEntity, BucketCount: bucketCount}
		return nil
	})
	meta.QueryTimeMs = elapsed
	return rows, meta, err
}

func (s *Store) ntileBucketedNetworkUsage(host, link string, since time.Time, bucketCount int) ([]model.NetworkUsage, error) {
	linkFilter := ""
	if link != "" {
		linkFilter = " AND link = ?"
	}

	query := fmt.Sprintf(`
		WITH tiled AS (
			SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
				ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps, rx_mbps,
				tx_mbps, rx_utilization_pct, tx_utilization_pct, interface_speed_mbps,
				interface_class, time_delta_seconds, truncation_confidence,
				NTILE(%d) OVER (PARTITION BY link ORDER BY scan_timestamp ASC) AS bucket
			FROM network_usage WHERE host = ?%s AND scan_timestamp >= ?
		), bucketed AS (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY link, bucket ORDER BY scan_timestamp ASC
			) AS rn
			FROM tiled
		)
		SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
			ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps, rx_mbps,
			tx_mbps, rx_utilization_pct, tx_utilization_pct, interface_speed_mbps,
			interface_class, time_delta_seconds, truncation_confidence
		FROM bucketed WHERE rn = 1 ORDER BY link ASC, scan_timestamp ASC
	`, bucketCount, linkFilter)

	args := []any{host}
	if link != "" {
		args = append(args, link)
	}
	args = append(args, since)

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNetworkUsage(rows)
}

func (s *Store) offsetSteppedNetworkUsage(host, link string, since time.Time, bucketCount int) ([]model.NetworkUsage, error) {
	links, err := s.KnownLinkNames(host)
	if err != nil {
		return nil, err
	}
	if link != "" {
		links = []string{link}
	}

	var out []model.NetworkUsage
	for _, l := range links {
		query := `
			SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
				ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps, rx_mbps,
				tx_mbps, rx_utilization_pct, tx_utilization_pct, interface_speed_mbps,
				interface_class, time_delta_seconds, truncation_confidence
			FROM network_usage WHERE host = ? AND link = ? AND scan_timestamp >= ?
			ORDER BY scan_timestamp ASC
		`
		rows, err := s.DB.Query(query, host, l, since)
		if err != nil {
			return nil, err
		}
		entityRows, err := scanNetworkUsage(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		for _, idx := range EvenSampleIndices(len(entityRows), bucketCount) {
			out = append(out, entityRows[idx])
		}
	}
	return out, nil
}
