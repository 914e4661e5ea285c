package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ReplaceNetworkInterfaces deletes existing rows for the affected
// (host, link) set and bulk-inserts the new set, per §4.3's
// Network-config collector contract. Deletion is scoped to the links
// present in ifaces, not the whole host, so an enumeration failure on
// one link family doesn't wipe unrelated rows collected moments earlier.
func (s *Store) ReplaceNetworkInterfaces(host string, ifaces []model.NetworkInterface) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	links := map[string]bool{}
	for _, ifc := range ifaces {
		links[ifc.Link] = true
	}
	for link := range links {
		if _, err := tx.Exec(`DELETE FROM network_interfaces WHERE host = ? AND link = ?`, host, link); err != nil {
			return fmt.Errorf("delete existing interface rows for %s: %w", link, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO network_interfaces (
			host, link, class, state, mtu, speed, duplex, over,
			macaddress, macaddrtype, vid, zone, policy_json,
			ports_detail_json, scan_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ifc := range ifaces {
		if _, err := stmt.Exec(
			host, ifc.Link, ifc.Class, ifc.State, ifc.MTU, ifc.Speed, ifc.Duplex,
			ifc.Over, ifc.MACAddress, ifc.MACAddrType, ifc.VID, ifc.Zone,
			ifc.PolicyJSON, ifc.PortsJSON, ifc.ScanTimestamp,
		); err != nil {
			return fmt.Errorf("insert interface %s: %w", ifc.Link, err)
		}
	}

	return tx.Commit()
}

// InsertNetworkUsageBatch appends a batch of usage samples, matching
// §4.3's "Batched persistence: bulk writes in batches of configured
// batch_size."
func (s *Store) InsertNetworkUsageBatch(rows []model.NetworkUsage) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO network_usage (
			host, link, scan_timestamp, rbytes, obytes, ipackets, opackets,
			ierrors, oerrors, rbytes_delta, obytes_delta, rx_bps, tx_bps,
			rx_mbps, tx_mbps, rx_utilization_pct, tx_utilization_pct,
			interface_speed_mbps, interface_class, time_delta_seconds,
			truncation_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range rows {
		if _, err := stmt.Exec(
			u.Host, u.Link, u.ScanTimestamp, u.RBytes, u.OBytes, u.IPackets, u.OPackets,
			u.IErrors, u.OErrors, u.RBytesDelta, u.OBytesDelta, u.RxBps, u.TxBps,
			u.RxMbps, u.TxMbps, u.RxUtilizationPct, u.TxUtilizationPct,
			u.InterfaceSpeedMbps, u.InterfaceClass, u.TimeDeltaSeconds,
			u.TruncationConfidence,
		); err != nil {
			return fmt.Errorf("insert network_usage for %s: %w", u.Link, err)
		}
	}

	return tx.Commit()
}

// LatestUsageSnapshotBefore returns the per-link counter row for host
// that is the most recent one older than cutoff — the lookup §4.3
// calls "the previous snapshot older than (interval − 2s) per link."
func (s *Store) LatestUsageSnapshotBefore(host, link string, cutoff time.Time) (*model.NetworkUsage, error) {
	row := s.DB.QueryRow(`
		SELECT host, link, scan_timestamp, rbytes, obytes, ipackets, opackets, ierrors, oerrors
		FROM network_usage
		WHERE host = ? AND link = ? AND scan_timestamp < ?
		ORDER BY scan_timestamp DESC LIMIT 1
	`, host, link, cutoff)

	var u model.NetworkUsage
	err := row.Scan(&u.Host, &u.Link, &u.ScanTimestamp, &u.RBytes, &u.OBytes,
		&u.IPackets, &u.OPackets, &u.IErrors, &u.OErrors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ReplaceIPAddresses implements the current-state replace idiom for
// IPAddress rows (§3: "each scan deletes all rows for host and inserts
// the current snapshot").
func (s *Store) ReplaceIPAddresses(host string, addrs []model.IPAddress) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ip_addresses WHERE host = ?`, host); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO ip_addresses (host, interface, address, prefix, ip_version, state, scan_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range addrs {
		if _, err := stmt.Exec(host, a.Interface, a.Address, a.Prefix, a.IPVersion, a.State, a.ScanTimestamp); err != nil {
			return fmt.Errorf("insert ip address %s: %w", a.Address, err)
		}
	}
	return tx.Commit()
}

// ReplaceRoutes implements the current-state replace idiom for Route
// rows.
func (s *Store) ReplaceRoutes(host string, routes []model.Route) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM routes WHERE host = ?`, host); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO routes (host, destination, gateway, interface, flags, ref, use, is_default, ip_version, scan_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range routes {
		if _, err := stmt.Exec(host, r.Destination, r.Gateway, r.Interface, r.Flags,
			r.Ref, r.Use, r.IsDefault, r.IPVersion, r.ScanTimestamp); err != nil {
			return fmt.Errorf("insert route %s: %w", r.Destination, err)
		}
	}
	return tx.Commit()
}

// LinkSpeedAndClass returns the most recently recorded speed (Mbps) and
// class for a link, used by the Network-usage collector to compute
// utilization percentages against the link's configured speed without
// re-running dladm show-link on every usage sample.
func (s *Store) LinkSpeedAndClass(host, link string) (*int64, string, error) {
	var speed sql.NullInt64
	var class string
	row := s.DB.QueryRow(`
		SELECT speed, class FROM network_interfaces
		WHERE host = ? AND link = ?
		ORDER BY scan_timestamp DESC LIMIT 1
	`, host, link)
	if err := row.Scan(&speed, &class); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}
	if speed.Valid {
		v := speed.Int64
		return &v, class, nil
	}
	return nil, class, nil
}

// KnownLinkNames returns every distinct link currently recorded for a
// host, used by the Network-usage collector's truncation-correlation
// step to resolve a short/truncated name against full interface names.
func (s *Store) KnownLinkNames(host string) ([]string, error) {
	rows, err := s.DB.Query(`SELECT DISTINCT link FROM network_interfaces WHERE host = ?`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
