package store

import (
	"encoding/json"
	"fmt"

	"github.com/omnizone/hostd/internal/model"
)

// InsertPCIDevices appends per-scan device rows, matching §4.3's
// Devices collector contract: every scan is its own row so PPT
// assignment history is reconstructable.
func (s *Store) InsertPCIDevices(devices []model.PCIDevice) error {
	if len(devices) == 0 {
		return nil
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO pci_devices (
			host, pci_address, scan_timestamp, vendor_id, device_id, vendor_name,
			device_name, driver_name, driver_instance, driver_attached,
			device_category, ppt_enabled, ppt_capable, assigned_to_zones_json,
			linked_interface, linked_disk
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range devices {
		zonesJSON, err := json.Marshal(d.AssignedToZones)
		if err != nil {
			return fmt.Errorf("marshal assigned_to_zones for %s: %w", d.PCIAddress, err)
		}
		if _, err := stmt.Exec(d.Host, d.PCIAddress, d.ScanTimestamp, d.VendorID, d.DeviceID,
			d.VendorName, d.DeviceName, d.DriverName, d.DriverInstance, d.DriverAttached,
			d.DeviceCategory, d.PPTEnabled, d.PPTCapable, string(zonesJSON),
			d.LinkedInterface, d.LinkedDisk); err != nil {
			return fmt.Errorf("insert pci_device %s: %w", d.PCIAddress, err)
		}
	}
	return tx.Commit()
}

// LatestPCIDevices returns, for each pci_address, only the row from
// the most recent scan_timestamp for that host — the "current state"
// projection over an otherwise append-only table, used by the Query
// API's device listing.
func (s *Store) LatestPCIDevices(host string) ([]model.PCIDevice, error) {
	rows, err := s.DB.Query(`
		SELECT p.host, p.pci_address, p.scan_timestamp, p.vendor_id, p.device_id,
			p.vendor_name, p.device_name, p.driver_name, p.driver_instance,
			p.driver_attached, p.device_category, p.ppt_enabled, p.ppt_capable,
			p.assigned_to_zones_json, p.linked_interface, p.linked_disk
		FROM pci_devices p
		INNER JOIN (
			SELECT pci_address, MAX(scan_timestamp) AS max_ts
			FROM pci_devices WHERE host = ? GROUP BY pci_address
		) latest ON p.pci_address = latest.pci_address AND p.scan_timestamp = latest.max_ts
		WHERE p.host = ?
	`, host, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PCIDevice
	for rows.Next() {
		var d model.PCIDevice
		var zonesJSON string
		if err := rows.Scan(&d.Host, &d.PCIAddress, &d.ScanTimestamp, &d.VendorID, &d.DeviceID,
			&d.VendorName, &d.DeviceName, &d.DriverName, &d.DriverInstance, &d.DriverAttached,
			&d.DeviceCategory, &d.PPTEnabled, &d.PPTCapable, &zonesJSON,
			&d.LinkedInterface, &d.LinkedDisk); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(zonesJSON), &d.AssignedToZones)
		out = append(out, d)
	}
	return out, rows.Err()
}
