package platform

import (
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ParseDiskinfo parses `diskinfo -Hp` output (columns: type, disk-index,
// device-id/device-name, vendor, product, firmware, serial, capacity in
// bytes, removable, solid-state) into Disk records.
func ParseDiskinfo(host string, output []byte) []model.Disk {
	var out []model.Disk
	now := time.Now()
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 8 {
			f = SplitFields(line)
		}
		if len(f) < 8 {
			continue
		}

		diskType := "hdd"
		if len(f) > 9 && (f[9] == "1" || strings.EqualFold(f[9], "yes")) {
			diskType = "ssd"
		}
		if strings.Contains(strings.ToLower(f[2]), "nvme") {
			diskType = "nvme"
		}

		capBytes := ParseInt64OrNil(f[7])
		rec := model.Disk{
			Host:          host,
			DeviceName:    f[2],
			Manufacturer:  f[3],
			Model:         f[4],
			Firmware:      f[5],
			SerialNumber:  f[6],
			CapacityBytes: capBytes,
			DiskType:      diskType,
			IsAvailable:   true,
			ScanTimestamp: now,
		}
		out = append(out, rec)
	}
	return out
}

// ParseZoneadmList parses `zoneadm list -cp` colon-delimited output
// (id:zonename:state:zonepath:uuid:brand:ip-type) into a plain zone-name
// list, used by the Storage collector to dynamically discover zones
// (§4.3) without hard-coding zone names.
func ParseZoneadmList(output []byte) []string {
	var names []string
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		f := strings.Split(line, ":")
		if len(f) < 2 {
			continue
		}
		if f[1] == "global" {
			continue
		}
		names = append(names, f[1])
	}
	return names
}
