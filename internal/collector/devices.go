package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// DevicesCollector enumerates PCI devices from prtconf, probes PCI
// passthrough availability (JSON pptadm first, text pptadm fallback,
// silently degrading if neither is present per §7), and cross-
// references each device against zone configurations and known
// network links, per §4.3's Devices collector.
type DevicesCollector struct {
	base
}

func NewDevicesCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string) *DevicesCollector {
	return &DevicesCollector{base{family: platform.FamilyDevices, runner: r, store: s, state: st, host: host}}
}

func (c *DevicesCollector) Family() platform.ResourceFamily { return c.family }

func (c *DevicesCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *DevicesCollector) collect(ctx context.Context) error {
	res, err := c.runner.Run(ctx, "prtconf", "-pv")
	if err != nil {
		return fmt.Errorf("prtconf -pv: %w", err)
	}
	devices := platform.ParsePrtconfPCI(c.host, []byte(res.Stdout))

	enabledByAddr := c.pptEnabledByAddress(ctx)

	matches, err := c.zoneDeviceMatches(ctx)
	if err != nil {
		return fmt.Errorf("zone device matches: %w", err)
	}

	linkNames, err := c.store.KnownLinkNames(c.host)
	if err != nil {
		return fmt.Errorf("known link names: %w", err)
	}

	for i := range devices {
		zones := assignedZonesFor(devices[i].PCIAddress, matches)
		platform.ApplyPPTAssignment(&devices[i], enabledByAddr[devices[i].PCIAddress], zones)
		devices[i].LinkedInterface = linkedInterfaceFor(devices[i], linkNames)
	}

	if err := c.store.InsertPCIDevices(devices); err != nil {
		return fmt.Errorf("insert pci devices: %w", err)
	}
	return nil
}

// pptEnabledByAddress tries `pptadm list -j` first and falls back to the
// plain-text form, per §4.3's "probes passthrough availability (both
// JSON and text fallbacks)". Either probe being unavailable is a silent
// degrade (§7), never an error.
func (c *DevicesCollector) pptEnabledByAddress(ctx context.Context) map[string]bool {
	enabled := map[string]bool{}

	if res := c.runner.RunSafe(ctx, "pptadm", "list", "-j"); res != nil {
		if probes, err := platform.ParsePPTAdmJSON([]byte(res.Stdout)); err == nil {
			for _, p := range probes {
				enabled[p.PCIAddress] = p.Enabled
			}
			return enabled
		}
	}
	if res := c.runner.RunSafe(ctx, "pptadm", "list"); res != nil {
		for _, p := range platform.ParsePPTAdmText([]byte(res.Stdout)) {
			enabled[p.PCIAddress] = p.Enabled
		}
	}
	return enabled
}

// zoneDeviceMatches returns, per non-global zone, the PCI device match
// paths configured in its zonecfg, used to derive each device's
// assigned_to_zones. A zone whose zonecfg doesn't support "info device"
// (not a bhyve zone) degrades silently via RunSafe.
func (c *DevicesCollector) zoneDeviceMatches(ctx context.Context) (map[string][]string, error) {
	zonesRes, err := c.runner.Run(ctx, "zoneadm", "list", "-cp")
	if err != nil {
		return nil, fmt.Errorf("zoneadm list: %w", err)
	}
	zones := platform.ParseZoneadmList([]byte(zonesRes.Stdout))

	out := map[string][]string{}
	for _, zone := range zones {
		res := c.runner.RunSafe(ctx, "zonecfg", "-z", zone, "info", "device")
		if res == nil {
			continue
		}
		if m := platform.ParseZonecfgDeviceMatches([]byte(res.Stdout)); len(m) > 0 {
			out[zone] = m
		}
	}
	return out, nil
}

// assignedZonesFor correlates a PCI node name against zonecfg match
// paths by substring containment — zonecfg records a full device-tree
// path while prtconf records the terminal node name, so neither side is
// a strict superset of the other. This mirrors the substring-based
// correlation TruncationCorrelate and CrossReferenceDiskToPool already
// apply elsewhere in this package for the same reason: the platform
// doesn't expose a single canonical device identifier across commands.
func assignedZonesFor(pciAddress string, matches map[string][]string) []string {
	if pciAddress == "" {
		return nil
	}
	var zones []string
	for zone, ms := range matches {
		for _, m := range ms {
			if strings.Contains(m, pciAddress) || strings.Contains(pciAddress, m) {
				zones = append(zones, zone)
				break
			}
		}
	}
	return zones
}

// linkedInterfaceFor returns the known link name whose name appears in
// a network-category device's name/driver fields, if any.
func linkedInterfaceFor(d model.PCIDevice, linkNames []string) string {
	if d.DeviceCategory != "network" {
		return ""
	}
	haystack := strings.ToLower(d.DeviceName + " " + d.DriverName)
	for _, link := range linkNames {
		if link != "" && strings.Contains(haystack, strings.ToLower(link)) {
			return link
		}
	}
	return ""
}
