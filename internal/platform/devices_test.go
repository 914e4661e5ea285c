package platform

import (
	"testing"

	"github.com/omnizone/hostd/internal/model"
)

func TestCategorizeDevice(t *testing.T) {
	cases := map[string]string{
		"Ethernet controller":        "network",
		"Network controller":         "network",
		"SATA controller":            "storage",
		"Mass storage controller":    "storage",
		"NVMe controller":            "storage",
		"VGA compatible controller":  "display",
		"USB controller":             "usb",
		"Audio device":               "audio",
		"Signal processing controller": "other",
	}
	for class, want := range cases {
		if got := CategorizeDevice(class); got != want {
			t.Errorf("CategorizeDevice(%q) = %q, want %q", class, got, want)
		}
	}
}

func TestDerivePPTCapable(t *testing.T) {
	cases := []struct {
		name          string
		vendorID      string
		category      string
		assignedZones []string
		want          bool
	}{
		{"intel network", "8086", "network", nil, true},
		{"intel storage", "8086", "storage", nil, false},
		{"amd storage", "1002", "storage", nil, true},
		{"amd display", "1022", "display", nil, true},
		{"amd usb", "1022", "usb", nil, false},
		{"unknown vendor defaults capable", "1af4", "other", nil, true},
		{"assigned to a zone is never capable", "1af4", "other", []string{"zone1"}, false},
		{"intel network but assigned", "8086", "network", []string{"zone1"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DerivePPTCapable(c.vendorID, c.category, c.assignedZones); got != c.want {
				t.Errorf("DerivePPTCapable(%q, %q, %v) = %v, want %v",
					c.vendorID, c.category, c.assignedZones, got, c.want)
			}
		})
	}
}

func TestParsePrtconfPCIExtractsVendorDeviceDriver(t *testing.T) {
	out := []byte(`
pci1022,1234 (driver not attached)
    Node 0x00000123
        model: 'AMD Device'
        vendor-id: 0x1022
        device-id: 0x1234
        name: "pciex1022,1234"
        driver name: "amdnet"
        instance #2
`)
	devices := ParsePrtconfPCI("omni01", out)
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	d := devices[0]
	if d.VendorID != "1022" || d.DeviceID != "1234" {
		t.Errorf("vendor/device id = %s/%s, want 1022/1234", d.VendorID, d.DeviceID)
	}
	if d.DriverName != "amdnet" || d.DriverInstance == nil || *d.DriverInstance != 2 {
		t.Errorf("driver info mismatch: %+v", d)
	}
	if !d.DriverAttached {
		t.Error("expected DriverAttached = true once an instance is seen")
	}
}

func TestParsePPTAdmTextFallback(t *testing.T) {
	out := []byte(`
PATH             ENABLED
pci1022,1234@0   yes
pci8086,5678@1   no
`)
	results := ParsePPTAdmText(out)
	if len(results) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(results))
	}
	if !results[0].Enabled || results[1].Enabled {
		t.Errorf("enabled flags wrong: %+v", results)
	}
}

func TestApplyPPTAssignmentNeverContradictsZoneAssignment(t *testing.T) {
	dev := &model.PCIDevice{VendorID: "8086", DeviceCategory: "network"}
	ApplyPPTAssignment(dev, true, []string{"zone1"})
	if dev.PPTCapable {
		t.Error("device assigned to a zone must never be ppt_capable")
	}
	if !dev.PPTEnabled {
		t.Error("ppt_enabled should reflect the probe result regardless of assignment")
	}

	dev2 := &model.PCIDevice{VendorID: "8086", DeviceCategory: "network"}
	ApplyPPTAssignment(dev2, true, nil)
	if !dev2.PPTCapable {
		t.Error("unassigned Intel network device should be ppt_capable")
	}
}
