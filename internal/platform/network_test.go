package platform

import "testing"

func TestParseDladmShowLink(t *testing.T) {
	out := []byte("net0:phys:up:--:1000\nvnic0:vnic:up:net0:1000\n")
	ifaces := ParseDladmShowLink("host1", out)
	if len(ifaces) != 2 {
		t.Fatalf("got %d interfaces, want 2", len(ifaces))
	}
	if ifaces[0].Link != "net0" || ifaces[0].Class != "phys" || ifaces[0].State != "up" {
		t.Errorf("unexpected first record: %+v", ifaces[0])
	}
	if ifaces[1].Over != "net0" {
		t.Errorf("expected vnic0.Over = net0, got %q", ifaces[1].Over)
	}
}

func TestParseDladmShowLinkSkipsShortLines(t *testing.T) {
	out := []byte("badline\nnet0:phys:up\n")
	ifaces := ParseDladmShowLink("host1", out)
	if len(ifaces) != 1 {
		t.Fatalf("expected 1 parsed record tolerating the bad line, got %d", len(ifaces))
	}
}

func TestParseDladmShowVNIC(t *testing.T) {
	out := []byte(`vnic0:net0:1000:2\:a\:b\:c\:d\:e:random:10:myzone`)
	recs := ParseDladmShowVNIC(out)
	rec, ok := recs["vnic0"]
	if !ok {
		t.Fatal("vnic0 not found")
	}
	if rec.MACAddress != "2:a:b:c:d:e" {
		t.Errorf("MACAddress = %q, want unescaped colons", rec.MACAddress)
	}
	if rec.VID == nil || *rec.VID != 10 {
		t.Errorf("VID = %v, want 10", rec.VID)
	}
	if rec.Zone != "myzone" {
		t.Errorf("Zone = %q, want myzone", rec.Zone)
	}
}

func TestParseIpadmShowAddr(t *testing.T) {
	out := []byte("net0/v4:192.168.1.5/24:ok:static\nnet0/v6:fe80::1/64:ok:addrconf\n")
	addrs := ParseIpadmShowAddr("host1", out)
	if len(addrs) != 2 {
		t.Fatalf("got %d addresses, want 2", len(addrs))
	}
	if addrs[0].IPVersion != 4 || addrs[0].Prefix != 24 || addrs[0].Interface != "net0" {
		t.Errorf("unexpected v4 record: %+v", addrs[0])
	}
	if addrs[1].IPVersion != 6 {
		t.Errorf("expected v6 record, got %+v", addrs[1])
	}
}

func TestParseNetstatRoutesMarksDefault(t *testing.T) {
	out := []byte(`Routing Table: IPv4
  Destination           Gateway           Flags  Ref     Use     Interface
-------------------- -------------------- ----- ----- ---------- ---------
default              192.168.1.1          UG        1         10 net0
192.168.1.0/24        192.168.1.5          U         1          5 net0
`)
	routes := ParseNetstatRoutes("host1", out)
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if !routes[0].IsDefault {
		t.Error("expected first route to be marked default")
	}
	if routes[1].IsDefault {
		t.Error("did not expect second route to be marked default")
	}
	if routes[0].IPVersion != 4 {
		t.Errorf("IPVersion = %d, want 4", routes[0].IPVersion)
	}
}

func TestParseDladmShowAggr(t *testing.T) {
	summary := []byte("aggr0:L4:auto:active:short\n")
	ports := []byte("aggr0:net0:1000:full:up:2\\:a\\:b\\:c\\:d\\:e:attached\naggr0:net1:1000:full:up:3\\:a\\:b\\:c\\:d\\:e:attached\n")
	policies, portMap := ParseDladmShowAggr(summary, ports)
	if policies["aggr0"] == "" {
		t.Error("expected non-empty policy for aggr0")
	}
	if len(portMap["aggr0"]) != 2 {
		t.Fatalf("got %d ports for aggr0, want 2", len(portMap["aggr0"]))
	}
	if portMap["aggr0"][0].Address != "2:a:b:c:d:e" {
		t.Errorf("port address = %q, want unescaped MAC", portMap["aggr0"][0].Address)
	}
}
