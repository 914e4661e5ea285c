package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/platform"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// NetworkConfigCollector enumerates datalinks (phys, vnic, etherstub,
// aggr), merges them by link, then replaces the current-state rows
// for the affected links. It also refreshes IP addresses and routes,
// both full current-state replaces, per §4.3.
type NetworkConfigCollector struct {
	base
}

func NewNetworkConfigCollector(r *runner.CommandRunner, s *store.Store, st *hoststate.State, host string) *NetworkConfigCollector {
	return &NetworkConfigCollector{base{family: platform.FamilyNetworkConfig, runner: r, store: s, state: st, host: host}}
}

func (c *NetworkConfigCollector) Family() platform.ResourceFamily { return c.family }

func (c *NetworkConfigCollector) Collect(ctx context.Context) error {
	return c.guard(ctx, c.collect)
}

func (c *NetworkConfigCollector) collect(ctx context.Context) error {
	tasks := []runner.Task{
		{Key: "link", Tool: "dladm", Args: []string{"show-link", "-p", "-o", "link,class,state,over,speed"}},
		{Key: "phys", Tool: "dladm", Args: []string{"show-phys", "-p", "-o", "link,device,media,state,speed,duplex"}},
		{Key: "vnic", Tool: "dladm", Args: []string{"show-vnic", "-p", "-o", "link,over,speed,macaddress,macaddrtype,vid,zone"}},
		{Key: "etherstub", Tool: "dladm", Args: []string{"show-etherstub", "-p", "-o", "link"}},
		{Key: "aggr", Tool: "dladm", Args: []string{"show-aggr", "-p", "-o", "link,policy,addrpolicy,lacpactivity,lacptimer"}},
		{Key: "aggr_lacp", Tool: "dladm", Args: []string{"show-aggr", "-x", "-p", "-o", "link,port,speed,duplex,state,address,portstate"}},
		{Key: "addr", Tool: "ipadm", Args: []string{"show-addr", "-p", "-o", "addrobj,addr,state,type"}},
		{Key: "routes", Tool: "netstat", Args: []string{"-rn"}},
	}
	settled := c.runner.RunParallel(ctx, tasks)
	out := map[string]*runner.Result{}
	for _, r := range settled {
		if r.Err != nil {
			return fmt.Errorf("collect %s: %w", r.Key, r.Err)
		}
		out[r.Key] = r.Result
	}

	links := platform.ParseDladmShowLink(c.host, []byte(out["link"].Stdout))
	vnics := platform.ParseDladmShowVNIC([]byte(out["vnic"].Stdout))
	merged := mergeLinks(links, vnics)

	policies, aggrPorts := platform.ParseDladmShowAggr([]byte(out["aggr"].Stdout), []byte(out["aggr_lacp"].Stdout))
	for i := range merged {
		if policy, ok := policies[merged[i].Link]; ok {
			merged[i].PolicyJSON = policy
		}
		if ports, ok := aggrPorts[merged[i].Link]; ok {
			merged[i].PortsJSON = encodeAggrPorts(ports)
		}
	}

	if err := c.store.ReplaceNetworkInterfaces(c.host, merged); err != nil {
		return fmt.Errorf("replace network interfaces: %w", err)
	}

	addrs := platform.ParseIpadmShowAddr(c.host, []byte(out["addr"].Stdout))
	if err := c.store.ReplaceIPAddresses(c.host, addrs); err != nil {
		return fmt.Errorf("replace ip addresses: %w", err)
	}

	routes := platform.ParseNetstatRoutes(c.host, []byte(out["routes"].Stdout))
	if err := c.store.ReplaceRoutes(c.host, routes); err != nil {
		return fmt.Errorf("replace routes: %w", err)
	}

	return nil
}

// mergeLinks folds VNIC-specific fields (over, macaddress, vid, zone)
// into the base `dladm show-link` record for the same link name
// rather than letting a later enumeration pass clobber the class or
// state field the link pass already captured — §4.3's "merges
// records by link preserving aggregate-specific fields."
func mergeLinks(links []model.NetworkInterface, vnics map[string]model.NetworkInterface) []model.NetworkInterface {
	byLink := make(map[string]int, len(links))
	for i, l := range links {
		byLink[l.Link] = i
	}

	for name, vnic := range vnics {
		if i, ok := byLink[name]; ok {
			if vnic.Over != "" {
				links[i].Over = vnic.Over
			}
			if vnic.MACAddress != "" {
				links[i].MACAddress = vnic.MACAddress
			}
			if vnic.MACAddrType != "" {
				links[i].MACAddrType = vnic.MACAddrType
			}
			if vnic.VID != nil {
				links[i].VID = vnic.VID
			}
			if vnic.Zone != "" {
				links[i].Zone = vnic.Zone
			}
		} else {
			links = append(links, vnic)
		}
	}
	return links
}

func encodeAggrPorts(ports []platform.AggrPort) string {
	b, err := json.Marshal(ports)
	if err != nil {
		return "[]"
	}
	return string(b)
}
