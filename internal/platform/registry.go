package platform

// ResourceFamily groups the platform commands a collector issues, the
// same way the teacher's executor.Registry groups BCC tools by output
// shape rather than by Linux subsystem.
type ResourceFamily string

const (
	FamilyNetworkConfig   ResourceFamily = "network_config"
	FamilyNetworkUsage    ResourceFamily = "network_usage"
	FamilyStorage         ResourceFamily = "storage"
	FamilyStorageFrequent ResourceFamily = "storage_frequent"
	FamilyDevices         ResourceFamily = "devices"
	FamilySystemMetrics   ResourceFamily = "system_metrics"
)

// CommandSpec describes one platform command this daemon issues: the
// binary, its fixed argument list, which resource family it serves, and
// whether its absence should degrade silently (§7 "Unavailable
// feature") rather than count as a transient error.
type CommandSpec struct {
	Name        string
	Binary      string
	Args        []string
	Family      ResourceFamily
	NeedsRoot   bool
	SoftOptional bool // absence is a silent degrade, not an error (e.g. pptadm)
}

// Registry is the table-driven catalog of the platform commands behind
// each resource family, keyed by Name (zonecfg and uname are run
// without an entry here). It mirrors the teacher's
// map[string]*ToolSpec shape, generalized from BCC tool names to
// illumos administrative commands.
var Registry = map[string]*CommandSpec{
	"dladm_show_link": {
		Name: "dladm_show_link", Binary: "dladm",
		Args: []string{"show-link", "-p", "-o", "link,class,state,over,speed"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_phys": {
		Name: "dladm_show_phys", Binary: "dladm",
		Args: []string{"show-phys", "-p", "-o", "link,device,media,state,speed,duplex"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_vnic": {
		Name: "dladm_show_vnic", Binary: "dladm",
		Args: []string{"show-vnic", "-p", "-o", "link,over,speed,macaddress,macaddrtype,vid,zone"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_etherstub": {
		Name: "dladm_show_etherstub", Binary: "dladm",
		Args: []string{"show-etherstub", "-p", "-o", "link"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_aggr": {
		Name: "dladm_show_aggr", Binary: "dladm",
		Args: []string{"show-aggr", "-p", "-o", "link,policy,addrpolicy,lacpactivity,lacptimer"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_aggr_lacp": {
		Name: "dladm_show_aggr_lacp", Binary: "dladm",
		Args: []string{"show-aggr", "-x", "-p", "-o", "link,port,speed,duplex,state,address,portstate"},
		Family: FamilyNetworkConfig,
	},
	"ipadm_show_addr": {
		Name: "ipadm_show_addr", Binary: "ipadm",
		Args: []string{"show-addr", "-p", "-o", "addrobj,addr,state,type"},
		Family: FamilyNetworkConfig,
	},
	"netstat_routes": {
		Name: "netstat_routes", Binary: "netstat",
		Args: []string{"-rn"},
		Family: FamilyNetworkConfig,
	},
	"dladm_show_link_stat": {
		Name: "dladm_show_link_stat", Binary: "dladm",
		Args: []string{"show-link", "-s", "-p", "-o", "link,ipackets,rbytes,ierrors,opackets,obytes,oerrors"},
		Family: FamilyNetworkUsage,
	},
	"zpool_list_names": {
		Name: "zpool_list_names", Binary: "zpool",
		Args: []string{"list", "-H", "-o", "name"},
		Family: FamilyStorage,
	},
	"zpool_list": {
		Name: "zpool_list", Binary: "zpool",
		Args: []string{"list", "-Hp", "-o", "name,size,alloc,free,capacity,health"},
		Family: FamilyStorage,
	},
	"zpool_status": {
		Name: "zpool_status", Binary: "zpool",
		Args: []string{"status"},
		Family: FamilyStorage,
	},
	"zfs_list": {
		Name: "zfs_list", Binary: "zfs",
		Args: []string{"list", "-Hp", "-o", "name,used,avail,refer,type,compressratio,mountpoint"},
		Family: FamilyStorage,
	},
	"zoneadm_list": {
		Name: "zoneadm_list", Binary: "zoneadm",
		Args: []string{"list", "-cp"},
		Family: FamilyStorage,
	},
	"diskinfo": {
		Name: "diskinfo", Binary: "diskinfo",
		Args: []string{"-Hp"},
		Family: FamilyStorage,
	},
	"zpool_iostat_latency": {
		Name: "zpool_iostat_latency", Binary: "zpool",
		Args: []string{"iostat", "-lq", "1", "2"},
		Family: FamilyStorageFrequent,
	},
	"iostat_disk": {
		Name: "iostat_disk", Binary: "iostat",
		Args: []string{"-xn", "1", "2"},
		Family: FamilyStorageFrequent,
	},
	"prtconf_pci": {
		Name: "prtconf_pci", Binary: "prtconf",
		Args: []string{"-pv"},
		Family: FamilyDevices, NeedsRoot: true,
	},
	"pptadm_list_json": {
		Name: "pptadm_list_json", Binary: "pptadm",
		Args: []string{"list", "-j"},
		Family: FamilyDevices, SoftOptional: true,
	},
	"pptadm_list_text": {
		Name: "pptadm_list_text", Binary: "pptadm",
		Args: []string{"list"},
		Family: FamilyDevices, SoftOptional: true,
	},
	"kstat_arc": {
		Name: "kstat_arc", Binary: "kstat",
		Args: []string{"-p", "zfs:0:arcstats:"},
		Family: FamilySystemMetrics,
	},
	"kstat_pages": {
		Name: "kstat_pages", Binary: "kstat",
		Args: []string{"-p", "unix:0:system_pages:"},
		Family: FamilySystemMetrics,
	},
	"swap_s": {
		Name: "swap_s", Binary: "swap",
		Args: []string{"-s"},
		Family: FamilySystemMetrics,
	},
	"vmstat_sample": {
		Name: "vmstat_sample", Binary: "vmstat",
		Args: []string{"1", "2"},
		Family: FamilySystemMetrics,
	},
	"uptime": {
		Name: "uptime", Binary: "uptime",
		Args: []string{},
		Family: FamilySystemMetrics,
	},
	"psrinfo": {
		Name: "psrinfo", Binary: "psrinfo",
		Args: []string{},
		Family: FamilySystemMetrics,
	},
}

// SpecsForFamily returns every CommandSpec registered under a resource
// family, in map-iteration order (collectors sort or fan out as needed;
// the registry itself makes no ordering guarantee, same as the
// teacher's Registry map).
func SpecsForFamily(family ResourceFamily) []*CommandSpec {
	var out []*CommandSpec
	for _, spec := range Registry {
		if spec.Family == family {
			out = append(out, spec)
		}
	}
	return out
}
