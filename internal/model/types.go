// Package model defines the typed records persisted and served by hostd.
// Every parser in internal/platform produces these types; internal/store
// persists them verbatim. Nullability is explicit (pointer or sql.Null*)
// rather than encoded as zero values, since zero is a valid reading for
// most counters.
package model

import "time"

// HostInfo is the singleton per-host status record (§3 HostInfo).
type HostInfo struct {
	Host                string     `json:"host"`
	Hostname            string     `json:"hostname"`
	Platform            string     `json:"platform"`
	Release             string     `json:"release"`
	Arch                string     `json:"arch"`
	UptimeSeconds       int64      `json:"uptime_seconds"`
	NetworkAccounting   bool       `json:"network_accounting_enabled"`
	LastNetworkScan     *time.Time `json:"last_network_scan,omitempty"`
	LastUsageScan       *time.Time `json:"last_usage_scan,omitempty"`
	LastStorageScan     *time.Time `json:"last_storage_scan,omitempty"`
	LastStorageFastScan *time.Time `json:"last_storage_frequent_scan,omitempty"`
	LastDeviceScan      *time.Time `json:"last_device_scan,omitempty"`
	LastMetricsScan     *time.Time `json:"last_system_metrics_scan,omitempty"`
	ErrorCounts         map[string]int `json:"error_counts"`
	LastErrorMessage    string     `json:"last_error_message,omitempty"`
	Status              string     `json:"status"` // healthy|degraded|faulted|critical|stopped|error
}

// NetworkInterface is a current-state row for a datalink (§3 NetworkInterface).
type NetworkInterface struct {
	ID            int64      `json:"id,omitempty"`
	Host          string     `json:"host"`
	Link          string     `json:"link"`
	Class         string     `json:"class"` // vnic|phys|aggr|etherstub|vlan|...
	State         string     `json:"state"`
	MTU           *int       `json:"mtu,omitempty"`
	Speed         *int64     `json:"speed,omitempty"` // Mbps
	Duplex        string     `json:"duplex,omitempty"`
	Over          string     `json:"over,omitempty"` // parent link, for vnics/vlans
	MACAddress    string     `json:"macaddress,omitempty"`
	MACAddrType   string     `json:"macaddrtype,omitempty"`
	VID           *int       `json:"vid,omitempty"`
	Zone          string     `json:"zone,omitempty"`
	PolicyJSON    string     `json:"policy_json,omitempty"`       // aggr policy, JSON sub-document
	PortsJSON     string     `json:"ports_detail_json,omitempty"` // aggr ports+LACP, JSON sub-document
	ScanTimestamp time.Time  `json:"scan_timestamp"`
}

// NetworkUsage is an append-only usage sample for a link (§3 NetworkUsage).
type NetworkUsage struct {
	ID                  int64     `json:"id,omitempty"`
	Host                string    `json:"host"`
	Link                string    `json:"link"`
	ScanTimestamp       time.Time `json:"scan_timestamp"`
	RBytes              int64     `json:"rbytes"`
	OBytes              int64     `json:"obytes"`
	IPackets            int64     `json:"ipackets"`
	OPackets            int64     `json:"opackets"`
	IErrors             int64     `json:"ierrors"`
	OErrors             int64     `json:"oerrors"`
	RBytesDelta         *int64    `json:"rbytes_delta,omitempty"`
	OBytesDelta         *int64    `json:"obytes_delta,omitempty"`
	RxBps               *float64  `json:"rx_bps,omitempty"`
	TxBps               *float64  `json:"tx_bps,omitempty"`
	RxMbps              *float64  `json:"rx_mbps,omitempty"`
	TxMbps              *float64  `json:"tx_mbps,omitempty"`
	RxUtilizationPct    *float64  `json:"rx_utilization_pct,omitempty"`
	TxUtilizationPct    *float64  `json:"tx_utilization_pct,omitempty"`
	InterfaceSpeedMbps  *int64    `json:"interface_speed_mbps,omitempty"`
	InterfaceClass      string    `json:"interface_class,omitempty"`
	TimeDeltaSeconds    *float64  `json:"time_delta_seconds,omitempty"`
	TruncationConfidence string  `json:"truncation_confidence,omitempty"` // high|medium|low
}

// IPAddress is a current-state row (§3 IPAddress).
type IPAddress struct {
	ID            int64     `json:"id,omitempty"`
	Host          string    `json:"host"`
	Interface     string    `json:"interface"`
	Address       string    `json:"address"`
	Prefix        int       `json:"prefix"`
	IPVersion     int       `json:"ip_version"` // 4 or 6
	State         string    `json:"state"`
	ScanTimestamp time.Time `json:"scan_timestamp"`
}

// Route is a current-state row (§3 Route).
type Route struct {
	ID            int64     `json:"id,omitempty"`
	Host          string    `json:"host"`
	Destination   string    `json:"destination"`
	Gateway       string    `json:"gateway"`
	Interface     string    `json:"interface,omitempty"`
	Flags         string    `json:"flags,omitempty"`
	Ref           *int64    `json:"ref,omitempty"`
	Use           *int64    `json:"use,omitempty"`
	IsDefault     bool      `json:"is_default"`
	IPVersion     int       `json:"ip_version"`
	ScanTimestamp time.Time `json:"scan_timestamp"`
}

// ZFSPool is an append-only row; scan_type marks which command produced it
// (§3 ZFSPool, invariant: list/status rows never replace an iostat row).
type ZFSPool struct {
	ID              int64     `json:"id,omitempty"`
	Host            string    `json:"host"`
	Pool            string    `json:"pool"`
	ScanTimestamp   time.Time `json:"scan_timestamp"`
	ScanType        string    `json:"scan_type"` // iostat|status|list
	AllocString     string    `json:"alloc,omitempty"`
	FreeString      string    `json:"free,omitempty"`
	AllocBytes      *int64    `json:"alloc_bytes,omitempty"`
	FreeBytes       *int64    `json:"free_bytes,omitempty"`
	CapacityPct     *float64  `json:"capacity_pct,omitempty"`
	ReadOps         *int64    `json:"read_ops,omitempty"`
	WriteOps        *int64    `json:"write_ops,omitempty"`
	ReadBandwidth   *int64    `json:"read_bandwidth,omitempty"`
	WriteBandwidth  *int64    `json:"write_bandwidth,omitempty"`
	Health          string    `json:"health,omitempty"`
	Status          string    `json:"status,omitempty"`
	Errors          string    `json:"errors,omitempty"`
	PoolType        string    `json:"pool_type,omitempty"` // raidz1|mirror|stripe|...
}

// ZFSDataset is an append-only row, recorded only for zone/VM-related
// datasets (§3 ZFSDataset, §4.3 Storage collector).
type ZFSDataset struct {
	ID              int64     `json:"id,omitempty"`
	Host            string    `json:"host"`
	Name            string    `json:"name"`
	Pool            string    `json:"pool"`
	Type            string    `json:"type"` // filesystem|volume|snapshot
	ScanTimestamp   time.Time `json:"scan_timestamp"`
	UsedString      string    `json:"used,omitempty"`
	AvailableString string    `json:"available,omitempty"`
	ReferencedString string   `json:"referenced,omitempty"`
	UsedBytes       *int64    `json:"used_bytes,omitempty"`
	AvailableBytes  *int64    `json:"available_bytes,omitempty"`
	ReferencedBytes *int64    `json:"referenced_bytes,omitempty"`
	CompressRatio   *float64  `json:"compressratio,omitempty"`
	Mountpoint      string    `json:"mountpoint,omitempty"`
	PropertiesJSON  string    `json:"properties_json,omitempty"`
	DatasetExists   bool      `json:"dataset_exists"`
}

// Disk is upserted per scan, identity is (host, device_name) (§3 Disk).
type Disk struct {
	ID             int64     `json:"id,omitempty"`
	Host           string    `json:"host"`
	DeviceName     string    `json:"device_name"`
	DiskIndex      *int      `json:"disk_index,omitempty"`
	SerialNumber   string    `json:"serial_number,omitempty"`
	Manufacturer   string    `json:"manufacturer,omitempty"`
	Model          string    `json:"model,omitempty"`
	Firmware       string    `json:"firmware,omitempty"`
	CapacityString string    `json:"capacity,omitempty"`
	CapacityBytes  *int64    `json:"capacity_bytes,omitempty"`
	DiskType       string    `json:"disk_type,omitempty"` // hdd|ssd|nvme
	InterfaceType  string    `json:"interface_type,omitempty"`
	PoolAssignment string    `json:"pool_assignment,omitempty"`
	IsAvailable    bool      `json:"is_available"`
	ScanTimestamp  time.Time `json:"scan_timestamp"`
}

// DiskIOStats is an append-only per-device iostat sample (§3 DiskIOStats).
type DiskIOStats struct {
	ID             int64     `json:"id,omitempty"`
	Host           string    `json:"host"`
	DeviceName     string    `json:"device_name"`
	ScanTimestamp  time.Time `json:"scan_timestamp"`
	ReadOps        float64   `json:"read_ops"`
	WriteOps       float64   `json:"write_ops"`
	ReadBandwidth  float64   `json:"read_bandwidth"`
	WriteBandwidth float64   `json:"write_bandwidth"`
}

// PoolIOStats is an append-only per-pool iostat sample with latency
// breakdown (§3 PoolIOStats).
type PoolIOStats struct {
	ID             int64     `json:"id,omitempty"`
	Host           string    `json:"host"`
	Pool           string    `json:"pool"`
	ScanTimestamp  time.Time `json:"scan_timestamp"`
	ReadOps        float64   `json:"read_ops"`
	WriteOps       float64   `json:"write_ops"`
	ReadBandwidth  float64   `json:"read_bandwidth"`
	WriteBandwidth float64   `json:"write_bandwidth"`
	TotalWait      *float64  `json:"total_wait,omitempty"`
	DiskWait       *float64  `json:"disk_wait,omitempty"`
	SyncqWait      *float64  `json:"syncq_wait,omitempty"`
	AsyncqWait     *float64  `json:"asyncq_wait,omitempty"`
	ScrubWait      *float64  `json:"scrub_wait,omitempty"`
	TrimWait       *float64  `json:"trim_wait,omitempty"`
	PoolType       string    `json:"pool_type,omitempty"`
}

// ARCStats is an append-only ZFS ARC sample (§3 ARCStats).
type ARCStats struct {
	ID              int64     `json:"id,omitempty"`
	Host            string    `json:"host"`
	ScanTimestamp   time.Time `json:"scan_timestamp"`
	ArcSize         int64     `json:"arc_size"`
	ArcTarget       int64     `json:"arc_target"`
	ArcMin          int64     `json:"arc_min"`
	ArcMax          int64     `json:"arc_max"`
	MRUSize         int64     `json:"mru_size"`
	MFUSize         int64     `json:"mfu_size"`
	DataSize        int64     `json:"data_size"`
	MetaSize        int64     `json:"meta_size"`
	Hits            int64     `json:"hits"`
	Misses          int64     `json:"misses"`
	MRUHits         int64     `json:"mru_hits"`
	MFUHits         int64     `json:"mfu_hits"`
	HitRatio        *float64  `json:"hit_ratio,omitempty"`
	DataEfficiency  *float64  `json:"data_efficiency,omitempty"`
	MetaEfficiency  *float64  `json:"meta_efficiency,omitempty"`
	L2Size          int64     `json:"l2_size"`
	L2Hits          int64     `json:"l2_hits"`
	L2Misses        int64     `json:"l2_misses"`
}

// CPUStats is an append-only system-wide CPU sample (§3 CPUStats).
type CPUStats struct {
	ID                   int64     `json:"id,omitempty"`
	Host                 string    `json:"host"`
	ScanTimestamp        time.Time `json:"scan_timestamp"`
	UtilizationPct       float64   `json:"utilization_pct"`
	LoadAvg1             float64   `json:"load_avg_1"`
	LoadAvg5             float64   `json:"load_avg_5"`
	LoadAvg15            float64   `json:"load_avg_15"`
	ContextSwitchesPerSec float64  `json:"context_switches_per_sec"`
	InterruptsPerSec     float64   `json:"interrupts_per_sec"`
	SyscallsPerSec       float64   `json:"syscalls_per_sec"`
	ProcessesRunning     int       `json:"processes_running"`
	ProcessesBlocked     int       `json:"processes_blocked"`
	CPUCount             int       `json:"cpu_count"`
	PerCoreJSON          string    `json:"per_core_json,omitempty"`
}

// MemoryStats is an append-only system-wide memory sample (§3 MemoryStats).
type MemoryStats struct {
	ID              int64     `json:"id,omitempty"`
	Host            string    `json:"host"`
	ScanTimestamp   time.Time `json:"scan_timestamp"`
	TotalBytes      int64     `json:"total_bytes"`
	UsedBytes       int64     `json:"used_bytes"`
	FreeBytes       int64     `json:"free_bytes"`
	UtilizationPct  float64   `json:"utilization_pct"`
	SwapTotalBytes  int64     `json:"swap_total_bytes"`
	SwapUsedBytes   int64     `json:"swap_used_bytes"`
	PageInPerSec    float64   `json:"page_in_per_sec"`
	PageOutPerSec   float64   `json:"page_out_per_sec"`
	PageFaultsPerSec float64  `json:"page_faults_per_sec"`
}

// PCIDevice is an append-only per-scan device record (§3 PCIDevice).
type PCIDevice struct {
	ID               int64     `json:"id,omitempty"`
	Host             string    `json:"host"`
	PCIAddress       string    `json:"pci_address"`
	ScanTimestamp    time.Time `json:"scan_timestamp"`
	VendorID         string    `json:"vendor_id"`
	DeviceID         string    `json:"device_id"`
	VendorName       string    `json:"vendor_name,omitempty"`
	DeviceName       string    `json:"device_name,omitempty"`
	DriverName       string    `json:"driver_name,omitempty"`
	DriverInstance   *int      `json:"driver_instance,omitempty"`
	DriverAttached   bool      `json:"driver_attached"`
	DeviceCategory   string    `json:"device_category"` // network|storage|display|usb|audio|other
	PPTEnabled       bool      `json:"ppt_enabled"`
	PPTCapable       bool      `json:"ppt_capable"`
	AssignedToZones  []string  `json:"assigned_to_zones,omitempty"`
	LinkedInterface  string    `json:"linked_interface,omitempty"`
	LinkedDisk       string    `json:"linked_disk,omitempty"`
}

// Task is a mutating operation queued against the host (§3 Task, §4.6).
type Task struct {
	ID          int64      `json:"id,omitempty"`
	ZoneName    string     `json:"zone_name,omitempty"`
	Operation   string     `json:"operation"`
	Priority    string     `json:"priority"` // low|normal|high|urgent
	Status      string     `json:"status"`   // pending|running|completed|failed|cancelled
	CreatedBy   string     `json:"created_by,omitempty"`
	MetadataJSON string    `json:"metadata_json,omitempty"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Session is an interactive console session (§3 Session).
type Session struct {
	ID          string     `json:"id"` // UUID
	Kind        string     `json:"kind"` // terminal|zlogin|vnc
	ZoneName    string     `json:"zone_name,omitempty"`
	Status      string     `json:"status"` // connecting|active|closed
	PID         *int       `json:"pid,omitempty"`
	Port        *int       `json:"port,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastSeen    time.Time  `json:"last_seen"`
}
