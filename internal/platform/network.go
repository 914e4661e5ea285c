package platform

import (
	"strconv"
	"strings"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// ParseDladmShowLink parses `dladm show-link -p -o
// link,class,state,over,speed` parseable output into current-state
// NetworkInterface records. Fields are colon-separated; embedded colons
// (MAC addresses are not present in show-link) are not expected here but
// UnescapeColonMAC is applied defensively since dladm escapes colons
// uniformly across its -p output regardless of field content.
func ParseDladmShowLink(host string, output []byte) []model.NetworkInterface {
	var out []model.NetworkInterface
	now := time.Now()

	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		fields := splitColonFields(line)
		if len(fields) < 3 {
			continue // divergent column count, skip rather than abort the batch
		}

		iface := model.NetworkInterface{
			Host:          host,
			Link:          fields[0],
			Class:         fields[1],
			State:         fields[2],
			ScanTimestamp: now,
		}
		if len(fields) > 3 && !IsNullToken(fields[3]) {
			iface.Over = fields[3]
		}
		if len(fields) > 4 {
			if speed := ParseInt64OrNil(fields[4]); speed != nil {
				iface.Speed = speed
			}
		}
		out = append(out, iface)
	}
	return out
}

// ParseDladmShowVNIC parses `dladm show-vnic -p -o
// link,over,speed,macaddress,macaddrtype,vid,zone` output into
// VNIC-specific records; it does not merge them itself. Returns a map
// keyed by link name so the collector can merge it against
// ParseDladmShowLink's result without either parser needing to know
// about the other.
func ParseDladmShowVNIC(output []byte) map[string]model.NetworkInterface {
	out := map[string]model.NetworkInterface{}
	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		fields := splitColonFields(line)
		if len(fields) < 1 {
			continue
		}
		link := fields[0]
		rec := model.NetworkInterface{Link: link, Class: "vnic"}
		if len(fields) > 1 && !IsNullToken(fields[1]) {
			rec.Over = fields[1]
		}
		if len(fields) > 2 {
			rec.Speed = ParseInt64OrNil(fields[2])
		}
		if len(fields) > 3 {
			rec.MACAddress = UnescapeColonMAC(fields[3])
		}
		if len(fields) > 4 {
			rec.MACAddrType = fields[4]
		}
		if len(fields) > 5 {
			if vid, err := strconv.Atoi(fields[5]); err == nil {
				rec.VID = &vid
			}
		}
		if len(fields) > 6 {
			rec.Zone = fields[6]
		}
		out[link] = rec
	}
	return out
}

// AggrPort is one member link of a link aggregation, including its LACP
// state, captured as a JSON sub-document on the aggregate's
// NetworkInterface row (§4.3: "additionally captures port and LACP
// details as JSON sub-documents").
type AggrPort struct {
	Link      string `json:"link"`
	Speed     int64  `json:"speed,omitempty"`
	Duplex    string `json:"duplex,omitempty"`
	State     string `json:"state,omitempty"`
	Address   string `json:"address,omitempty"`
	PortState string `json:"portstate,omitempty"`
	AggState  string `json:"aggregatable,omitempty"`
	SyncState string `json:"sync,omitempty"`
	Collector string `json:"collecting,omitempty"`
	Distrib   string `json:"distributing,omitempty"`
	Defaulted string `json:"defaulted,omitempty"`
	Expired   string `json:"expired,omitempty"`
}

// ParseDladmShowAggr parses `dladm show-aggr -p -o
// link,policy,addrpolicy,lacpactivity,lacptimer` for the aggregate
// summary row and `dladm show-aggr -x -p -o
// link,port,speed,duplex,state,address,portstate` for the per-port LACP
// detail, returning a map from aggregate link name to its policy string
// and port list ready for JSON-sub-document encoding by the caller.
func ParseDladmShowAggr(summary, portDetail []byte) (policies map[string]string, ports map[string][]AggrPort) {
	policies = map[string]string{}
	for _, line := range splitLines(summary) {
		if line == "" {
			continue
		}
		fields := splitColonFields(line)
		if len(fields) < 2 {
			continue
		}
		policies[fields[0]] = strings.Join(fields[1:], ":")
	}

	ports = map[string][]AggrPort{}
	for _, line := range splitLines(portDetail) {
		if line == "" {
			continue
		}
		fields := splitColonFields(line)
		if len(fields) < 2 {
			continue
		}
		link := fields[0]
		p := AggrPort{Link: fields[1]}
		if len(fields) > 2 {
			if s, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				p.Speed = s
			}
		}
		if len(fields) > 3 {
			p.Duplex = fields[3]
		}
		if len(fields) > 4 {
			p.State = fields[4]
		}
		if len(fields) > 5 {
			p.Address = UnescapeColonMAC(fields[5])
		}
		if len(fields) > 6 {
			p.PortState = fields[6]
		}
		ports[link] = append(ports[link], p)
	}
	return policies, ports
}

// ParseIpadmShowAddr parses `ipadm show-addr -p -o
// addrobj,addr,state,type` output into IPAddress records.
func ParseIpadmShowAddr(host string, output []byte) []model.IPAddress {
	var out []model.IPAddress
	now := time.Now()

	for _, line := range splitLines(output) {
		if line == "" {
			continue
		}
		fields := splitColonFields(line)
		if len(fields) < 2 {
			continue
		}
		addrObj := fields[0]
		addrField := fields[1]
		state := ""
		if len(fields) > 2 {
			state = fields[2]
		}
		// An IPv6 address printed without escaped colons spans several
		// fields; state and type are then the last two.
		if len(fields) > 4 {
			addrField = strings.Join(fields[1:len(fields)-2], ":")
			state = fields[len(fields)-2]
		}
		addrField = strings.ReplaceAll(addrField, `\:`, ":")

		iface := addrObj
		if idx := strings.Index(addrObj, "/"); idx >= 0 {
			iface = addrObj[:idx]
		}

		addr, prefix, version := parseCIDR(addrField)
		if addr == "" {
			continue
		}

		rec := model.IPAddress{
			Host:          host,
			Interface:     iface,
			Address:       addr,
			Prefix:        prefix,
			IPVersion:     version,
			ScanTimestamp: now,
			State:         state,
		}
		out = append(out, rec)
	}
	return out
}

// parseCIDR splits "192.168.1.5/24" into its address, prefix length,
// and IP version (4 or 6, determined by presence of a colon).
func parseCIDR(s string) (addr string, prefix int, version int) {
	parts := strings.SplitN(s, "/", 2)
	addr = parts[0]
	if len(parts) == 2 {
		prefix, _ = strconv.Atoi(parts[1])
	}
	if strings.Contains(addr, ":") {
		version = 6
	} else {
		version = 4
	}
	return addr, prefix, version
}

// ParseNetstatRoutes parses `netstat -rn` tabular output (both the IPv4
// and IPv6 sections, detected by the "Routing Table:" header lines) into
// Route records.
func ParseNetstatRoutes(host string, output []byte) []model.Route {
	var out []model.Route
	now := time.Now()
	version := 4

	lines := splitLines(output)
	inTable := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Routing Table:") {
			if strings.Contains(trimmed, "IPv6") {
				version = 6
			} else {
				version = 4
			}
			inTable = false
			continue
		}
		if strings.HasPrefix(trimmed, "Destination") {
			inTable = true
			continue
		}
		if strings.HasPrefix(trimmed, "---") {
			continue
		}
		if !inTable {
			continue
		}

		fields := SplitFields(trimmed)
		if len(fields) < 2 {
			continue
		}
		rec := model.Route{
			Host:          host,
			Destination:   fields[0],
			Gateway:       fields[1],
			IPVersion:     version,
			ScanTimestamp: now,
		}
		if len(fields) > 2 {
			rec.Flags = fields[2]
		}
		if len(fields) > 3 {
			rec.Ref = ParseInt64OrNil(fields[3])
		}
		if len(fields) > 4 {
			rec.Use = ParseInt64OrNil(fields[4])
		}
		if len(fields) > 5 {
			rec.Interface = fields[5]
		}
		rec.IsDefault = rec.Destination == "default" || rec.Destination == "0.0.0.0/0" || rec.Destination == "::/0"
		out = append(out, rec)
	}
	return out
}

func splitLines(b []byte) []string {
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

// splitColonFields splits a dladm/zpool `-p` colon-delimited parseable
// line while respecting the backslash-escaping dladm applies to literal
// colons inside a field (most commonly MAC addresses).
func splitColonFields(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			cur.WriteByte(c)
			escaped = true
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
