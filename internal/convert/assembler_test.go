package convert

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

func mustDecode(t *testing.T, input string) *scandoc.Document {
	t.Helper()
	doc, err := scandoc.Unmarshal([]byte(input))
	require.NoError(t, err)
	return doc
}

func convertOne(t *testing.T, host string) domain.HostEntity {
	t.Helper()
	report := ToHostEntities(mustDecode(t, `{"nmaprun": {"host": `+host+`}}`), DefaultOptions())
	require.Empty(t, report.Failures)
	require.Len(t, report.Entities, 1)
	return report.Entities[0]
}

func TestToHostEntities_SkipsHostsNotUp(t *testing.T) {
	doc := mustDecode(t, `{"nmaprun": {"host": [
		{"status": {"state": "down"}, "address": {"addr": "10.0.0.1", "addrtype": "ipv4"}},
		{"status": {"state": "up"}, "address": {"addr": "10.0.0.2", "addrtype": "ipv4"}},
		{"status": "down", "address": {"addr": "10.0.0.3", "addrtype": "ipv4"}}
	]}}`)

	report := ToHostEntities(doc, DefaultOptions())

	require.Len(t, report.Entities, 1)
	assert.Equal(t, "10.0.0.2", report.Entities[0].Properties[domain.PropIPAddress])
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Failures)
}

func TestToHostEntities_NoHosts(t *testing.T) {
	report := ToHostEntities(mustDecode(t, `{"nmaprun": {"args": "nmap -sn 10.0.0.0/30"}}`), DefaultOptions())
	assert.NotNil(t, report.Entities)
	assert.Empty(t, report.Entities)
	assert.Equal(t, "nmap -sn 10.0.0.0/30", report.Summary.Args)

	assert.Empty(t, ToHostEntities(nil, DefaultOptions()).Entities)
}

func TestAssemble_AddressCardinality(t *testing.T) {
	t.Run("one ip is a scalar", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"}}`)
		assert.Equal(t, "10.0.0.5", e.Properties[domain.PropIPAddress])
		assert.Equal(t, []string{}, e.Properties[domain.PropMACAddress])
		assert.Equal(t, false, e.Properties[domain.PropPublic])
	})

	t.Run("two ips are a sequence in encounter order", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": [
			{"addr": "10.0.0.5", "addrtype": "ipv4"},
			{"addr": "2001:4860:4860::8888", "addrtype": "ipv6"},
			{"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac", "vendor": "Apple"}
		]}`)
		assert.Equal(t, []string{"10.0.0.5", "2001:4860:4860::8888"}, e.Properties[domain.PropIPAddress])
		assert.Equal(t, "aa:bb:cc:dd:ee:ff", e.Properties[domain.PropMACAddress])
		assert.Equal(t, "Apple", e.Properties[domain.PropVendor])
		assert.Equal(t, true, e.Properties[domain.PropPublic])
	})

	t.Run("no addresses emits no address keys", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "hostnames": "box.lan"}`)
		for _, key := range []string{domain.PropPublic, domain.PropIPAddress, domain.PropMACAddress, domain.PropVendor} {
			_, ok := e.Properties.Get(key)
			assert.False(t, ok, "unexpected key %s", key)
		}
		assert.Equal(t, "nmap:box.lan:undefined:undefined", e.Key)
	})
}

func TestAssemble_PortFiltering(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"},
		"ports": {"port": [
			{"portid": "22", "state": {"state": "open", "reason": "syn-ack", "reason_ttl": "64"}, "service": {"name": "ssh"}},
			{"portid": "80", "state": {"state": "closed"}, "service": {"name": "http"}},
			{"portid": "443", "state": "open", "service": {"name": "https"}},
			{"portid": "8080", "state": "open"}
		]}}`)

	assert.Equal(t, []int{22, 443, 8080}, e.Properties[domain.PropOpenPorts])
	assert.Equal(t, []string{"ssh", "https"}, e.Properties[domain.PropServices])
}

func TestAssemble_SinglePortNotInSequence(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "ports": {"port": {"portid": "22", "state": "open", "service": {"name": "ssh"}}}}`)
	assert.Equal(t, []int{22}, e.Properties[domain.PropOpenPorts])
	assert.Equal(t, []string{"ssh"}, e.Properties[domain.PropServices])
}

func TestAssemble_ServicesAreNotDeduplicated(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "ports": {"port": [
		{"portid": "80", "state": "open", "service": {"name": "http"}},
		{"portid": "8080", "state": "open", "service": {"name": "http"}}
	]}}`)
	assert.Equal(t, []string{"http", "http"}, e.Properties[domain.PropServices])
}

func TestAssemble_DeviceClassification(t *testing.T) {
	tests := []struct {
		name        string
		ports       string
		wantClass   []string
		wantDevType any
	}{
		{
			name:        "router",
			ports:       `{"port": {"portid": "53", "state": "open", "service": {"name": "domain", "devicetype": "WAP-Router"}}}`,
			wantClass:   []string{"Host", "Gateway"},
			wantDevType: "WAP-Router",
		},
		{
			name:        "print server",
			ports:       `{"port": {"portid": "631", "state": "open", "service": {"name": "ipp", "devicetype": "print server"}}}`,
			wantClass:   []string{"Host", "Printer"},
			wantDevType: "print server",
		},
		{
			name:      "no hint",
			ports:     `{"port": {"portid": "22", "state": "open", "service": {"name": "ssh"}}}`,
			wantClass: []string{"Host"},
		},
		{
			name: "hint from a closed port still counts",
			ports: `{"port": [
				{"portid": "22", "state": "open", "service": {"name": "ssh"}},
				{"portid": "9100", "state": "closed", "service": {"name": "jetdirect", "devicetype": "printer"}}
			]}`,
			wantClass:   []string{"Host", "Printer"},
			wantDevType: "printer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := convertOne(t, `{"status": {"state": "up"}, "ports": `+tt.ports+`}`)
			assert.Equal(t, tt.wantClass, e.Class)
			devType, _ := e.Properties.Get(domain.PropDeviceType)
			assert.Equal(t, tt.wantDevType, devType)
		})
	}
}

func TestAssemble_OSHintIsNotUsedForClassification(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "os": {"osclass": {"type": "router", "osfamily": "IOS"}}}`)
	assert.Equal(t, []string{"Host"}, e.Class)
	assert.Equal(t, "router", e.Properties[domain.PropOSType])
	assert.Equal(t, "ios", e.Properties[domain.PropPlatform])
}

func TestAssemble_AFPServerInfo(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"},
		"ports": {"port": {"portid": "548", "state": "open", "service": {"name": "afp"},
			"script": {"id": "afp-serverinfo", "output": "\n  Server Flags:\n    Super Client: true\n  Server Name: MAC-mini\n  Machine Type: Macmini7,1\n  UTF8 Server Name: MAC-mini\n  Network Addresses:\n    afpserver/MAC-mini.local\n"}}}}`)

	assert.Equal(t, "MAC-mini", e.Properties[domain.PropServerName])
	assert.Equal(t, "Macmini7,1", e.Properties[domain.PropMachineType])
	assert.Equal(t, "MAC-mini.local", e.Properties[domain.PropAFPServerName])
	assert.Equal(t, "MAC-mini.local", e.DisplayName())
}

func TestAssemble_AFPServerNameRejectsBoolean(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"},
		"ports": {"port": {"portid": "548", "state": "open", "service": {"name": "afp"},
			"script": {"id": "afp-serverinfo", "output": "Supports Server Name: true"}}}}`)

	_, ok := e.Properties.Get(domain.PropServerName)
	assert.False(t, ok)
	_, ok = e.Properties.Get(domain.PropAFPServerName)
	assert.False(t, ok)
	assert.Equal(t, "10.0.0.5", e.DisplayName())
}

func TestAssemble_NBStatHostScript(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.7", "addrtype": "ipv4"},
		"hostscript": {"script": [
			{"id": "smb-os-discovery", "output": "OS: Windows 10"},
			{"id": "nbstat", "output": "NetBIOS name: DESKTOP-01, NetBIOS user: <unknown>, NetBIOS MAC: 00:11:22:33:44:55"}
		]}}`)

	assert.Equal(t, "DESKTOP-01", e.Properties[domain.PropNetBIOSName])
	assert.Equal(t, "DESKTOP-01", e.DisplayName())
}

func TestAssemble_DisplayNamePrecedence(t *testing.T) {
	t.Run("ip precedes mac", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": [
			{"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac"},
			{"addr": "10.0.0.5", "addrtype": "ipv4"}
		]}`)
		assert.Equal(t, "10.0.0.5", e.DisplayName())
		assert.Equal(t, "nmap:undefined:aa:bb:cc:dd:ee:ff:10.0.0.5", e.Key)
	})

	t.Run("first of several ips", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": [
			{"addr": "10.0.0.5", "addrtype": "ipv4"},
			{"addr": "10.0.0.6", "addrtype": "ipv4"}
		]}`)
		assert.Equal(t, "10.0.0.5", e.DisplayName())
		assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, e.Properties[domain.PropIPAddress])
	})

		t.Run("mac when no ip", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac"}}`)
		assert.Equal(t, "aa:bb:cc:dd:ee:ff", e.DisplayName())
	})

	t.Run("hostname wins", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"},
			"hostnames": {"hostname": {"name": "nas.lan", "type": "PTR"}}}`)
		assert.Equal(t, "nas.lan", e.DisplayName())
	})

	t.Run("nothing to show", func(t *testing.T) {
		e := convertOne(t, `{"status": {"state": "up"}}`)
		_, ok := e.Properties.Get(domain.PropDisplayName)
		assert.False(t, ok)
		assert.Equal(t, "nmap:undefined:undefined:undefined", e.Key)
	})
}

func TestAssemble_Hostnames(t *testing.T) {
	tests := []struct {
		name         string
		hostnames    string
		wantHostname any
		wantAliases  any
	}{
		{
			name:         "plain string",
			hostnames:    `"box.lan"`,
			wantHostname: "box.lan",
		},
		{
			name:      "blank string",
			hostnames: `"  "`,
		},
		{
			name:         "user entry preferred",
			hostnames:    `{"hostname": [{"name": "ptr.lan", "type": "PTR"}, {"name": "given.lan", "type": "user"}]}`,
			wantHostname: "given.lan",
			wantAliases:  []string{"ptr.lan", "given.lan"},
		},
		{
			name:         "first entry without user",
			hostnames:    `{"hostname": [{"name": "a.lan", "type": "PTR"}, {"name": "b.lan", "type": "PTR"}]}`,
			wantHostname: "a.lan",
			wantAliases:  []string{"a.lan", "b.lan"},
		},
		{
			name:         "single entry",
			hostnames:    `{"hostname": {"name": "only.lan", "type": "PTR"}}`,
			wantHostname: "only.lan",
			wantAliases:  []string{"only.lan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := convertOne(t, `{"status": {"state": "up"}, "hostnames": `+tt.hostnames+`}`)
			hostname, _ := e.Properties.Get(domain.PropHostname)
			aliases, _ := e.Properties.Get(domain.PropAliases)
			assert.Equal(t, tt.wantHostname, hostname)
			assert.Equal(t, tt.wantAliases, aliases)
		})
	}
}

func TestAssemble_PropertyBag(t *testing.T) {
	e := convertOne(t, `{"status": {"state": "up", "reason": "arp-response"},
		"address": [{"addr": "192.168.1.1", "addrtype": "ipv4"}, {"addr": "AA:BB:CC:DD:EE:FF", "addrtype": "mac", "vendor": "Netgear"}],
		"hostnames": {"hostname": {"name": "router.lan", "type": "PTR"}},
		"ports": {"port": {"portid": "53", "state": "open", "service": {"name": "domain", "devicetype": "router"}}},
		"os": {"portused": {"state": "open", "proto": "tcp", "portid": "53"},
			"osmatch": {"name": "Linux 3.2 - 4.9", "osclass": {"type": "general purpose", "osfamily": "Linux"}}}}`)

	assert.Equal(t, domain.EntityTypeNmapHost, e.Type)
	assert.Equal(t, "nmap:router.lan:AA:BB:CC:DD:EE:FF:192.168.1.1", e.Key)
	assert.Equal(t, domain.Properties{
		"public":      false,
		"ipAddress":   "192.168.1.1",
		"macAddress":  "AA:BB:CC:DD:EE:FF",
		"vendor":      "Netgear",
		"platform":    "linux",
		"osName":      "Linux 3.2 - 4.9",
		"ports":       []int{53},
		"type":        "general purpose",
		"openPorts":   []int{53},
		"services":    []string{"domain"},
		"hostname":    "router.lan",
		"aliases":     []string{"router.lan"},
		"status":      "up",
		"deviceType":  "router",
		"active":      true,
		"displayName": "router.lan",
	}, e.Properties)
	assert.JSONEq(t, `{"status": {"state": "up", "reason": "arp-response"},
		"address": [{"addr": "192.168.1.1", "addrtype": "ipv4"}, {"addr": "AA:BB:CC:DD:EE:FF", "addrtype": "mac", "vendor": "Netgear"}],
		"hostnames": {"hostname": {"name": "router.lan", "type": "PTR"}},
		"ports": {"port": {"portid": "53", "state": "open", "service": {"name": "domain", "devicetype": "router"}}},
		"os": {"portused": {"state": "open", "proto": "tcp", "portid": "53"},
			"osmatch": {"name": "Linux 3.2 - 4.9", "osclass": {"type": "general purpose", "osfamily": "Linux"}}}}`, string(e.RawData))
}

func TestAssemble_NonNumericPortFailsOnlyThatHost(t *testing.T) {
	doc := mustDecode(t, `{"nmaprun": {"host": [
		{"status": {"state": "up"}, "address": {"addr": "10.0.0.1", "addrtype": "ipv4"},
			"ports": {"port": {"portid": "ssh", "state": "open"}}},
		{"status": {"state": "up"}, "address": {"addr": "10.0.0.2", "addrtype": "ipv4"}}
	]}}`)

	report := ToHostEntities(doc, DefaultOptions())

	require.Len(t, report.Entities, 1)
	assert.Equal(t, "10.0.0.2", report.Entities[0].Properties[domain.PropIPAddress])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 0, report.Failures[0].Index)
	assert.Equal(t, "10.0.0.1", report.Failures[0].Address)
	assert.ErrorIs(t, report.Failures[0], ErrInvalidPortID)
}

func TestAssemble_FailureKinds(t *testing.T) {
	doc := mustDecode(t, `{"nmaprun": {"host": [
		{"address": {"addr": "10.0.0.1", "addrtype": "ipv4"}},
		{"status": {"state": "up"}, "ports": {"port": {"portid": {"x": 1}, "state": "open"}}},
		{"status": {"state": "up"}, "os": {"portused": {"portid": ""}}},
		{"status": {"state": "up"}}
	]}}`)

	report := ToHostEntities(doc, DefaultOptions())

	require.Len(t, report.Failures, 3)
	assert.ErrorIs(t, report.Failures[0], ErrMissingStatus)
	assert.Error(t, report.Failures[1].Err)
	assert.ErrorIs(t, report.Failures[2], ErrInvalidPortID)
	assert.Len(t, report.Entities, 1)
}

func TestConvertHost_RecoversPanics(t *testing.T) {
	opts := DefaultOptions()
	opts.IsPublicIP = func(string) bool { panic("classifier exploded") }

	doc := mustDecode(t, `{"nmaprun": {"host": {"status": {"state": "up"}, "address": {"addr": "10.0.0.1", "addrtype": "ipv4"}}}}`)
	result := ConvertHost(0, doc.Hosts()[0], opts)

	assert.Equal(t, HostFailed, result.Status)
	assert.ErrorIs(t, result.Err, ErrHostPanic)
	assert.Nil(t, result.Entity)
}

func TestAssemble_DefaultGateway(t *testing.T) {
	doc := mustDecode(t, `{"nmaprun": {"host": [
		{"status": {"state": "up"}, "address": {"addr": "192.168.1.1", "addrtype": "ipv4"}},
		{"status": {"state": "up"}, "address": {"addr": "192.168.1.20", "addrtype": "ipv4"},
			"ports": {"port": {"portid": "9100", "state": "open", "service": {"name": "jetdirect", "devicetype": "printer"}}}}
	]}}`)

	opts := DefaultOptions()
	opts.DefaultGateway = "192.168.1.1"
	report := ToHostEntities(doc, opts)
	require.Len(t, report.Entities, 2)

	gw := report.Entities[0]
	assert.Equal(t, []string{"Host", "Gateway"}, gw.Class)
	_, ok := gw.Properties.Get(domain.PropDefaultGateway)
	assert.False(t, ok)

	printer := report.Entities[1]
	assert.Equal(t, []string{"Host", "Printer"}, printer.Class)
	assert.Equal(t, "192.168.1.1", printer.Properties[domain.PropDefaultGateway])
}

func TestToHostEntities_Idempotent(t *testing.T) {
	input := `{"nmaprun": {"host": [
		{"status": {"state": "up"}, "address": [{"addr": "10.0.0.5", "addrtype": "ipv4"}, {"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac"}],
			"hostnames": {"hostname": [{"name": "a", "type": "PTR"}, {"name": "b", "type": "user"}]},
			"ports": {"port": [{"portid": "22", "state": "open", "service": {"name": "ssh"}}, {"portid": "80", "state": "closed"}]}},
		{"status": {"state": "down"}},
		{"status": {"state": "up"}, "address": {"addr": "8.8.8.8", "addrtype": "ipv4"}}
	]}}`
	doc := mustDecode(t, input)

	first, err := json.Marshal(ToHostEntities(doc, DefaultOptions()).Entities)
	require.NoError(t, err)
	second, err := json.Marshal(ToHostEntities(doc, DefaultOptions()).Entities)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssemble_EntityKey(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{
			name: "ip only",
			host: `{"status": {"state": "up"}, "address": {"addr": "10.0.0.5", "addrtype": "ipv4"}}`,
			want: "nmap:undefined::10.0.0.5",
		},
		{
			name: "blank hostname text",
			host: `{"status": {"state": "up"}, "hostnames": "  ", "address": {"addr": "10.0.0.5", "addrtype": "ipv4"}}`,
			want: "nmap:undefined::10.0.0.5",
		},
		{
			name: "mac only",
			host: `{"status": {"state": "up"}, "address": {"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac"}}`,
			want: "nmap:undefined:aa:bb:cc:dd:ee:ff:",
		},
		{
			name: "all parts",
			host: `{"status": {"state": "up"}, "hostnames": {"hostname": {"name": "nas.lan", "type": "PTR"}},
				"address": [{"addr": "10.0.0.5", "addrtype": "ipv4"}, {"addr": "aa:bb:cc:dd:ee:ff", "addrtype": "mac"}]}`,
			want: "nmap:nas.lan:aa:bb:cc:dd:ee:ff:10.0.0.5",
		},
		{
			name: "two ips joined",
			host: `{"status": {"state": "up"}, "address": [
				{"addr": "10.0.0.5", "addrtype": "ipv4"}, {"addr": "10.0.0.6", "addrtype": "ipv4"}]}`,
			want: "nmap:undefined::10.0.0.5,10.0.0.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertOne(t, tt.host).Key)
		})
	}
}

func TestToHostEntities_FromXML(t *testing.T) {
	input := `<nmaprun args="nmap -sV 192.168.1.0/24">
<host><status state="up"/><address addr="192.168.1.1" addrtype="ipv4"/><hostnames/>
<ports><port protocol="tcp" portid="53"><state state="open"/><service name="domain" devicetype="WAP-Router"/></port>
<port protocol="tcp" portid="80"><state state="closed"/></port></ports></host>
<host><status state="down"/><address addr="192.168.1.2" addrtype="ipv4"/></host>
<runstats><hosts up="1" down="1" total="2"/></runstats>
</nmaprun>`

	doc, err := scandoc.DecodeXML(strings.NewReader(input))
	require.NoError(t, err)

	report := ToHostEntities(doc, DefaultOptions())
	require.Len(t, report.Entities, 1)
	e := report.Entities[0]
	assert.Equal(t, []string{"Host", "Gateway"}, e.Class)
	assert.Equal(t, []int{53}, e.Properties[domain.PropOpenPorts])
	assert.Equal(t, "nmap:undefined::192.168.1.1", e.Key)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Summary.HostsTotal)
}
