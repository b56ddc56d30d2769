package convert

import (
	"regexp"
	"strings"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// Script ids mined for host attributes
const (
	scriptAFPServerInfo = "afp-serverinfo"
	scriptNBStat        = "nbstat"
)

var (
	reAFPServer   = regexp.MustCompile(`(?i)afpserver/([\w,.@-]+)`)
	reServerName  = regexp.MustCompile(`(?i)Server Name: ([\w,.-]+)`)
	reMachineType = regexp.MustCompile(`(?i)Machine Type: ([\w,.-]+)`)
	reNetBIOSName = regexp.MustCompile(`(?i)NetBIOS Name: ([\w.-]+)`)
)

// afpServerInfo holds the fields mined from afp-serverinfo output
type afpServerInfo struct {
	AFPServerName string
	ServerName    string
	MachineType   string
}

// parseAFPServerInfo extracts the AFP server name, advertised server name
// and machine type. ok is false when nothing matched.
func parseAFPServerInfo(script scandoc.Script) (info afpServerInfo, ok bool) {
	if m := reAFPServer.FindStringSubmatch(script.Output); m != nil {
		info.AFPServerName = m[1]
	}
	info.ServerName = firstServerName(script.Output)
	if m := reMachineType.FindStringSubmatch(script.Output); m != nil {
		info.MachineType = m[1]
	}

	// structured elements back up the free text
	for _, elem := range script.Elems.Items() {
		switch {
		case info.ServerName == "" && strings.EqualFold(elem.Key, "Server Name"):
			if token := firstToken(elem.Value); token != "" && !isBooleanToken(token) {
				info.ServerName = token
			}
		case info.MachineType == "" && strings.EqualFold(elem.Key, "Machine Type"):
			info.MachineType = firstToken(elem.Value)
		}
	}

	ok = info.AFPServerName != "" || info.ServerName != "" || info.MachineType != ""
	return info, ok
}

// firstServerName returns the first "Server Name:" token that is not a
// boolean flag such as "Server Name: true" in a capability listing.
func firstServerName(output string) string {
	for _, m := range reServerName.FindAllStringSubmatch(output, -1) {
		if !isBooleanToken(m[1]) {
			return m[1]
		}
	}
	return ""
}

func isBooleanToken(token string) bool {
	lower := strings.ToLower(token)
	return strings.HasPrefix(lower, "true") || strings.HasPrefix(lower, "false")
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nbstatInfo holds the fields mined from nbstat output
type nbstatInfo struct {
	NetBIOSName string
}

// parseNBStat extracts the NetBIOS name
func parseNBStat(script scandoc.Script) (nbstatInfo, bool) {
	m := reNetBIOSName.FindStringSubmatch(script.Output)
	if m == nil {
		return nbstatInfo{}, false
	}
	return nbstatInfo{NetBIOSName: m[1]}, true
}

// scriptDetails accumulates script-derived attributes across a host's
// scripts. A later match replaces an earlier one; a miss never clears one.
type scriptDetails struct {
	afpServerName string
	serverName    string
	machineType   string
	netbiosName   string
}

func (d *scriptDetails) collect(script scandoc.Script) {
	switch script.ID {
	case scriptAFPServerInfo:
		info, ok := parseAFPServerInfo(script)
		if !ok {
			return
		}
		setIfFound(&d.afpServerName, info.AFPServerName)
		setIfFound(&d.serverName, info.ServerName)
		setIfFound(&d.machineType, info.MachineType)
	case scriptNBStat:
		if info, ok := parseNBStat(script); ok {
			d.netbiosName = info.NetBIOSName
		}
	}
}

func (d *scriptDetails) apply(props domain.Properties) {
	setIfPresent(props, domain.PropAFPServerName, d.afpServerName)
	setIfPresent(props, domain.PropServerName, d.serverName)
	setIfPresent(props, domain.PropMachineType, d.machineType)
	setIfPresent(props, domain.PropNetBIOSName, d.netbiosName)
}

func setIfFound(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setIfPresent(props domain.Properties, key, value string) {
	if value != "" {
		props.Set(key, value)
	}
}
