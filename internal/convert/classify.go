package convert

import (
	"strings"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// deviceClassRules maps device-type hint fragments to entity classes, see
// https://nmap.org/book/osdetect-device-types.html. First match wins.
var deviceClassRules = []struct {
	fragments []string
	class     string
}{
	{[]string{"balancer", "bridge", "router", "proxy"}, domain.ClassGateway},
	{[]string{"firewall"}, domain.ClassFirewall},
	{[]string{"print"}, domain.ClassPrinter},
	{[]string{"phone", "device"}, domain.ClassDevice},
}

// deviceTypeHint returns the first non-empty service device type among the
// host's ports. OS class hints are not consulted.
func deviceTypeHint(block *scandoc.Ports) string {
	if block == nil {
		return ""
	}
	for _, p := range block.Port.Items() {
		if p.Service != nil && p.Service.DeviceType != "" {
			return p.Service.DeviceType
		}
	}
	return ""
}

// classifyDevice returns the extra class for a device-type hint, or "" when
// the hint matches no rule.
func classifyDevice(hint string) string {
	if hint == "" {
		return ""
	}
	lower := strings.ToLower(hint)
	for _, rule := range deviceClassRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(lower, fragment) {
				return rule.class
			}
		}
	}
	return ""
}

// entityClasses returns the label set for a device-type hint
func entityClasses(hint string) []string {
	classes := []string{domain.ClassHost}
	if class := classifyDevice(hint); class != "" {
		classes = append(classes, class)
	}
	return classes
}
