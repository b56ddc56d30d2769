package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NmapOption is a functional option for configuring NmapAdapter
type NmapOption func(*NmapAdapter)

// WithLogger sets the logger for scan progress
func WithLogger(logger zerolog.Logger) NmapOption {
	return func(n *NmapAdapter) {
		n.logger = logger
	}
}

// WithTimeout sets the timeout for the entire nmap scan
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapAdapter) {
		n.timeout = d
	}
}

// WithPortRange sets the ports to scan
// Format: "80,443,8080" or "1-1000" or "22,80-443,8080"
func WithPortRange(ports string) NmapOption {
	return func(n *NmapAdapter) {
		// Validate and set port range
		if validated, err := parsePorts(ports); err == nil {
			n.portRange = validated
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.serviceDetection = enabled
	}
}

// WithOSDetection enables or disables OS detection (-O)
// Note: OS detection requires root privileges
func WithOSDetection(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.osDetection = enabled
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat all hosts as online (-Pn)
// Useful for networks that block ICMP
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NmapAdapter) {
		n.skipHostDiscovery = skip
	}
}

// Scan profiles selectable by name
const (
	ProfileCommon     = "common"
	ProfileFast       = "fast"
	ProfileAggressive = "aggressive"
)

// commonPorts covers everyday services plus the AFP, NetBIOS and printing
// ports whose scripts name hosts
const commonPorts = "22,25,53,80,110,137,139,143,443,445,548,631,993,995,3306,3389,5432,5900,8080,8443,9100"

// WithCommonPorts scans commonPorts
func WithCommonPorts() NmapOption {
	return func(n *NmapAdapter) {
		n.portRange = commonPorts
	}
}

// WithTopPorts approximates nmap's --top-ports for 10, 100 and anything
// larger, which maps to the first 1024 ports
func WithTopPorts(count int) NmapOption {
	return func(n *NmapAdapter) {
		switch {
		case count <= 10:
			n.portRange = "21,22,23,25,80,110,139,443,445,3389"
		case count <= 100:
			n.portRange = "21-23,25,53,80,110,111,135,139,143,443,445,548,631,993,995,1723,3306,3389,5900,8080"
		default:
			n.portRange = "1-1024"
		}
	}
}

// WithFastScan checks a handful of ports without version probes
func WithFastScan() NmapOption {
	return func(n *NmapAdapter) {
		n.portRange = "22,80,443,548"
		n.serviceDetection = false
		n.timeout = 5 * time.Minute
	}
}

// WithAggressiveScan scans every TCP port with service and OS detection.
// OS detection requires root.
func WithAggressiveScan() NmapOption {
	return func(n *NmapAdapter) {
		n.portRange = "1-65535"
		n.serviceDetection = true
		n.osDetection = true
		n.timeout = 30 * time.Minute
	}
}

// ProfileOption returns the option for a named scan profile
func ProfileOption(name string) (NmapOption, error) {
	switch strings.ToLower(name) {
	case ProfileCommon:
		return WithCommonPorts(), nil
	case ProfileFast:
		return WithFastScan(), nil
	case ProfileAggressive:
		return WithAggressiveScan(), nil
	default:
		return nil, fmt.Errorf("unknown scan profile %q (want %s, %s or %s)",
			name, ProfileCommon, ProfileFast, ProfileAggressive)
	}
}
