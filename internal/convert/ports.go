package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// ErrInvalidPortID is returned when a port identifier is missing or not a
// base-10 integer
var ErrInvalidPortID = errors.New("invalid port id")

// portInfo is what a host's open ports contribute to its entity
type portInfo struct {
	openPorts []int
	services  []string
}

// openPorts keeps the ports whose state resolves to open, in order
func openPorts(ports []scandoc.Port) []scandoc.Port {
	var open []scandoc.Port
	for _, p := range ports {
		if p.State.State == scandoc.StateOpen {
			open = append(open, p)
		}
	}
	return open
}

// extractPorts collects identifiers and service names of open ports and
// feeds their scripts to details. It returns nil when the host has no port
// block.
func extractPorts(block *scandoc.Ports, details *scriptDetails) (*portInfo, error) {
	if block == nil {
		return nil, nil
	}

	info := &portInfo{
		openPorts: []int{},
		services:  []string{},
	}
	for _, p := range openPorts(block.Port.Items()) {
		id, err := parsePortID(p.PortID)
		if err != nil {
			return nil, err
		}
		info.openPorts = append(info.openPorts, id)

		if p.Service != nil {
			info.services = append(info.services, p.Service.Name)
		}
		for _, script := range p.Scripts.Items() {
			details.collect(script)
		}
	}
	return info, nil
}

func (p *portInfo) apply(props domain.Properties) {
	if p == nil {
		return
	}
	props.Set(domain.PropOpenPorts, p.openPorts)
	props.Set(domain.PropServices, p.services)
}

// parsePortID parses a port identifier as a base-10 integer
func parsePortID(id scandoc.Text) (int, error) {
	s := strings.TrimSpace(id.String())
	if s == "" {
		return 0, fmt.Errorf("%w: missing", ErrInvalidPortID)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPortID, s)
	}
	return n, nil
}
