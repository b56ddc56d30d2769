package convert

import (
	"strings"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// osInfo is what an OS fingerprint contributes to an entity
type osInfo struct {
	platform   string
	osName     string
	deviceType string
	ports      []int
}

// extractOS reads the OS block. It returns nil when the host has none.
func extractOS(block *scandoc.OS) (*osInfo, error) {
	if block == nil {
		return nil, nil
	}

	info := &osInfo{}
	if class, ok := osClass(block); ok {
		info.platform = strings.ToLower(class.OSFamily)
		info.deviceType = class.Type
	}

	// an ambiguous fingerprint is not resolved to a single guess
	if block.Matches.Shape() == scandoc.ShapeSingle {
		info.osName = block.Matches.Items()[0].Name
	}

	if !block.PortsUsed.IsEmpty() {
		info.ports = make([]int, 0, block.PortsUsed.Len())
		for _, used := range block.PortsUsed.Items() {
			id, err := parsePortID(used.PortID)
			if err != nil {
				return nil, err
			}
			info.ports = append(info.ports, id)
		}
	}
	return info, nil
}

// osClass picks the OS class: the block-level class when present, else the
// first class of the best match.
func osClass(block *scandoc.OS) (scandoc.OSClass, bool) {
	if classes := block.Classes.Items(); len(classes) > 0 {
		return classes[0], true
	}
	if matches := block.Matches.Items(); len(matches) > 0 {
		if classes := matches[0].Classes.Items(); len(classes) > 0 {
			return classes[0], true
		}
	}
	return scandoc.OSClass{}, false
}

func (o *osInfo) apply(props domain.Properties) {
	if o == nil {
		return
	}
	setIfPresent(props, domain.PropPlatform, o.platform)
	setIfPresent(props, domain.PropOSName, o.osName)
	setIfPresent(props, domain.PropOSType, o.deviceType)
	if o.ports != nil {
		props.Set(domain.PropOSPorts, o.ports)
	}
}
