package domain

import (
	"encoding/json"
	"strings"
)

// EntityTypeNmapHost is the type tag of every host entity
const EntityTypeNmapHost = "nmap_discovered_host"

// Entity classes (labels) assigned to hosts
const (
	ClassHost     = "Host"
	ClassGateway  = "Gateway"
	ClassFirewall = "Firewall"
	ClassPrinter  = "Printer"
	ClassDevice   = "Device"
)

// Property keys of a host entity
const (
	PropPublic         = "public"
	PropIPAddress      = "ipAddress"
	PropMACAddress     = "macAddress"
	PropVendor         = "vendor"
	PropPlatform       = "platform"
	PropOSName         = "osName"
	PropOSPorts        = "ports"
	PropOSType         = "type"
	PropOpenPorts      = "openPorts"
	PropServices       = "services"
	PropAFPServerName  = "afpServerName"
	PropServerName     = "serverName"
	PropMachineType    = "machineType"
	PropNetBIOSName    = "netbiosName"
	PropHostname       = "hostname"
	PropAliases        = "aliases"
	PropStatus         = "status"
	PropDeviceType     = "deviceType"
	PropActive         = "active"
	PropDisplayName    = "displayName"
	PropDefaultGateway = "defaultGateway"
)

// Properties is the flat property bag of an entity. Values are strings,
// numbers, booleans or sequences of those; absent attributes have no key.
type Properties map[string]any

// Set stores a property value
func (p Properties) Set(key string, value any) {
	p[key] = value
}

// Get returns a property value
func (p Properties) Get(key string) (any, bool) {
	val, ok := p[key]
	return val, ok
}

// GetString returns a property as a string, or "" if absent or not a string
func (p Properties) GetString(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// HostEntity is the canonical inventory record for one reachable host
type HostEntity struct {
	Key        string          `json:"entityKey" yaml:"entityKey"`
	Type       string          `json:"entityType" yaml:"entityType"`
	Class      []string        `json:"entityClass" yaml:"entityClass"`
	Properties Properties      `json:"properties" yaml:"properties"`
	RawData    json.RawMessage `json:"rawData,omitempty" yaml:"-"`
}

// DisplayName returns the entity's display name property
func (e *HostEntity) DisplayName() string {
	return e.Properties.GetString(PropDisplayName)
}

// HasClass reports whether the entity carries the given label
func (e *HostEntity) HasClass(class string) bool {
	for _, c := range e.Class {
		if c == class {
			return true
		}
	}
	return false
}

// KeyAbsent stands in for a key component the host did not report. Keys
// written by earlier ingests use this literal, so it must not change.
const KeyAbsent = "undefined"

// KeyPart renders a property value as it appears inside an entity key.
// Absent values render as KeyAbsent, sequences are comma-joined and an
// empty sequence renders empty.
func KeyPart(value any) string {
	switch v := value.(type) {
	case nil:
		return KeyAbsent
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	default:
		return ""
	}
}
