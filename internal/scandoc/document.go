package scandoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the root of a scan report in object form
type Document struct {
	Run *Run `json:"nmaprun"`
}

// Run carries scan metadata and the discovered hosts
type Run struct {
	Scanner          string              `json:"scanner"`
	Args             string              `json:"args"`
	Start            Text                `json:"start"`
	StartStr         string              `json:"startstr"`
	Version          string              `json:"version"`
	XMLOutputVersion string              `json:"xmloutputversion"`
	ScanInfo         OneOrMany[ScanInfo] `json:"scaninfo"`
	TaskBegin        OneOrMany[Task]     `json:"taskbegin"`
	TaskEnd          OneOrMany[Task]     `json:"taskend"`
	RunStats         *RunStats           `json:"runstats"`
	Hosts            OneOrMany[Host]     `json:"host"`
}

// ScanInfo describes one scan type that was run
type ScanInfo struct {
	Type        string `json:"type"`
	Protocol    string `json:"protocol"`
	NumServices Text   `json:"numservices"`
	Services    string `json:"services"`
}

// Task marks the start or end of a scan phase
type Task struct {
	Task      string `json:"task"`
	Time      Text   `json:"time"`
	ExtraInfo string `json:"extrainfo,omitempty"`
}

// RunStats summarizes the finished run
type RunStats struct {
	Finished Finished  `json:"finished"`
	Hosts    HostStats `json:"hosts"`
}

// Finished describes how the run ended
type Finished struct {
	Time    Text   `json:"time"`
	TimeStr string `json:"timestr"`
	Elapsed Text   `json:"elapsed"`
	Summary string `json:"summary"`
	Exit    string `json:"exit"`
}

// HostStats counts hosts by reachability
type HostStats struct {
	Up    Text `json:"up"`
	Down  Text `json:"down"`
	Total Text `json:"total"`
}

// Host is one discovered machine as reported by the scan.
//
// A host that cannot be decoded does not fail the document: the decode error
// is kept on the host and surfaces when it is converted.
type Host struct {
	Status     *State             `json:"status"`
	Addresses  OneOrMany[Address] `json:"address"`
	Hostnames  Hostnames          `json:"hostnames"`
	Ports      *Ports             `json:"ports"`
	OS         *OS                `json:"os"`
	HostScript *HostScript        `json:"hostscript"`

	raw       json.RawMessage
	decodeErr error
}

// hostFields has Host's layout without its methods
type hostFields Host

// UnmarshalJSON implements json.Unmarshaler
func (h *Host) UnmarshalJSON(data []byte) error {
	raw := append(json.RawMessage(nil), bytes.TrimSpace(data)...)

	var f struct {
		hostFields
		Ports      json.RawMessage `json:"ports"`
		OS         json.RawMessage `json:"os"`
		HostScript json.RawMessage `json:"hostscript"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		*h = Host{raw: raw, decodeErr: fmt.Errorf("decode host: %w", err)}
		return nil
	}

	host := Host(f.hostFields)
	host.raw = raw

	var err error
	if host.Ports, err = decodeOptional[Ports](f.Ports); err != nil {
		host.decodeErr = fmt.Errorf("decode ports: %w", err)
	} else if host.OS, err = decodeOptional[OS](f.OS); err != nil {
		host.decodeErr = fmt.Errorf("decode os: %w", err)
	} else if host.HostScript, err = decodeOptional[HostScript](f.HostScript); err != nil {
		host.decodeErr = fmt.Errorf("decode hostscript: %w", err)
	}

	*h = host
	return nil
}

// Raw returns the host exactly as it appeared in the input
func (h Host) Raw() json.RawMessage {
	return h.raw
}

// WithRaw returns a copy of h carrying raw as its provenance payload
func (h Host) WithRaw(raw json.RawMessage) Host {
	h.raw = raw
	return h
}

// Err returns the error hit while decoding this host, if any
func (h Host) Err() error {
	return h.decodeErr
}

// State is a reachability state. The schema reports it either as a bare
// string or as an object with a reason.
type State struct {
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	ReasonTTL Text   `json:"reason_ttl,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler
func (s *State) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, nullLiteral) {
		*s = State{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var bare string
		if err := json.Unmarshal(trimmed, &bare); err != nil {
			return err
		}
		*s = State{State: bare}
		return nil
	}

	type stateFields State
	var f stateFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	*s = State(f)
	return nil
}

// Address is one network or hardware address
type Address struct {
	Addr     string `json:"addr"`
	AddrType string `json:"addrtype"`
	Vendor   string `json:"vendor,omitempty"`
}

// Address types reported by the scanner
const (
	AddrTypeIPv4 = "ipv4"
	AddrTypeIPv6 = "ipv6"
	AddrTypeMAC  = "mac"
)

// Hostname is one name/type pair
type Hostname struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// HostnameTypeUser marks a name supplied on the scan command line
const HostnameTypeUser = "user"

// Hostnames is the hostname block: either a plain string or an object
// wrapping one or many Hostname entries.
type Hostnames struct {
	Text    string
	Entries OneOrMany[Hostname]

	structured bool
}

// TextHostnames builds the plain-string form
func TextHostnames(text string) Hostnames {
	return Hostnames{Text: text}
}

// StructuredHostnames builds the object form
func StructuredHostnames(entries ...Hostname) Hostnames {
	return Hostnames{Entries: FromSlice(entries), structured: true}
}

// Structured reports whether the block used the object form
func (h Hostnames) Structured() bool {
	return h.structured
}

// UnmarshalJSON implements json.Unmarshaler
func (h *Hostnames) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, nullLiteral) {
		*h = Hostnames{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*h = TextHostnames(text)
		return nil
	}

	var f struct {
		Hostname OneOrMany[Hostname] `json:"hostname"`
	}
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	*h = Hostnames{Entries: f.Hostname, structured: true}
	return nil
}

// MarshalJSON implements json.Marshaler, writing back the form it was read in
func (h Hostnames) MarshalJSON() ([]byte, error) {
	if !h.structured {
		return json.Marshal(h.Text)
	}
	return json.Marshal(struct {
		Hostname OneOrMany[Hostname] `json:"hostname"`
	}{h.Entries})
}

// Ports is the port block of a host
type Ports struct {
	ExtraPorts OneOrMany[ExtraPorts] `json:"extraports"`
	Port       OneOrMany[Port]       `json:"port"`
}

// ExtraPorts summarizes ports not listed individually
type ExtraPorts struct {
	State string `json:"state"`
	Count Text   `json:"count"`
}

// Port is one transport port
type Port struct {
	Protocol string            `json:"protocol"`
	PortID   Text              `json:"portid"`
	State    State             `json:"state"`
	Service  *Service          `json:"service,omitempty"`
	Scripts  OneOrMany[Script] `json:"script"`
}

// Port states
const (
	StateOpen = "open"
	StateUp   = "up"
)

// Service is the service fingerprint of a port
type Service struct {
	Name       string            `json:"name"`
	Product    string            `json:"product,omitempty"`
	Version    string            `json:"version,omitempty"`
	ExtraInfo  string            `json:"extrainfo,omitempty"`
	OSType     string            `json:"ostype,omitempty"`
	DeviceType string            `json:"devicetype,omitempty"`
	Tunnel     string            `json:"tunnel,omitempty"`
	Method     string            `json:"method,omitempty"`
	Conf       Text              `json:"conf,omitempty"`
	CPE        OneOrMany[string] `json:"cpe"`
}

// Script is the result of one script probe
type Script struct {
	ID     string                `json:"id"`
	Output string                `json:"output"`
	Elems  OneOrMany[ScriptElem] `json:"elem"`
}

// ScriptElem is one structured element of a script result. Keyless elements
// arrive as bare strings, keyed ones as {"key": ..., "_": ...}.
type ScriptElem struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"_"`
}

// UnmarshalJSON implements json.Unmarshaler
func (e *ScriptElem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*e = ScriptElem{Value: value}
		return nil
	}
	if bytes.Equal(trimmed, nullLiteral) {
		*e = ScriptElem{}
		return nil
	}

	type elemFields ScriptElem
	var f elemFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	*e = ScriptElem(f)
	return nil
}

// HostScript wraps host-level script results
type HostScript struct {
	Scripts OneOrMany[Script] `json:"script"`
}

// OS is the OS fingerprint block
type OS struct {
	PortsUsed OneOrMany[PortUsed] `json:"portused"`
	Classes   OneOrMany[OSClass]  `json:"osclass"`
	Matches   OneOrMany[OSMatch]  `json:"osmatch"`
}

// PortUsed is a port probed during OS detection
type PortUsed struct {
	State  string `json:"state"`
	Proto  string `json:"proto"`
	PortID Text   `json:"portid"`
}

// OSClass is an OS classification
type OSClass struct {
	Type     string            `json:"type,omitempty"`
	Vendor   string            `json:"vendor,omitempty"`
	OSFamily string            `json:"osfamily,omitempty"`
	OSGen    string            `json:"osgen,omitempty"`
	Accuracy Text              `json:"accuracy,omitempty"`
	CPE      OneOrMany[string] `json:"cpe"`
}

// OSMatch is one candidate OS, best first
type OSMatch struct {
	Name     string             `json:"name"`
	Accuracy Text               `json:"accuracy,omitempty"`
	Line     Text               `json:"line,omitempty"`
	Classes  OneOrMany[OSClass] `json:"osclass"`
}
