package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"nmapgraph/internal/scandoc"
)

// NmapAdapter runs nmap scans and returns their results as scan documents
type NmapAdapter struct {
	targets           []string
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	osDetection       bool
	skipHostDiscovery bool
	logger            zerolog.Logger
}

// NewNmapAdapter creates a new nmap-based scanning adapter
// targets: list of CIDR ranges, IPs or hostnames to scan
// opts: optional configuration options
func NewNmapAdapter(targets []string, opts ...NmapOption) *NmapAdapter {
	adapter := &NmapAdapter{
		targets:          targets,
		timeout:          10 * time.Minute,
		portRange:        "22,25,53,80,443,445,548,631,3389,5432,5900,6443,8080,8443,9090,9100",
		serviceDetection: true,
		osDetection:      false, // Requires root
		logger:           zerolog.Nop(),
	}

	// Apply options
	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Name returns the adapter identifier
func (n *NmapAdapter) Name() string {
	return "nmap"
}

// Check verifies that the nmap binary can be run
func (n *NmapAdapter) Check(ctx context.Context) error {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return fmt.Errorf("nmap binary not found in PATH: %w", err)
	}

	if _, _, err := scanner.Run(); err != nil {
		return fmt.Errorf("nmap binary not usable: %w", err)
	}
	return nil
}

// Scan runs one nmap scan over all targets
func (n *NmapAdapter) Scan(ctx context.Context) (*scandoc.Document, error) {
	if len(n.targets) == 0 {
		return nil, fmt.Errorf("no scan targets configured")
	}
	targets, err := expandTargets(n.targets)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx, n.scanOptions(targets)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	n.logger.Info().
		Strs("targets", targets).
		Str("ports", n.portRange).
		Bool("service_detection", n.serviceDetection).
		Bool("os_detection", n.osDetection).
		Msg("Starting nmap scan")

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	if warnings != nil && len(*warnings) > 0 {
		n.logger.Warn().Strs("warnings", *warnings).Msg("Nmap reported warnings")
	}

	doc := FromRun(result)
	n.logger.Info().Int("hosts", len(doc.Hosts())).Msg("Nmap scan complete")
	return doc, nil
}

// scanOptions builds the nmap options for targets
func (n *NmapAdapter) scanOptions(targets []string) []nmap.Option {
	opts := []nmap.Option{
		nmap.WithTargets(targets...),
		nmap.WithPorts(n.portRange),
	}

	// Add service detection if enabled
	if n.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}

	// Add OS detection if enabled (requires root)
	if n.osDetection {
		opts = append(opts, nmap.WithOSDetection())
	}

	// Skip host discovery for specific targets
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	return opts
}

// FromRun converts a typed nmap result into a scan document. Collections
// of one element become single values, as in nmap's own XML.
func FromRun(result *nmap.Run) *scandoc.Document {
	run := &scandoc.Run{}
	if result == nil {
		return &scandoc.Document{Run: run}
	}

	run.Args = result.Args
	run.RunStats = &scandoc.RunStats{
		Hosts: scandoc.HostStats{
			Up:    scandoc.Text(strconv.Itoa(result.Stats.Hosts.Up)),
			Down:  scandoc.Text(strconv.Itoa(result.Stats.Hosts.Down)),
			Total: scandoc.Text(strconv.Itoa(result.Stats.Hosts.Total)),
		},
	}

	hosts := make([]scandoc.Host, 0, len(result.Hosts))
	for _, h := range result.Hosts {
		hosts = append(hosts, fromHost(h))
	}
	run.Hosts = scandoc.FromSlice(hosts)

	return &scandoc.Document{Run: run}
}

// fromHost converts one host and records its object form as raw data
func fromHost(h nmap.Host) scandoc.Host {
	host := scandoc.Host{
		Status: &scandoc.State{State: h.Status.State},
	}

	addrs := make([]scandoc.Address, 0, len(h.Addresses))
	for _, a := range h.Addresses {
		addrs = append(addrs, scandoc.Address{Addr: a.Addr, AddrType: a.AddrType, Vendor: a.Vendor})
	}
	host.Addresses = scandoc.FromSlice(addrs)

	if len(h.Hostnames) > 0 {
		names := make([]scandoc.Hostname, 0, len(h.Hostnames))
		for _, hn := range h.Hostnames {
			names = append(names, scandoc.Hostname{Name: hn.Name, Type: hn.Type})
		}
		host.Hostnames = scandoc.StructuredHostnames(names...)
	}

	if len(h.Ports) > 0 {
		ports := make([]scandoc.Port, 0, len(h.Ports))
		for _, p := range h.Ports {
			ports = append(ports, fromPort(p))
		}
		host.Ports = &scandoc.Ports{Port: scandoc.FromSlice(ports)}
	}

	if len(h.OS.Matches) > 0 || len(h.OS.PortsUsed) > 0 {
		host.OS = fromOS(h.OS)
	}

	if len(h.HostScripts) > 0 {
		host.HostScript = &scandoc.HostScript{Scripts: fromScripts(h.HostScripts)}
	}

	if raw, err := json.Marshal(host); err == nil {
		host = host.WithRaw(raw)
	}
	return host
}

func fromPort(p nmap.Port) scandoc.Port {
	port := scandoc.Port{
		Protocol: p.Protocol,
		PortID:   scandoc.Text(strconv.Itoa(int(p.ID))),
		State:    scandoc.State{State: p.State.State},
	}

	svc := p.Service
	if svc.Name != "" || svc.Product != "" || svc.DeviceType != "" {
		port.Service = &scandoc.Service{
			Name:       svc.Name,
			Product:    svc.Product,
			Version:    svc.Version,
			ExtraInfo:  svc.ExtraInfo,
			DeviceType: svc.DeviceType,
		}
	}

	port.Scripts = fromScripts(p.Scripts)
	return port
}

// fromScripts keeps script output and its top-level elements
func fromScripts(in []nmap.Script) scandoc.OneOrMany[scandoc.Script] {
	if len(in) == 0 {
		return scandoc.OneOrMany[scandoc.Script]{}
	}
	scripts := make([]scandoc.Script, 0, len(in))
	for _, s := range in {
		elems := make([]scandoc.ScriptElem, 0, len(s.Elements))
		for _, e := range s.Elements {
			elems = append(elems, scandoc.ScriptElem{Key: e.Key, Value: e.Value})
		}
		scripts = append(scripts, scandoc.Script{ID: s.ID, Output: s.Output, Elems: scandoc.FromSlice(elems)})
	}
	return scandoc.FromSlice(scripts)
}

// fromOS keeps the probing ports and the OS matches with their classes
func fromOS(o nmap.OS) *scandoc.OS {
	used := make([]scandoc.PortUsed, 0, len(o.PortsUsed))
	for _, pu := range o.PortsUsed {
		used = append(used, scandoc.PortUsed{
			State:  pu.State,
			Proto:  pu.Proto,
			PortID: scandoc.Text(strconv.Itoa(pu.ID)),
		})
	}

	matches := make([]scandoc.OSMatch, 0, len(o.Matches))
	for _, m := range o.Matches {
		classes := make([]scandoc.OSClass, 0, len(m.Classes))
		for _, c := range m.Classes {
			classes = append(classes, scandoc.OSClass{Type: c.Type, Vendor: c.Vendor, OSFamily: c.Family})
		}
		matches = append(matches, scandoc.OSMatch{
			Name:     m.Name,
			Accuracy: scandoc.Text(fmt.Sprint(m.Accuracy)),
			Classes:  scandoc.FromSlice(classes),
		})
	}
	return &scandoc.OS{
		PortsUsed: scandoc.FromSlice(used),
		Matches:   scandoc.FromSlice(matches),
	}
}

// expandTargets validates CIDR notation targets
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		// Check if it's CIDR notation
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			// For nmap, we keep CIDR notation - it handles expansion
			expanded = append(expanded, ipNet.String())
		} else {
			// Single IP or hostname
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// parsePorts validates a port range string in nmap format
func parsePorts(portRange string) (string, error) {
	// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
	parts := strings.Split(portRange, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			// Range format
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return "", fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", rangeParts[1])
			}
		} else {
			// Single port
			port, err := strconv.Atoi(part)
			if err != nil || port < 1 || port > 65535 {
				return "", fmt.Errorf("invalid port number: %s", part)
			}
		}
	}
	return portRange, nil
}
