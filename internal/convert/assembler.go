package convert

import (
	"errors"
	"fmt"
	"strings"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

var (
	// ErrMissingStatus is returned for a host without a status block
	ErrMissingStatus = errors.New("host has no status")
	// ErrHostPanic wraps a panic recovered while assembling one host
	ErrHostPanic = errors.New("panic while assembling host")
)

// HostStatus is the terminal state of one host's conversion
type HostStatus string

const (
	HostAssembled HostStatus = "assembled"
	HostSkipped   HostStatus = "skipped"
	HostFailed    HostStatus = "failed"
)

// HostResult is the outcome of converting one host node
type HostResult struct {
	Index  int
	Status HostStatus
	Entity *domain.HostEntity
	Err    error
}

// HostFailure describes a host that could not be assembled
type HostFailure struct {
	Index   int
	Address string
	Err     error
}

func (f HostFailure) Error() string {
	if f.Address != "" {
		return fmt.Sprintf("host %d (%s): %v", f.Index, f.Address, f.Err)
	}
	return fmt.Sprintf("host %d: %v", f.Index, f.Err)
}

func (f HostFailure) Unwrap() error {
	return f.Err
}

// Report is the result of converting a whole document
type Report struct {
	Summary  Summary
	Entities []domain.HostEntity
	Skipped  int
	Failures []HostFailure
}

// ToHostEntities converts every host of doc. Hosts that are not up are
// skipped and hosts that fail are logged and reported; neither stops the
// remaining hosts. Entities keep input order.
func ToHostEntities(doc *scandoc.Document, opts Options) *Report {
	report := &Report{Entities: []domain.HostEntity{}}
	if doc == nil {
		return report
	}
	report.Summary = summarize(doc.Run)

	for i, host := range doc.Hosts() {
		result := ConvertHost(i, host, opts)
		switch result.Status {
		case HostAssembled:
			report.Entities = append(report.Entities, *result.Entity)
		case HostSkipped:
			report.Skipped++
		case HostFailed:
			failure := HostFailure{Index: i, Address: firstAddress(host), Err: result.Err}
			opts.Logger.Warn().
				Err(result.Err).
				Int("host_index", i).
				Str("address", failure.Address).
				Msg("Error processing host, skipping")
			report.Failures = append(report.Failures, failure)
		}
	}
	return report
}

// ConvertHost converts one host node inside its own fault boundary
func ConvertHost(index int, host scandoc.Host, opts Options) (result HostResult) {
	defer func() {
		if r := recover(); r != nil {
			result = HostResult{
				Index:  index,
				Status: HostFailed,
				Err:    fmt.Errorf("%w: %v", ErrHostPanic, r),
			}
		}
	}()

	fail := func(err error) HostResult {
		return HostResult{Index: index, Status: HostFailed, Err: err}
	}

	if err := host.Err(); err != nil {
		return fail(err)
	}
	if host.Status == nil {
		return fail(ErrMissingStatus)
	}
	if host.Status.State != scandoc.StateUp {
		return HostResult{Index: index, Status: HostSkipped}
	}

	entity, err := assembleHost(host, opts)
	if err != nil {
		return fail(err)
	}
	return HostResult{Index: index, Status: HostAssembled, Entity: entity}
}

// assembleHost builds the entity of a host that is up
func assembleHost(host scandoc.Host, opts Options) (*domain.HostEntity, error) {
	status := host.Status.State
	hint := deviceTypeHint(host.Ports)
	hostname, aliases := resolveHostname(host.Hostnames)

	addrs := resolveAddresses(host.Addresses.Items(), opts.isPublic)

	osDetails, err := extractOS(host.OS)
	if err != nil {
		return nil, fmt.Errorf("os block: %w", err)
	}

	var details scriptDetails
	ports, err := extractPorts(host.Ports, &details)
	if err != nil {
		return nil, fmt.Errorf("port block: %w", err)
	}
	if host.HostScript != nil {
		for _, script := range host.HostScript.Scripts.Items() {
			details.collect(script)
		}
	}

	props := make(domain.Properties)
	addrs.apply(props)
	osDetails.apply(props)
	ports.apply(props)
	details.apply(props)

	setIfPresent(props, domain.PropHostname, hostname)
	if aliases != nil {
		props.Set(domain.PropAliases, aliases)
	}
	props.Set(domain.PropStatus, status)
	setIfPresent(props, domain.PropDeviceType, hint)
	props.Set(domain.PropActive, status == scandoc.StateUp)

	setIfPresent(props, domain.PropDisplayName, firstDefined(
		hostname,
		details.afpServerName,
		details.serverName,
		details.netbiosName,
		addrs.ipAddress(),
		addrs.macAddress(),
	))

	entity := &domain.HostEntity{
		Key:        entityKey(hostname, addrs),
		Type:       domain.EntityTypeNmapHost,
		Class:      entityClasses(hint),
		Properties: props,
		RawData:    host.Raw(),
	}
	applyDefaultGateway(entity, opts.DefaultGateway)

	return entity, nil
}

// entityKey renders nmap:<hostname>:<mac>:<ip>. A host without a hostname
// or without any address records gets KeyAbsent in those positions.
func entityKey(hostname string, addrs *addressInfo) string {
	var name any
	if hostname != "" {
		name = hostname
	}
	return fmt.Sprintf("nmap:%s:%s:%s",
		domain.KeyPart(name), domain.KeyPart(addrs.macAddress()), domain.KeyPart(addrs.ipAddress()))
}

// resolveHostname picks the host's name. A non-empty plain string wins;
// otherwise the entry typed "user" is preferred over the first entry.
// Aliases are only reported for the structured form.
func resolveHostname(block scandoc.Hostnames) (hostname string, aliases []string) {
	if !block.Structured() {
		if strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
		return "", nil
	}

	entries := block.Entries.Items()
	aliases = make([]string, 0, len(entries))
	for _, entry := range entries {
		aliases = append(aliases, entry.Name)
	}

	for _, entry := range entries {
		if entry.Type == scandoc.HostnameTypeUser && entry.Name != "" {
			return entry.Name, aliases
		}
	}
	if len(entries) > 0 {
		hostname = entries[0].Name
	}
	return hostname, aliases
}

// firstDefined returns the first non-empty candidate. For a sequence the
// first element stands in for it.
func firstDefined(candidates ...any) string {
	for _, c := range candidates {
		switch v := c.(type) {
		case string:
			if v != "" {
				return v
			}
		case []string:
			if len(v) > 0 && v[0] != "" {
				return v[0]
			}
		}
	}
	return ""
}

// applyDefaultGateway labels the gateway host itself and records the
// gateway on every other host
func applyDefaultGateway(entity *domain.HostEntity, gateway string) {
	if gateway == "" {
		return
	}
	if entity.Properties.GetString(domain.PropIPAddress) == gateway {
		entity.Class = []string{domain.ClassHost, domain.ClassGateway}
		return
	}
	entity.Properties.Set(domain.PropDefaultGateway, gateway)
}

// firstAddress is used to identify a failed host in logs
func firstAddress(host scandoc.Host) string {
	for _, addr := range host.Addresses.Items() {
		if addr.Addr != "" {
			return addr.Addr
		}
	}
	return ""
}
