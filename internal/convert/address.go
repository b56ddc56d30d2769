package convert

import (
	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// addressInfo aggregates a host's address records
type addressInfo struct {
	public  bool
	ips     []string
	macs    []string
	vendors []string
}

// resolveAddresses routes each record by type. It returns nil when the host
// reported no addresses, so that no address keys are emitted at all.
func resolveAddresses(records []scandoc.Address, isPublic func(string) bool) *addressInfo {
	if len(records) == 0 {
		return nil
	}

	info := &addressInfo{
		ips:     []string{},
		macs:    []string{},
		vendors: []string{},
	}
	for _, rec := range records {
		if rec.AddrType == scandoc.AddrTypeMAC {
			info.macs = append(info.macs, rec.Addr)
			if rec.Vendor != "" {
				info.vendors = append(info.vendors, rec.Vendor)
			}
			continue
		}

		if isPublic(rec.Addr) {
			info.public = true
		}
		info.ips = append(info.ips, rec.Addr)
	}
	return info
}

// ipAddress is the collapsed IP collection
func (a *addressInfo) ipAddress() any {
	if a == nil {
		return nil
	}
	return collapse(a.ips)
}

// macAddress is the collapsed hardware address collection
func (a *addressInfo) macAddress() any {
	if a == nil {
		return nil
	}
	return collapse(a.macs)
}

func (a *addressInfo) apply(props domain.Properties) {
	if a == nil {
		return
	}
	props.Set(domain.PropPublic, a.public)
	props.Set(domain.PropIPAddress, a.ipAddress())
	props.Set(domain.PropMACAddress, a.macAddress())
	props.Set(domain.PropVendor, collapse(a.vendors))
}

// collapse returns the only element of a one-element collection and the
// collection itself otherwise, including when it is empty.
func collapse(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
