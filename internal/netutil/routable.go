// Package netutil classifies addresses for inventory metadata.
package netutil

import (
	"net/netip"
	"strings"
)

// nonPublicPrefixes are special-purpose ranges that netip does not flag on
// its own (shared address space, benchmarking, documentation, 6to4 relay).
var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.88.99.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("64:ff9b:1::/48"),
}

// IsPublicIP reports whether addr is a publicly routable unicast address.
// Unparseable input is never public.
func IsPublicIP(addr string) bool {
	// drop an IPv6 zone, e.g. fe80::1%eth0
	if i := strings.IndexByte(addr, '%'); i >= 0 {
		addr = addr[:i]
	}

	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	ip = ip.Unmap()

	if !ip.IsGlobalUnicast() || ip.IsPrivate() {
		return false
	}
	for _, prefix := range nonPublicPrefixes {
		if prefix.Contains(ip) {
			return false
		}
	}
	return true
}
