package convert

import (
	"github.com/rs/zerolog"

	"nmapgraph/internal/netutil"
)

// Options configures a conversion. It is passed explicitly to every
// conversion call; the converter keeps no state between calls.
type Options struct {
	// DefaultGateway, when set, labels the host with that IP address as a
	// Gateway and records the gateway on every other host.
	DefaultGateway string

	// IsPublicIP decides whether an address is publicly routable
	IsPublicIP func(addr string) bool

	// Logger receives per-host failure reports
	Logger zerolog.Logger
}

// DefaultOptions returns options with the standard routability check and a
// no-op logger.
func DefaultOptions() Options {
	return Options{
		IsPublicIP: netutil.IsPublicIP,
		Logger:     zerolog.Nop(),
	}
}

func (o Options) isPublic(addr string) bool {
	if o.IsPublicIP == nil {
		return netutil.IsPublicIP(addr)
	}
	return o.IsPublicIP(addr)
}
