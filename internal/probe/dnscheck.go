package probe

import (
	"errors"
	"net"
)

const (
	DNSNXDomain = "NXDOMAIN"
	DNSTimeout  = "SERVFAIL_or_TIMEOUT"
)

// classifyDNSError names the resolver failure behind err, or returns "" when
// err did not come from name resolution.
func classifyDNSError(err error) string {
	var de *net.DNSError
	if !errors.As(err, &de) {
		return ""
	}
	if de.IsNotFound {
		return DNSNXDomain
	}
	return DNSTimeout
}
