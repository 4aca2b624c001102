// Package netutil provides input validation and reachability checks for
// node addresses and ports. Validation functions are pure; the probe in
// probe.go is the only function that touches the network.
package netutil

import (
	"errors"
	"fmt"
	"net/netip"
)

// IP validation errors. Each maps to a distinct user-facing rule so the
// conversation layer can explain exactly what was wrong.
var (
	ErrInvalidIPFormat = errors.New("not a valid IPv4 or IPv6 address")
	ErrLoopbackIP      = errors.New("loopback address cannot be used for a node")
	ErrUnroutableIP    = errors.New("address is not publicly routable")
)

// ValidateIP parses raw as an IP literal and rejects addresses a node
// could never be reached at: loopback, link-local, multicast and the
// unspecified address. It performs no network I/O.
func ValidateIP(raw string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidIPFormat, raw)
	}

	switch {
	case addr.IsLoopback():
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrLoopbackIP, addr)
	case addr.IsMulticast(), addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast(), addr.IsUnspecified():
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnroutableIP, addr)
	}

	return addr, nil
}
