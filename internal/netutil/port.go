package netutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Port validation errors.
var (
	ErrPortFormat = errors.New("port is not an integer")
	ErrPortRange  = errors.New("port outside 1-65535")
	ErrPortsEqual = errors.New("service and API ports must differ")
)

// ValidatePortPair parses two TCP port strings and requires them to be
// distinct. Returns the parsed (service, api) ports.
func ValidatePortPair(service, api string) (int, int, error) {
	sp, err := parsePort(service)
	if err != nil {
		return 0, 0, err
	}
	ap, err := parsePort(api)
	if err != nil {
		return 0, 0, err
	}
	if sp == ap {
		return 0, 0, fmt.Errorf("%w: %d", ErrPortsEqual, sp)
	}
	return sp, ap, nil
}

// ParsePortSpec splits free-form "service:api" input and validates the pair.
func ParsePortSpec(spec string) (int, int, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected service_port:api_port, got %q", ErrPortFormat, spec)
	}
	return ValidatePortPair(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
}

func parsePort(raw string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPortFormat, raw)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("%w: %d", ErrPortRange, p)
	}
	return p, nil
}
