package netutil

import (
	"errors"
	"testing"
)

func TestValidateIP(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"public ipv4", "203.0.113.5", nil},
		{"public ipv6", "2001:db8::1", nil},
		{"loopback ipv4", "127.0.0.1", ErrLoopbackIP},
		{"loopback ipv6", "::1", ErrLoopbackIP},
		{"multicast ipv4", "224.0.0.1", ErrUnroutableIP},
		{"multicast ipv6", "ff02::1", ErrUnroutableIP},
		{"link local ipv4", "169.254.10.1", ErrUnroutableIP},
		{"link local ipv6", "fe80::1", ErrUnroutableIP},
		{"unspecified", "0.0.0.0", ErrUnroutableIP},
		{"empty", "", ErrInvalidIPFormat},
		{"hostname", "example.com", ErrInvalidIPFormat},
		{"trailing garbage", "10.0.0.1x", ErrInvalidIPFormat},
		{"octet overflow", "256.1.1.1", ErrInvalidIPFormat},
		{"missing octet", "10.0.0", ErrInvalidIPFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ValidateIP(tt.raw)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateIP(%q) returned unexpected error: %v", tt.raw, err)
				}
				if addr.String() != tt.raw {
					t.Errorf("ValidateIP(%q) parsed to %s", tt.raw, addr)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateIP(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
