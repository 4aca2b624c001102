package netutil

import (
	"errors"
	"testing"
)

func TestValidatePortPair(t *testing.T) {
	tests := []struct {
		name        string
		service     string
		api         string
		wantService int
		wantAPI     int
		wantErr     error
	}{
		{"default preset", "8443", "8880", 8443, 8880, nil},
		{"whitespace tolerated", " 443 ", " 8080 ", 443, 8080, nil},
		{"boundaries", "1", "65535", 1, 65535, nil},
		{"duplicate", "8443", "8443", 0, 0, ErrPortsEqual},
		{"duplicate ssh", "22", "22", 0, 0, ErrPortsEqual},
		{"zero", "0", "8880", 0, 0, ErrPortRange},
		{"above range", "65536", "8880", 0, 0, ErrPortRange},
		{"negative", "-1", "8880", 0, 0, ErrPortRange},
		{"not a number", "https", "8880", 0, 0, ErrPortFormat},
		{"second not a number", "8443", "api", 0, 0, ErrPortFormat},
		{"empty", "", "8880", 0, 0, ErrPortFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp, ap, err := ValidatePortPair(tt.service, tt.api)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidatePortPair(%q, %q) error = %v, want %v", tt.service, tt.api, err, tt.wantErr)
			}
			if sp != tt.wantService || ap != tt.wantAPI {
				t.Errorf("ValidatePortPair(%q, %q) = (%d, %d), want (%d, %d)",
					tt.service, tt.api, sp, ap, tt.wantService, tt.wantAPI)
			}
		})
	}
}

func TestParsePortSpec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr error
	}{
		{"8443:8880", nil},
		{"8443 : 8880", nil},
		{"8443", ErrPortFormat},
		{"8443:8880:9000", ErrPortFormat},
		{"a:b", ErrPortFormat},
		{"22:22", ErrPortsEqual},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, _, err := ParsePortSpec(tt.spec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParsePortSpec(%q) error = %v, want %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}
