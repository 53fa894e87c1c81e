package config

import (
	"fmt"
	"net"
)

// BasicService is used as a simple base for the client's auxiliary services
// like Prometheus monitoring.
type BasicService struct {
	Enabled bool `yaml:"Enabled"`
	// Addresses holds the list of bind addresses in the form of "address:port".
	Addresses []string `yaml:"Addresses"`
}

// GetAddresses returns the set of unique (in terms of raw strings) pairs host:port
// for the given basic service.
func (s BasicService) GetAddresses() []string {
	addrs := make([]string, 0, len(s.Addresses))
	seen := make(map[string]bool, len(s.Addresses))
	for _, a := range s.Addresses {
		if seen[a] {
			continue
		}
		seen[a] = true
		addrs = append(addrs, a)
	}
	return addrs
}

func (s BasicService) validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Addresses) == 0 {
		return fmt.Errorf("%w: service is enabled, but no addresses are given", ErrInvalidConfig)
	}
	for _, a := range s.Addresses {
		if _, _, err := net.SplitHostPort(a); err != nil {
			return fmt.Errorf("%w: bad address %q: %w", ErrInvalidConfig, a, err)
		}
	}
	return nil
}
