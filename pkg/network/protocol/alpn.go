package protocol

import (
	"fmt"
	"strings"
)

const (
	protocolPrefix = "relief"
	currentVersion = "0"
	// maxNetworkLength bounds the network name
	maxNetworkLength = 32
)

// ProtocolID represents a complete ALPN protocol identifier.
// Format: relief/<version>/<network>
type ProtocolID struct {
	Version string
	// Network separates deployments, e.g. "mainnet" or "drill-2024"
	Network string
}

func NewProtocolID(network string) *ProtocolID {
	return &ProtocolID{
		Version: currentVersion,
		Network: network,
	}
}

func (p *ProtocolID) String() string {
	return strings.Join([]string{protocolPrefix, p.Version, p.Network}, "/")
}

// ParseProtocolID parses an ALPN protocol string into a ProtocolID.
func ParseProtocolID(protocol string) (*ProtocolID, error) {
	parts := strings.Split(protocol, "/")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid protocol format: %s", protocol)
	}
	if parts[0] != protocolPrefix {
		return nil, fmt.Errorf("invalid protocol prefix: %s", parts[0])
	}
	if parts[1] != currentVersion {
		return nil, fmt.Errorf("unsupported protocol version: %s", parts[1])
	}
	if err := validateNetwork(parts[2]); err != nil {
		return nil, err
	}
	return &ProtocolID{Version: parts[1], Network: parts[2]}, nil
}

func validateNetwork(network string) error {
	if network == "" || len(network) > maxNetworkLength {
		return fmt.Errorf("invalid network name length: %q", network)
	}
	for _, c := range network {
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && c != '-' {
			return fmt.Errorf("invalid network name character: %c", c)
		}
	}
	return nil
}

// ValidateALPNProtocol only reports whether protocol parses.
func ValidateALPNProtocol(protocol string) error {
	_, err := ParseProtocolID(protocol)
	return err
}
