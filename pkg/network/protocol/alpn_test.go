package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolIDString(t *testing.T) {
	assert.Equal(t, "relief/"+currentVersion+"/mainnet", NewProtocolID("mainnet").String())
}

func TestParseProtocolID_Valid(t *testing.T) {
	for _, network := range []string{"mainnet", "drill-2024", "a"} {
		t.Run(network, func(t *testing.T) {
			id, err := ParseProtocolID("relief/" + currentVersion + "/" + network)
			require.NoError(t, err)
			assert.Equal(t, currentVersion, id.Version)
			assert.Equal(t, network, id.Network)
		})
	}
}

func TestParseProtocolID_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Wrong prefix", "jamnp-s/0/mainnet"},
		{"Unsupported version", "relief/1/mainnet"},
		{"Missing network", "relief/0/"},
		{"Extra part", "relief/0/mainnet/builder"},
		{"Upper case network", "relief/0/Mainnet"},
		{"Network too long", "relief/0/" + strings.Repeat("a", maxNetworkLength+1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProtocolID(tc.input)
			assert.Error(t, err)
			assert.Error(t, ValidateALPNProtocol(tc.input))
		})
	}
}
