package flags

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChains(t *testing.T) {
	chains, err := ParseChains([]string{
		"11155111=0x2222222222222222222222222222222222222222=https://rpc.sepolia.example",
		"84532=0x3333333333333333333333333333333333333333=https://rpc.base.example",
	})
	require.NoError(t, err)
	require.Len(t, chains, 2)

	sepolia := chains[11155111]
	assert.Equal(t, "https://rpc.sepolia.example", sepolia.RPCURL)
	assert.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), sepolia.Registry)
}

func TestParseChainsRPCURLMayContainEquals(t *testing.T) {
	chains, err := ParseChains([]string{
		"1=0x2222222222222222222222222222222222222222=https://rpc.example/?key=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example/?key=abc", chains[1].RPCURL)
}

func TestParseChainsErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "missing parts", value: "11155111=0x2222222222222222222222222222222222222222"},
		{name: "bad chain id", value: "eth=0x2222222222222222222222222222222222222222=https://rpc"},
		{name: "bad address", value: "1=not-an-address=https://rpc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChains([]string{tt.value})
			assert.Error(t, err)
		})
	}
}
