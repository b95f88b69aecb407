package keysource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

func TestLoadHex(t *testing.T) {
	key, err := Load(context.Background(), "hex:"+testKeyHex)
	require.NoError(t, err)
	require.NotNil(t, key.PrivateKey)
	assert.NotEqual(t, key.Address.Hex(), "0x0000000000000000000000000000000000000000")

	// 0x prefix is tolerated.
	prefixed, err := Load(context.Background(), "hex:0x"+testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, key.Address, prefixed.Address)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signer.key")
	require.NoError(t, os.WriteFile(path, []byte(testKeyHex+"\n"), 0o600))

	key, err := Load(context.Background(), "file:"+path)
	require.NoError(t, err)

	direct, err := Load(context.Background(), "hex:"+testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, direct.Address, key.Address)
}

func TestLoadPassphraseDeterministic(t *testing.T) {
	a, err := Load(context.Background(), "passphrase:correct horse battery staple")
	require.NoError(t, err)
	b, err := Load(context.Background(), "passphrase:correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, a.Address, b.Address)

	other, err := Load(context.Background(), "passphrase:different phrase")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, other.Address)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		locator string
	}{
		{name: "no scheme", locator: "justakey"},
		{name: "unknown scheme", locator: "kms:some-key"},
		{name: "bad hex", locator: "hex:zzzz"},
		{name: "missing file", locator: "file:/nonexistent/signer.key"},
		{name: "empty passphrase", locator: "passphrase:"},
		{name: "vault missing path", locator: "vault:secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.locator)
			assert.Error(t, err)
		})
	}
}
