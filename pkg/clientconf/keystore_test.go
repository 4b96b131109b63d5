package clientconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.yaml")

	ks, err := NewKeystore(path)
	require.NoError(t, err)
	assert.Empty(t, ks.Addresses())

	first, err := ks.Generate()
	require.NoError(t, err)
	second, err := ks.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	reloaded, err := NewKeystore(path)
	require.NoError(t, err)
	assert.Equal(t, ks.Addresses(), reloaded.Addresses())

	key, ok := reloaded.Key(first)
	require.True(t, ok)
	assert.Equal(t, first, AddressFromPublicKey(key.PubKey()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAddressHexRoundTrip(t *testing.T) {
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keystore.yaml"))
	require.NoError(t, err)
	addr, err := ks.Generate()
	require.NoError(t, err)

	parsed, err := AddressFromHex(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = AddressFromHex("0x1234")
	assert.Error(t, err)
}
