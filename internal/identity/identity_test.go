package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuttifrutti/internal/prefs"
)

func TestDeviceUID_StableAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	p := prefs.Open(path)
	uid := DeviceUID(p)
	require.Len(t, uid, 32)
	assert.Equal(t, uid, DeviceUID(p), "repeated calls must not mint")
	require.NoError(t, p.Close())

	reopened := prefs.Open(path)
	defer reopened.Close()
	assert.Equal(t, uid, DeviceUID(reopened), "uid must survive restarts")
}

func TestDeviceUID_DistinctPerDevice(t *testing.T) {
	a := DeviceUID(prefs.Open(""))
	b := DeviceUID(prefs.Open(""))
	assert.NotEqual(t, a, b)
}
