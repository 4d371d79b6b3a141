// Package identity yields the anonymous, stable per-device uid every peer
// writes under. There is no account system; the uid is minted once and kept
// in the local preference store.
package identity

import (
	"crypto/rand"
	"encoding/hex"

	"tuttifrutti/internal/prefs"
)

// DeviceUID returns the persisted device uid, minting one on first use.
func DeviceUID(p *prefs.Store) string {
	if uid, ok := p.Get(prefs.KeyDeviceUID); ok && uid != "" {
		return uid
	}

	b := make([]byte, 16)
	rand.Read(b)
	uid := hex.EncodeToString(b)

	p.Set(prefs.KeyDeviceUID, uid)
	return uid
}
