package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier, "<prefix>-<32 hex chars>" when a
// prefix is given and the bare hex string otherwise.
func NewID(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
