package badger

import (
	"encoding/binary"

	"github.com/poiesic/marketnews/core"
)

// Key prefix for index documents
const docPrefix = "idxdoc:"

// makeDocKey generates a fixed-width key for a document. The ID is hashed so
// keys stay uniform regardless of how long the entity-scoped suffix gets.
// Format: prefix + 8-byte hash
func makeDocKey(id string) []byte {
	prefixBytes := []byte(docPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(id)))
	return buf
}
