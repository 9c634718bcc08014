package reader

import (
	"fmt"
	"strings"
)

// MaxTagIDLen is the longest tag identifier a reader reports (ISO14443A triple size UID).
const MaxTagIDLen = 7

// TagID is a tag identifier as reported by a reader.
type TagID struct {
	n   uint8
	buf [MaxTagIDLen]byte
}

// NewTagID copies b into a TagID. Bytes past MaxTagIDLen are dropped.
func NewTagID(b []byte) TagID {
	var id TagID
	id.n = uint8(copy(id.buf[:], b))
	return id
}

// Len returns the identifier length in bytes.
func (id TagID) Len() int { return int(id.n) }

// Equal reports whether both identifiers have the same length and content.
func (id TagID) Equal(o TagID) bool {
	if id.n != o.n {
		return false
	}
	for i := 0; i < int(id.n); i++ {
		if id.buf[i] != o.buf[i] {
			return false
		}
	}
	return true
}

func (id TagID) String() string {
	parts := make([]string, id.n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02X", id.buf[i])
	}
	return strings.Join(parts, ":")
}
