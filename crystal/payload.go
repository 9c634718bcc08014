// Package crystal encodes and decodes the payload stored on a kyber crystal tag.
//
// A crystal carries 12 bytes spread over three NTAG pages starting at page 4.
// The bytes are XOR-scrambled with a fixed key and, once unscrambled, read
//
//	[R, G, B, nameLen, name[0..nameLen)]
//
// with nameLen clamped to MaxNameLen. The writer also stores the owner a
// crystal is attuned to, in the clear, on the three pages that follow.
package crystal

import (
	"errors"
	"fmt"
)

const (
	// BlockSize is the number of payload bytes on a tag.
	BlockSize = 12
	// PageSize is the size of one hardware page.
	PageSize = 4
	// FirstPage is the first tag page holding payload bytes.
	FirstPage = 4
	// NumPages is the number of pages the payload spans.
	NumPages = BlockSize / PageSize
	// MaxNameLen is the longest preset name a tag can carry.
	MaxNameLen = 8
	// DefaultName is substituted for empty or unprintable names.
	DefaultName = "default"
)

// Key is the XOR key applied to every payload byte.
var Key = [BlockSize]byte{0x41, 0x72, 0x6B, 0x61, 0x69, 0x76, 0x6F, 0x73, 0x4B, 0x79, 0x62, 0x72}

var (
	// ErrReadFailure is returned when a page could not be read from the tag.
	ErrReadFailure = errors.New("crystal: page read failed")
	// ErrNameTooLong is returned by Encode for names over MaxNameLen bytes.
	ErrNameTooLong = errors.New("crystal: preset name too long")
)

// Payload is the decoded content of a crystal.
type Payload struct {
	R, G, B uint8
	Name    string
}

func (p Payload) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d) %q", p.R, p.G, p.B, p.Name)
}

// scramble applies the key. It is its own inverse.
func scramble(block [BlockSize]byte) [BlockSize]byte {
	var out [BlockSize]byte
	for i := range block {
		out[i] = block[i] ^ Key[i]
	}
	return out
}

// Decode unscrambles a raw tag block into a payload.
func Decode(raw [BlockSize]byte) Payload {
	return decodePlain(scramble(raw))
}

func decodePlain(d [BlockSize]byte) Payload {
	p := Payload{R: d[0], G: d[1], B: d[2], Name: DefaultName}

	n := int(d[3])
	if n > MaxNameLen {
		n = MaxNameLen
	}
	if n == 0 {
		return p
	}

	name := d[4 : 4+n]
	if !printable(name) {
		return p
	}
	p.Name = string(name)
	return p
}

// printable reports whether every byte is in the printable ASCII range 32..126.
func printable(b []byte) bool {
	for _, c := range b {
		if c < 32 || c > 126 {
			return false
		}
	}
	return true
}

// Encode builds the raw tag block for a payload.
func Encode(p Payload) ([BlockSize]byte, error) {
	if len(p.Name) > MaxNameLen {
		return [BlockSize]byte{}, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(p.Name))
	}

	var d [BlockSize]byte
	d[0], d[1], d[2] = p.R, p.G, p.B
	d[3] = byte(len(p.Name))
	copy(d[4:], p.Name)
	return scramble(d), nil
}

// Pages splits a raw block into tag pages, FirstPage first.
func Pages(raw [BlockSize]byte) [NumPages][PageSize]byte {
	var pages [NumPages][PageSize]byte
	for i := range pages {
		copy(pages[i][:], raw[i*PageSize:])
	}
	return pages
}
