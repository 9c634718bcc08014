package crystal

import (
	"errors"
	"fmt"
)

const (
	// OwnerPage is the first page of the owner field.
	OwnerPage = FirstPage + NumPages
	// OwnerLen is the owner field size. The owner is stored unscrambled
	// and zero padded.
	OwnerLen = 12
	// LastPage is the last page the writer touches.
	LastPage = OwnerPage + OwnerLen/PageSize - 1
)

// ErrOwnerTooLong is returned for owners over OwnerLen bytes.
var ErrOwnerTooLong = errors.New("crystal: owner too long")

// Record is everything written to a crystal: the scrambled payload and
// the owner it is attuned to.
type Record struct {
	Payload
	Owner string
}

func (r Record) String() string {
	if r.Owner == "" {
		return r.Payload.String()
	}
	return fmt.Sprintf("%v owner %q", r.Payload, r.Owner)
}

// Page is one tag page and its content.
type Page struct {
	N    uint8
	Data [PageSize]byte
}

// Pages encodes r into the pages FirstPage through LastPage.
func (r Record) Pages() ([]Page, error) {
	raw, err := Encode(r.Payload)
	if err != nil {
		return nil, err
	}
	if len(r.Owner) > OwnerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrOwnerTooLong, len(r.Owner))
	}
	var owner [OwnerLen]byte
	copy(owner[:], r.Owner)

	pages := make([]Page, 0, LastPage-FirstPage+1)
	pages = appendPages(pages, FirstPage, raw[:])
	pages = appendPages(pages, OwnerPage, owner[:])
	return pages, nil
}

func appendPages(pages []Page, first uint8, b []byte) []Page {
	for i := 0; i < len(b); i += PageSize {
		p := Page{N: first + uint8(i/PageSize)}
		copy(p.Data[:], b[i:])
		pages = append(pages, p)
	}
	return pages
}

// DecodeOwner returns the owner bytes up to the first zero.
func DecodeOwner(b [OwnerLen]byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b[:])
}

// ReadRecord reads the payload and owner pages from a tag.
// Unlike ReadPayload any failed page is an error.
func ReadRecord(r PageReader) (Record, error) {
	p, err := ReadPayload(r, Payload{})
	if err != nil {
		return Record{}, err
	}

	var owner [OwnerLen]byte
	for i := 0; i < OwnerLen; i += PageSize {
		page := uint8(OwnerPage + i/PageSize)
		buf, err := r.ReadPage(page)
		if err != nil {
			return Record{}, fmt.Errorf("%w: page %d: %v", ErrReadFailure, page, err)
		}
		copy(owner[i:], buf[:])
	}
	return Record{Payload: p, Owner: DecodeOwner(owner)}, nil
}
