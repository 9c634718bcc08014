package crystal

import "fmt"

// PageReader reads one 4-byte page from a tag.
type PageReader interface {
	ReadPage(page uint8) ([PageSize]byte, error)
}

// ReadPayload reads the payload pages from a tag and decodes them.
//
// If a page read fails ReadPayload returns ErrReadFailure together with a
// payload whose name is DefaultName. Color bytes unscrambled from pages read
// before the failure replace those of prev; the rest of prev's color is kept.
func ReadPayload(r PageReader, prev Payload) (Payload, error) {
	var plain [BlockSize]byte
	got := 0

	for i := 0; i < NumPages; i++ {
		page := uint8(FirstPage + i)
		buf, err := r.ReadPage(page)
		if err != nil {
			return partial(prev, plain, got), fmt.Errorf("%w: page %d: %v", ErrReadFailure, page, err)
		}
		for j := 0; j < PageSize; j++ {
			k := i*PageSize + j
			plain[k] = buf[j] ^ Key[k]
		}
		got += PageSize
	}

	return decodePlain(plain), nil
}

// partial keeps the color bytes among the first n unscrambled bytes.
func partial(prev Payload, plain [BlockSize]byte, n int) Payload {
	p := prev
	p.Name = DefaultName
	if n > 0 {
		p.R, p.G, p.B = plain[0], plain[1], plain[2]
	}
	return p
}
