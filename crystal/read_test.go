package crystal

import (
	"errors"
	"testing"
)

type fakeTag struct {
	raw    [BlockSize]byte
	failAt uint8
	reads  []uint8
}

func (f *fakeTag) ReadPage(page uint8) ([PageSize]byte, error) {
	f.reads = append(f.reads, page)
	if f.failAt != 0 && page == f.failAt {
		return [PageSize]byte{}, errors.New("i2c nack")
	}
	var b [PageSize]byte
	i := int(page-FirstPage) * PageSize
	copy(b[:], f.raw[i:i+PageSize])
	return b, nil
}

func TestReadPayload(t *testing.T) {
	raw, err := Encode(Payload{R: 9, G: 8, B: 7, Name: "Subdued"})
	if err != nil {
		t.Fatal(err)
	}
	tag := &fakeTag{raw: raw}

	got, err := ReadPayload(tag, Payload{})
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if want := (Payload{R: 9, G: 8, B: 7, Name: "Subdued"}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(tag.reads) != 3 || tag.reads[0] != 4 || tag.reads[2] != 6 {
		t.Errorf("pages read = %v, want [4 5 6]", tag.reads)
	}
}

func TestReadPayloadFailure(t *testing.T) {
	raw, _ := Encode(Payload{R: 9, G: 8, B: 7, Name: "Subdued"})
	prev := Payload{R: 1, G: 1, B: 1, Name: "old"}

	tests := []struct {
		name   string
		failAt uint8
		want   Payload
	}{
		{"first page", 4, Payload{R: 1, G: 1, B: 1, Name: DefaultName}},
		{"second page keeps decoded color", 5, Payload{R: 9, G: 8, B: 7, Name: DefaultName}},
		{"last page", 6, Payload{R: 9, G: 8, B: 7, Name: DefaultName}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := &fakeTag{raw: raw, failAt: tt.failAt}
			got, err := ReadPayload(tag, prev)
			if !errors.Is(err, ErrReadFailure) {
				t.Fatalf("err = %v, want ErrReadFailure", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if last := tag.reads[len(tag.reads)-1]; last != tt.failAt {
				t.Errorf("kept reading after failure: %v", tag.reads)
			}
		})
	}
}
