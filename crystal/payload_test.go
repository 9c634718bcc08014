package crystal

import (
	"errors"
	"testing"
)

func TestDecodeBondedExample(t *testing.T) {
	plain := [BlockSize]byte{200, 10, 10, 5, 'B', 'o', 'n', 'd', 'e', 'd', 0, 0}

	got := Decode(scramble(plain))
	want := Payload{R: 200, G: 10, B: 10, Name: "Bonde"}
	if got != want {
		t.Fatalf("Decode() = %v, want %v", got, want)
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name  string
		plain [BlockSize]byte
		want  string
	}{
		{"empty name", [BlockSize]byte{1, 2, 3, 0}, DefaultName},
		{"full length", [BlockSize]byte{1, 2, 3, 8, 'S', 'u', 'b', 'd', 'u', 'e', 'd', '!'}, "Subdued!"},
		{"length clamped", [BlockSize]byte{1, 2, 3, 200, 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H'}, "ABCDEFGH"},
		{"control char", [BlockSize]byte{1, 2, 3, 3, 'A', 0x07, 'C'}, DefaultName},
		{"high byte", [BlockSize]byte{1, 2, 3, 2, 'A', 0x7F}, DefaultName},
		{"nul inside", [BlockSize]byte{1, 2, 3, 4, 'A', 'B', 0, 0}, DefaultName},
		{"space is printable", [BlockSize]byte{1, 2, 3, 3, 'a', ' ', '~'}, "a ~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(scramble(tt.plain))
			if got.Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Name, tt.want)
			}
			if got.R != 1 || got.G != 2 || got.B != 3 {
				t.Errorf("color = %d,%d,%d, want 1,2,3", got.R, got.G, got.B)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const letters = "Kyber~ !"

	for n := 0; n <= MaxNameLen; n++ {
		name := letters[:n]
		want := name
		if n == 0 {
			want = DefaultName
		}
		for ch := 0; ch < 3; ch++ {
			for v := 0; v < 256; v++ {
				c := [3]uint8{17, 128, 254}
				c[ch] = uint8(v)
				in := Payload{R: c[0], G: c[1], B: c[2], Name: name}

				raw, err := Encode(in)
				if err != nil {
					t.Fatalf("Encode(%v): %v", in, err)
				}
				got := Decode(raw)
				if got.R != in.R || got.G != in.G || got.B != in.B || got.Name != want {
					t.Fatalf("Decode(Encode(%v)) = %v", in, got)
				}
			}
		}
	}
}

func TestEncodeRejectsLongName(t *testing.T) {
	_, err := Encode(Payload{Name: "TooLongName"})
	if !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("err = %v, want ErrNameTooLong", err)
	}
}

func TestEncodeUsesKey(t *testing.T) {
	raw, err := Encode(Payload{})
	if err != nil {
		t.Fatal(err)
	}
	if raw != Key {
		t.Errorf("zero payload = % x, want key % x", raw, Key)
	}
}

func TestPages(t *testing.T) {
	var raw [BlockSize]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	pages := Pages(raw)
	if pages[0] != [PageSize]byte{0, 1, 2, 3} || pages[2] != [PageSize]byte{8, 9, 10, 11} {
		t.Errorf("Pages() = %v", pages)
	}
}
