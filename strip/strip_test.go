package strip

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kyberd/blade"
)

type pipeBuf struct {
	bytes.Buffer
	closed bool
	fail   bool
}

func (p *pipeBuf) Write(b []byte) (int, error) {
	if p.fail {
		return 0, errors.New("broken pipe")
	}
	return p.Buffer.Write(b)
}

func (p *pipeBuf) Close() error { p.closed = true; return nil }

func TestNeopixelFrames(t *testing.T) {
	w := &pipeBuf{}
	n := newNeopixel(w, 1)

	frame := []blade.Color{blade.From8(255, 128, 0), blade.Black}
	if err := n.Show(frame); err != nil {
		t.Fatal(err)
	}
	if err := n.Show(frame); err != nil {
		t.Fatal(err)
	}
	if got, want := w.String(), "px 1 ff8000 000000\n"; got != want {
		t.Fatalf("pipe = %q, want %q", got, want)
	}

	frame[1] = blade.From8(0, 0, 1)
	n.Show(frame)
	if got, want := w.String(), "px 1 ff8000 000000\npx 1 ff8000 000001\n"; got != want {
		t.Fatalf("pipe = %q, want %q", got, want)
	}

	n.Release()
	if !w.closed {
		t.Fatal("pipe not closed")
	}
}

func TestNeopixelRetriesAfterError(t *testing.T) {
	w := &pipeBuf{fail: true}
	n := newNeopixel(w, 0)
	frame := []blade.Color{blade.From8(1, 2, 3)}
	if err := n.Show(frame); err == nil {
		t.Fatal("write error hidden")
	}
	w.fail = false
	n.Show(frame)
	if w.String() != "px 0 010203\n" {
		t.Fatalf("pipe = %q", w.String())
	}
}

func TestMulti(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	m := NewMulti(a, b, &Noop{})
	m.Show([]blade.Color{blade.From8(9, 9, 9)})
	if a.Frames() != 1 || b.Frames() != 1 || b.Last()[0] != blade.From8(9, 9, 9) {
		t.Fatalf("frames a=%d b=%d", a.Frames(), b.Frames())
	}
	if err := m.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestNewNoPipe(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Noop); !ok {
		t.Fatalf("New = %T, want *Noop", s)
	}
}

func TestAdalightFrames(t *testing.T) {
	w := &pipeBuf{}
	a := newAdalight(w)

	frame := []blade.Color{blade.From8(255, 128, 0), blade.From8(0, 0, 1)}
	if err := a.Show(frame); err != nil {
		t.Fatal(err)
	}
	a.Show(frame)
	want := []byte{'A', 'd', 'a', 0x00, 0x01, 0x54, 255, 128, 0, 0, 0, 1}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("serial = % x, want % x", w.Bytes(), want)
	}

	if err := a.Show(nil); err != nil || w.Len() != len(want) {
		t.Fatalf("empty frame wrote %d bytes, err %v", w.Len()-len(want), err)
	}

	w.Reset()
	w.fail = true
	if err := a.Show([]blade.Color{blade.Black}); err == nil {
		t.Fatal("write error hidden")
	}
	w.fail = false
	a.Show([]blade.Color{blade.Black})
	if !bytes.Equal(w.Bytes(), []byte{'A', 'd', 'a', 0, 0, 0x55, 0, 0, 0}) {
		t.Fatalf("retry = % x", w.Bytes())
	}

	a.Release()
	if !w.closed {
		t.Fatal("port not closed")
	}
}

func TestNewOutputs(t *testing.T) {
	pipe := filepath.Join(t.TempDir(), "neopixel")
	if err := os.WriteFile(pipe, nil, 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{NeopixelPipe: pipe})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Neopixel); !ok {
		t.Errorf("New = %T, want *Neopixel", s)
	}
	s.Release()

	if _, err := New(Config{NeopixelPipe: pipe, Serial: filepath.Join(t.TempDir(), "missing", "tty")}); err == nil {
		t.Error("missing serial device accepted")
	}
}
