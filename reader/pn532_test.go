package reader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"kyberd/crystal"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeChip struct {
	fw       string
	fwErr    error
	inits    int
	present  *fakeTag
	deadline time.Duration
	closed   bool
}

func (c *fakeChip) Init(context.Context) error { c.inits++; return nil }

func (c *fakeChip) Firmware(context.Context) (string, error) { return c.fw, c.fwErr }

func (c *fakeChip) Detect(ctx context.Context) (tag, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.deadline = time.Until(dl)
	}
	if c.present == nil {
		return nil, nil
	}
	return c.present, nil
}

func (c *fakeChip) Close() error { c.closed = true; return nil }

type fakeTag struct {
	uid   []byte
	pages map[uint8][4]byte
	short bool
}

func (t *fakeTag) UIDBytes() []byte { return t.uid }

// ReadBlock returns four consecutive pages like NTAG READ does.
func (t *fakeTag) ReadBlock(_ context.Context, block uint8) ([]byte, error) {
	if t.short {
		return []byte{1, 2}, nil
	}
	var out []byte
	for p := block; p < block+4; p++ {
		pg := t.pages[p]
		out = append(out, pg[:]...)
	}
	return out, nil
}

func (t *fakeTag) WriteBlock(_ context.Context, block uint8, data []byte) error {
	if len(data) != crystal.PageSize {
		return errors.New("bad write length")
	}
	var pg [4]byte
	copy(pg[:], data)
	t.pages[block] = pg
	return nil
}

func TestHandshake(t *testing.T) {
	c := &fakeChip{fw: "1.6"}
	d := NewPN532(c, discard)
	v, err := d.Handshake()
	if err != nil || v != "1.6" {
		t.Fatalf("Handshake = %q, %v", v, err)
	}

	c.fwErr = ErrNoResponse
	if _, err := d.Handshake(); !errors.Is(err, ErrNoResponse) {
		t.Errorf("err = %v, want ErrNoResponse", err)
	}

	if err := d.Configure(); err != nil || c.inits != 1 {
		t.Errorf("Configure = %v, inits = %d", err, c.inits)
	}
}

func TestReadTagAndPages(t *testing.T) {
	tg := &fakeTag{
		uid: []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6},
		pages: map[uint8][4]byte{
			4: {0xDE, 0xAD, 0xBE, 0xEF},
			5: {1, 2, 3, 4},
		},
	}
	c := &fakeChip{present: tg}
	d := NewPN532(c, discard)

	id, ok, err := d.ReadTag(time.Second)
	if err != nil || !ok {
		t.Fatalf("ReadTag = %v, %v", ok, err)
	}
	if !id.Equal(NewTagID(tg.uid)) {
		t.Errorf("id = %v", id)
	}
	if c.deadline <= 0 || c.deadline > time.Second {
		t.Errorf("detect deadline = %v, want within 1s", c.deadline)
	}

	pg, err := d.ReadPage(4)
	if err != nil || pg != [4]byte{0xDE, 0xAD, 0xBE, 0xEF} {
		t.Fatalf("ReadPage = %x, %v", pg, err)
	}

	if err := d.WritePage(6, [4]byte{9, 8, 7, 6}); err != nil {
		t.Fatal(err)
	}
	if tg.pages[6] != [4]byte{9, 8, 7, 6} {
		t.Errorf("page 6 = %x", tg.pages[6])
	}

	if err := d.Close(); err != nil || !c.closed {
		t.Errorf("Close = %v, closed = %v", err, c.closed)
	}
}

func TestNoTagSelected(t *testing.T) {
	c := &fakeChip{present: &fakeTag{uid: []byte{1, 2, 3, 4}, pages: map[uint8][4]byte{}}}
	d := NewPN532(c, discard)

	if _, err := d.ReadPage(4); !errors.Is(err, ErrNoTag) {
		t.Errorf("ReadPage before ReadTag = %v", err)
	}
	if _, ok, _ := d.ReadTag(time.Second); !ok {
		t.Fatal("tag not found")
	}

	c.present = nil
	_, ok, err := d.ReadTag(time.Second)
	if ok || err != nil {
		t.Fatalf("ReadTag = %v, %v", ok, err)
	}
	if err := d.WritePage(4, [4]byte{}); !errors.Is(err, ErrNoTag) {
		t.Errorf("WritePage after tag left = %v", err)
	}
}

func TestShortBlock(t *testing.T) {
	d := NewPN532(&fakeChip{present: &fakeTag{uid: []byte{1}, short: true}}, discard)
	d.ReadTag(time.Second)
	if _, err := d.ReadPage(4); !errors.Is(err, ErrShortBlock) {
		t.Errorf("err = %v, want ErrShortBlock", err)
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "rc522"}, discard); err == nil {
		t.Error("unknown type accepted")
	}
	d, err := New(Config{}, discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(Noop); !ok {
		t.Errorf("default device = %T, want Noop", d)
	}
}
