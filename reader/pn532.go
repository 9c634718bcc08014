package reader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kyberd/crystal"
)

// chip is the part of a PN532 driver the adapter needs.
// Detect returns (nil, nil) when no tag answered before ctx expired.
type chip interface {
	Init(ctx context.Context) error
	Firmware(ctx context.Context) (string, error)
	Detect(ctx context.Context) (tag, error)
	Close() error
}

// tag is a selected NTAG. Blocks are NTAG pages.
type tag interface {
	UIDBytes() []byte
	ReadBlock(ctx context.Context, block uint8) ([]byte, error)
	WriteBlock(ctx context.Context, block uint8, data []byte) error
}

// PN532 implements Device and crystal.PageWriter for NXP PN532 based readers.
type PN532 struct {
	c         chip
	log       *slog.Logger
	opTimeout time.Duration
	selected  tag
}

var _ crystal.ReadWriter = (*PN532)(nil)

// NewPN532 wraps an opened chip. It does not touch the hardware.
func NewPN532(c chip, log *slog.Logger) *PN532 {
	if log == nil {
		log = slog.Default()
	}
	return &PN532{c: c, log: log, opTimeout: 500 * time.Millisecond}
}

func (d *PN532) op() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.opTimeout)
}

// Handshake implements Device.Handshake.
func (d *PN532) Handshake() (string, error) {
	ctx, cancel := d.op()
	defer cancel()
	v, err := d.c.Firmware(ctx)
	if err != nil {
		return "", fmt.Errorf("pn532: firmware version: %w", err)
	}
	return v, nil
}

// Configure implements Device.Configure.
func (d *PN532) Configure() error {
	ctx, cancel := d.op()
	defer cancel()
	if err := d.c.Init(ctx); err != nil {
		return fmt.Errorf("pn532: init: %w", err)
	}
	return nil
}

// ReadTag implements Device.ReadTag. The found tag stays selected for
// ReadPage and WritePage until the next call.
func (d *PN532) ReadTag(timeout time.Duration) (TagID, bool, error) {
	d.selected = nil
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	t, err := d.c.Detect(ctx)
	if err != nil {
		return TagID{}, false, fmt.Errorf("pn532: detect: %w", err)
	}
	if t == nil {
		return TagID{}, false, nil
	}
	d.selected = t
	return NewTagID(t.UIDBytes()), true, nil
}

// ReadPage implements Device.ReadPage. NTAG READ returns four pages; the first is kept.
func (d *PN532) ReadPage(page uint8) ([crystal.PageSize]byte, error) {
	var out [crystal.PageSize]byte
	if d.selected == nil {
		return out, ErrNoTag
	}
	ctx, cancel := d.op()
	defer cancel()

	data, err := d.selected.ReadBlock(ctx, page)
	if err != nil {
		return out, fmt.Errorf("pn532: read page %d: %w", page, err)
	}
	if len(data) < crystal.PageSize {
		return out, fmt.Errorf("pn532: read page %d: %w", page, ErrShortBlock)
	}
	copy(out[:], data)
	return out, nil
}

// WritePage implements crystal.PageWriter.
func (d *PN532) WritePage(page uint8, b [crystal.PageSize]byte) error {
	if d.selected == nil {
		return ErrNoTag
	}
	ctx, cancel := d.op()
	defer cancel()

	if err := d.selected.WriteBlock(ctx, page, b[:]); err != nil {
		return fmt.Errorf("pn532: write page %d: %w", page, err)
	}
	d.log.Debug("Page written", "page", page)
	return nil
}

// Close implements Device.Close.
func (d *PN532) Close() error {
	d.selected = nil
	return d.c.Close()
}
