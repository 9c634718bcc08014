package reader

import (
	"context"
	"errors"
	"fmt"

	pn532 "github.com/ZaparooProject/go-pn532"
	"github.com/ZaparooProject/go-pn532/transport/i2c"
	"github.com/ZaparooProject/go-pn532/transport/uart"
)

type transportKind int

const (
	transportI2C transportKind = iota
	transportUART
)

func (k transportKind) String() string {
	if k == transportUART {
		return "uart"
	}
	return "i2c"
}

func openChip(kind transportKind, device string) (chip, error) {
	var (
		t   pn532.Transport
		err error
	)
	switch kind {
	case transportUART:
		t, err = uart.New(device)
	default:
		t, err = i2c.New(device)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s %s: %w", kind, device, err)
	}

	dev, err := pn532.New(t)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("pn532 on %s: %w", device, err)
	}
	return libChip{dev: dev}, nil
}

// libChip binds chip to a go-pn532 device.
type libChip struct {
	dev *pn532.Device
}

func (c libChip) Init(ctx context.Context) error { return c.dev.Init(ctx) }

func (c libChip) Firmware(ctx context.Context) (string, error) {
	fw, err := c.dev.GetFirmwareVersion(ctx)
	if err != nil {
		return "", err
	}
	return fw.Version, nil
}

func (c libChip) Detect(ctx context.Context) (tag, error) {
	found, err := c.dev.DetectTag(ctx)
	switch {
	case errors.Is(err, pn532.ErrNoTagDetected), errors.Is(err, context.DeadlineExceeded):
		return nil, nil
	case err != nil:
		return nil, err
	}
	t, err := c.dev.CreateTag(found)
	if err != nil {
		return nil, fmt.Errorf("tag %s: %w", found.UID, err)
	}
	return t, nil
}

func (c libChip) Close() error { return c.dev.Close() }
