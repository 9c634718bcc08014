package crystal

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

// PageWriter writes one 4-byte page to a tag.
type PageWriter interface {
	WritePage(page uint8, data [PageSize]byte) error
}

// ReadWriter can both read and write tag pages.
type ReadWriter interface {
	PageReader
	PageWriter
}

// ErrVerify is returned when a page reads back different from what was written.
var ErrVerify = errors.New("crystal: verify failed")

// Writer writes pages with per-page retries and verifies them by reading back.
// The zero value makes three attempts per page, waiting Backoff (200ms) times
// one more than the attempt index before each retry and Settle (200ms) after
// each good write. A failed pass is repeated once after Pause (300ms).
// Negative durations disable the wait.
type Writer struct {
	Attempts int
	Rounds   int
	Backoff  time.Duration
	Settle   time.Duration
	Pause    time.Duration
	Sleep    func(time.Duration)
}

func (w Writer) attempts() int {
	if w.Attempts < 1 {
		return 3
	}
	return w.Attempts
}

func (w Writer) rounds() int {
	if w.Rounds < 1 {
		return 2
	}
	return w.Rounds
}

func (w Writer) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// WritePage writes one page, retrying on errors.
func (w Writer) WritePage(dev PageWriter, p Page) error {
	backoff := orDefault(w.Backoff, 200*time.Millisecond)
	var err error
	for attempt := 0; attempt < w.attempts(); attempt++ {
		if attempt > 0 {
			w.sleep(backoff * time.Duration(attempt+1))
		}
		if err = dev.WritePage(p.N, p.Data); err == nil {
			w.sleep(orDefault(w.Settle, 200*time.Millisecond))
			return nil
		}
	}
	return fmt.Errorf("page %d after %d attempts: %w", p.N, w.attempts(), err)
}

// Write writes every page in order, then reads each back.
func (w Writer) Write(dev ReadWriter, pages []Page) error {
	var err error
	for round := 0; round < w.rounds(); round++ {
		if round > 0 {
			w.sleep(orDefault(w.Pause, 300*time.Millisecond))
		}
		if err = w.pass(dev, pages); err == nil {
			return nil
		}
	}
	return err
}

func (w Writer) pass(dev ReadWriter, pages []Page) error {
	for _, p := range pages {
		if err := w.WritePage(dev, p); err != nil {
			return err
		}
	}
	for _, p := range pages {
		got, err := dev.ReadPage(p.N)
		if err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrVerify, p.N, err)
		}
		if !bytes.Equal(got[:], p.Data[:]) {
			return fmt.Errorf("%w: page %d is % x, want % x", ErrVerify, p.N, got[:], p.Data[:])
		}
	}
	return nil
}
