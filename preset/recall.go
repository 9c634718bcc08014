package preset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultRecallPath is the quick-recall file used when none is configured.
const DefaultRecallPath = "cur_kyber.txt"

const maxRecallBytes = 15

// Recall is the quick-recall file holding the last bonded preset index.
type Recall struct {
	path string
}

// NewRecall creates a quick-recall file handle.
func NewRecall(path string) *Recall {
	if path == "" {
		path = DefaultRecallPath
	}
	return &Recall{path: path}
}

// Load returns the stored index.
func (r *Recall) Load() (int, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, maxRecallBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read %s: %w", r.path, err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return idx, nil
}

// Store overwrites the file with index as decimal text.
func (r *Recall) Store(index int) error {
	if err := os.WriteFile(r.path, []byte(strconv.Itoa(index)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}
