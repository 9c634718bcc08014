package crystal

import "fmt"

// NTAG21x configuration pages.
const (
	StaticLockPage  = 2
	CapabilityPage  = 3
	DynamicLockPage = 40
	Config0Page     = 41
	Config1Page     = 42
)

// LockStatus holds the lock and configuration pages of a tag.
type LockStatus struct {
	Static     [PageSize]byte
	Capability [PageSize]byte
	Dynamic    [PageSize]byte
	Config0    [PageSize]byte
	Config1    [PageSize]byte
}

// ReadLockStatus reads the lock and configuration pages.
func ReadLockStatus(r PageReader) (LockStatus, error) {
	var s LockStatus
	for _, f := range []struct {
		page uint8
		dst  *[PageSize]byte
	}{
		{StaticLockPage, &s.Static},
		{CapabilityPage, &s.Capability},
		{DynamicLockPage, &s.Dynamic},
		{Config0Page, &s.Config0},
		{Config1Page, &s.Config1},
	} {
		buf, err := r.ReadPage(f.page)
		if err != nil {
			return s, fmt.Errorf("%w: page %d: %v", ErrReadFailure, f.page, err)
		}
		*f.dst = buf
	}
	return s, nil
}

// StaticLocked reports lock bits set in the static lock bytes.
func (s LockStatus) StaticLocked() bool { return s.Static[2]|s.Static[3] != 0 }

// DynamicLocked reports lock bits set in the dynamic lock bytes.
func (s LockStatus) DynamicLocked() bool { return s.Dynamic[0]|s.Dynamic[1]|s.Dynamic[2] != 0 }

// Auth0 is the first page that needs password authentication.
func (s LockStatus) Auth0() uint8 { return s.Config1[3] }

// WriteProtected reports whether authentication covers any crystal page.
func (s LockStatus) WriteProtected() bool { return s.Auth0() <= LastPage }

// Writable reports whether a crystal can be written without authentication.
func (s LockStatus) Writable() bool {
	return !s.StaticLocked() && !s.DynamicLocked() && !s.WriteProtected()
}
