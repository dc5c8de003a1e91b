package sqlengine

import (
	"fmt"
	"math"

	"crawshaw.io/sqlite"
)

// Blob is an incremental read/write handle on one (table, column, rowid)
// cell. It borrows from its owning Conn and must be closed before the Conn
// closes.
type Blob struct {
	raw *sqlite.Blob
}

// Size is the blob's current length in bytes.
func (b *Blob) Size() int64 {
	return b.raw.Size()
}

// ReadAt reads len(p) bytes starting at offset. offset+len(p) must not
// exceed Size(); callers are expected to clamp first, matching the source's
// contract rather than sqlite's own bounds error.
func (b *Blob) ReadAt(p []byte, offset int64) error {
	if int64(len(p)) > math.MaxInt32 {
		return fmt.Errorf("sqlengine: blob read of %d bytes exceeds INT32_MAX", len(p))
	}
	if len(p) == 0 {
		return nil
	}
	if _, err := b.raw.ReadAt(p, offset); err != nil {
		return fmt.Errorf("sqlengine: blob read: %w", err)
	}
	return nil
}

// WriteAt writes p at offset. Lengths are bounded by INT32_MAX per the
// underlying blob API.
func (b *Blob) WriteAt(p []byte, offset int64) error {
	if int64(len(p)) > math.MaxInt32 {
		return fmt.Errorf("sqlengine: blob write of %d bytes exceeds INT32_MAX", len(p))
	}
	if len(p) == 0 {
		return nil
	}
	if _, err := b.raw.WriteAt(p, offset); err != nil {
		return fmt.Errorf("sqlengine: blob write: %w", err)
	}
	return nil
}

// Reopen repoints this handle at a different rowid of the same (table,
// column) without closing and reopening it. The call handler's grow paths
// do not use it: they close the old handle and open a new one on the
// freshly allocated row.
func (b *Blob) Reopen(rowid int64) error {
	if err := b.raw.Reopen(rowid); err != nil {
		return fmt.Errorf("sqlengine: blob reopen: %w", err)
	}
	return nil
}

// Close releases the blob handle. Must happen before the owning Conn
// closes.
func (b *Blob) Close() error {
	if err := b.raw.Close(); err != nil {
		return fmt.Errorf("sqlengine: blob close: %w", err)
	}
	return nil
}
