// Package realfs implements vfs.FileOps against the actual operating
// system filesystem: the queries the call handler makes when deciding
// whether to import an existing file, and the memory-mapped read used to
// perform that import without a full buffered copy.
package realfs

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/dbfsio/dbfs/internal/vfs"
)

// FileOps is the production vfs.FileOps implementation.
type FileOps struct{}

// New returns a FileOps backed by the real filesystem.
func New() FileOps {
	return FileOps{}
}

// FileExists reports whether path names an existing filesystem entry.
func (FileOps) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetFileTimes returns path's modification time as reported by os.Stat for
// all three fields: creation and access time are always reported as
// ModTime, on every platform.
func (FileOps) GetFileTimes(path string) (vfs.FileTimes, error) {
	info, err := os.Stat(path)
	if err != nil {
		return vfs.FileTimes{}, fmt.Errorf("realfs: stat %s: %w", path, err)
	}
	mtime := info.ModTime()
	return vfs.FileTimes{
		CreationTime: mtime,
		LastModified: mtime,
		LastAccessed: mtime,
	}, nil
}

// mappedFile adapts an mmap.MMap to vfs.MemMappedFile.
type mappedFile struct {
	f *os.File
	m mmap.MMap
}

func (mf *mappedFile) Data() []byte {
	return mf.m
}

func (mf *mappedFile) Close() error {
	unmapErr := mf.m.Unmap()
	closeErr := mf.f.Close()
	if unmapErr != nil {
		return fmt.Errorf("realfs: unmap: %w", unmapErr)
	}
	if closeErr != nil {
		return fmt.Errorf("realfs: close mapped file: %w", closeErr)
	}
	return nil
}

// MemMapFile memory-maps path read-only, for the one-time import of an
// existing real file's bytes into a SaveDB row.
func (FileOps) MemMapFile(path string) (vfs.MemMappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("realfs: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("realfs: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		// mmap of a zero-length file fails on most platforms; hand back an
		// empty mapping instead.
		return &mappedFile{f: f, m: mmap.MMap{}}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("realfs: mmap %s: %w", path, err)
	}

	return &mappedFile{f: f, m: m}, nil
}
