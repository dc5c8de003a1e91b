package callhandler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbfsio/dbfs/internal/config"
	"github.com/dbfsio/dbfs/internal/vfs"
)

// fakeOps is a minimal vfs.FileOps backed by a real temp directory, so
// shouldIntercept's FileExists(dir) check and the import path both exercise
// genuine filesystem behavior without needing the real interception glue.
type fakeOps struct{}

func (fakeOps) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (fakeOps) GetFileTimes(path string) (vfs.FileTimes, error) {
	info, err := os.Stat(path)
	if err != nil {
		return vfs.FileTimes{}, err
	}
	return vfs.FileTimes{CreationTime: info.ModTime(), LastModified: info.ModTime(), LastAccessed: info.ModTime()}, nil
}

type fakeMapped struct{ data []byte }

func (m *fakeMapped) Data() []byte { return m.data }
func (m *fakeMapped) Close() error { return nil }

func (fakeOps) MemMapFile(path string) (vfs.MemMappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &fakeMapped{data: data}, nil
}

// savesPath builds …/Saves/world/0_0/name.bin under root, satisfying the
// §4.3.1 "third ancestor is named Saves" predicate.
func savesPath(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, "Saves", "world", "0_0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return filepath.Join(dir, name)
}

func newTestHandler() *Handler {
	return New(fakeOps{}, config.Options{CacheCapacity: 8, ReapEmptyDirs: false}, nil)
}

func TestImportOnFirstOpen(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "map_0_0.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644))

	h := newTestHandler()
	info := vfs.FileInfo{Path: path, Handle: 1}

	require.Equal(t, vfs.Succeed, h.FileOpenOnly(info))

	buf := make([]byte, 4)
	n := uint32(4)
	require.Equal(t, vfs.Succeed, h.FileRead(info, buf, &n))
	require.EqualValues(t, 4, n)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, buf)
}

func TestWritePastEndZeroPads(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "p.bin")

	h := newTestHandler()
	info := vfs.FileInfo{Path: path, Handle: 2}

	require.Equal(t, vfs.Succeed, h.FileCreateAndWipe(info))

	var pos int64 = 10
	require.Equal(t, vfs.Succeed, h.FileSeek(info, vfs.SeekBegin, &pos))

	payload := []byte{0xAA}
	wl := uint32(1)
	require.Equal(t, vfs.Succeed, h.FileWrite(info, payload, &wl))
	require.EqualValues(t, 1, wl)

	pos = 0
	require.Equal(t, vfs.Succeed, h.FileSeek(info, vfs.SeekBegin, &pos))

	buf := make([]byte, 11)
	rl := uint32(11)
	require.Equal(t, vfs.Succeed, h.FileRead(info, buf, &rl))
	require.EqualValues(t, 11, rl)

	want := make([]byte, 11)
	want[10] = 0xAA
	require.Equal(t, want, buf)
}

func TestNonInterceptedPathPassesThrough(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Users", "foo", "document.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	h := newTestHandler()
	info := vfs.FileInfo{Path: path, Handle: 3}

	require.Equal(t, vfs.Passthru, h.FileOpenOnly(info))
	require.Len(t, h.cache.active, 0)
}

func TestCreateExclusiveFailsButImports(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "zpop_1_1.bin")
	require.NoError(t, os.WriteFile(path, []byte("ZZ"), 0o644))

	h := newTestHandler()

	require.Equal(t, vfs.Fail, h.FileCreateOnly(vfs.FileInfo{Path: path, Handle: 4}))

	info := vfs.FileInfo{Path: path, Handle: 5}
	require.Equal(t, vfs.Succeed, h.FileOpenOnly(info))

	buf := make([]byte, 2)
	rl := uint32(2)
	require.Equal(t, vfs.Succeed, h.FileRead(info, buf, &rl))
	require.Equal(t, []byte("ZZ"), buf)
}

func TestDeleteThenReimport(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "map_0_0.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	h := newTestHandler()
	require.Equal(t, vfs.Succeed, h.FileOpenOnly(vfs.FileInfo{Path: path, Handle: 6}))
	h.FileClosed(vfs.FileInfo{Path: path, Handle: 6})

	require.Equal(t, vfs.Succeed, h.FileDelete(path))
	require.Equal(t, vfs.AttrNormal, h.FileGetAttrib(path))
}

func TestCursorIsolationAcrossHandles(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "shared.bin")

	h := newTestHandler()
	a := vfs.FileInfo{Path: path, Handle: 10}
	require.Equal(t, vfs.Succeed, h.FileCreateAndWipe(a))

	payload := []byte{0, 1, 2, 3, 4, 5}
	wl := uint32(6)
	require.Equal(t, vfs.Succeed, h.FileWrite(a, payload, &wl))

	b := vfs.FileInfo{Path: path, Handle: 11}
	require.Equal(t, vfs.Succeed, h.FileOpenOnly(b))

	var posA int64 = 5
	require.Equal(t, vfs.Succeed, h.FileSeek(a, vfs.SeekBegin, &posA))
	var posB int64 = 0
	require.Equal(t, vfs.Succeed, h.FileSeek(b, vfs.SeekBegin, &posB))

	bufA := make([]byte, 1)
	rlA := uint32(1)
	require.Equal(t, vfs.Succeed, h.FileRead(a, bufA, &rlA))

	bufB := make([]byte, 1)
	rlB := uint32(1)
	require.Equal(t, vfs.Succeed, h.FileRead(b, bufB, &rlB))

	require.EqualValues(t, 1, rlA)
	require.EqualValues(t, 1, rlB)
	require.Equal(t, []byte{5}, bufA)
	require.Equal(t, []byte{0}, bufB)
}

func TestClosedRemovesCursor(t *testing.T) {
	root := t.TempDir()
	path := savesPath(t, root, "c.bin")

	h := newTestHandler()
	info := vfs.FileInfo{Path: path, Handle: 20}
	require.Equal(t, vfs.Succeed, h.FileCreateAndWipe(info))
	require.True(t, h.cursors.Has(20))

	h.FileClosed(info)
	require.False(t, h.cursors.Has(20))
}
