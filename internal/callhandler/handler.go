// Package callhandler implements the vfs.OSCallHandler state machine: the
// component that turns a stream of host file calls into SaveDB operations.
// It owns the lazy directory→SaveDB cache, the handle→cursor map, and the
// interception policy, and is the only piece of this module that knows how
// the two compose.
package callhandler

import (
	"path/filepath"
	"time"

	"github.com/dbfsio/dbfs/internal/config"
	"github.com/dbfsio/dbfs/internal/savedb"
	"github.com/dbfsio/dbfs/internal/telemetry"
	"github.com/dbfsio/dbfs/internal/vfs"
)

// Handler implements vfs.OSCallHandler.
type Handler struct {
	ops     vfs.FileOps
	cache   *dbCache
	cursors *cursorMap
	rec     *telemetry.Recorder
}

// New builds a Handler backed by ops for real-filesystem queries, tuned by
// cfg, recording call outcomes to rec (nil disables telemetry).
func New(ops vfs.FileOps, cfg config.Options, rec *telemetry.Recorder) *Handler {
	return &Handler{
		ops:     ops,
		cache:   newDBCache(cfg.CacheCapacity, cfg.ReapEmptyDirs),
		cursors: newCursorMap(),
		rec:     rec,
	}
}

// Shutdown closes every SaveDB the handler currently holds. Call it once,
// at process teardown.
func (h *Handler) Shutdown() {
	h.cache.CloseAll()
}

// Evict drops dir's SaveDB from the cache unconditionally, regardless of
// refcount, and closes it. Satisfies dirwatch.Evictor, for directories
// removed out from under the process.
func (h *Handler) Evict(dir string) {
	h.cache.Evict(dir)
}

// OnDirOpened registers fn to run the first time a directory's SaveDB is
// opened fresh, so a caller (dirwatch) can start watching it.
func (h *Handler) OnDirOpened(fn func(dir string)) {
	h.cache.SetOnOpen(fn)
}

func splitPath(path string) (dir, name string) {
	return filepath.Dir(path), filepath.Base(path)
}

// intercepted is the §4.3.1 predicate as applied to a handle-carrying call:
// once a handle has been opened under interception its directory is
// recorded in cursors, and it stays intercepted for its whole lifetime even
// if the path predicate would no longer match. A handle with no recorded
// directory falls back to evaluating the path predicate fresh.
func (h *Handler) intercepted(info vfs.FileInfo) bool {
	if _, ok := h.cursors.Dir(info.Handle); ok {
		return true
	}
	return shouldIntercept(h.ops, info.Path)
}

func (h *Handler) importFile(db *savedb.SaveDB, path, name string) error {
	unlock := db.LockGrow()
	defer unlock()

	mapped, err := h.ops.MemMapFile(path)
	if err != nil {
		return err
	}
	defer mapped.Close()
	return db.Upsert(name, mapped.Data())
}

func (h *Handler) record(call, dir, name string, handle int64, outcome string, n int, err error) {
	if h.rec == nil {
		return
	}
	h.rec.Record(telemetry.Event{
		TraceID:   telemetry.NewTraceID(),
		Timestamp: time.Now(),
		Call:      call,
		Dir:       dir,
		Name:      name,
		Handle:    handle,
		Outcome:   outcome,
		Bytes:     n,
		Err:       err,
	})
}

// FileOpenOnly is the first row of the §4.3.2 open-family table.
func (h *Handler) FileOpenOnly(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, name := splitPath(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileOpenOnly", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	if db.Exists(name) {
		h.cursors.SetDir(info.Handle, dir)
		h.cursors.Install(info.Handle, 0)
		h.record("FileOpenOnly", dir, name, info.Handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	if h.ops.FileExists(info.Path) {
		if err := h.importFile(db, info.Path, name); err != nil {
			h.cache.Release(dir)
			h.record("FileOpenOnly", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.cursors.SetDir(info.Handle, dir)
		h.cursors.Install(info.Handle, 0)
		h.record("FileOpenOnly", dir, name, info.Handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	h.cache.Release(dir)
	h.record("FileOpenOnly", dir, name, info.Handle, "PASSTHRU", 0, nil)
	return vfs.Passthru
}

// FileCreateOnly is the second row: exclusive create, but it still imports
// a pre-existing real file into the DB before reporting FAIL, matching the
// real OS's own "file already exists" contract.
func (h *Handler) FileCreateOnly(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, name := splitPath(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileCreateOnly", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	if db.Exists(name) {
		h.cache.Release(dir)
		h.record("FileCreateOnly", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	if h.ops.FileExists(info.Path) {
		if err := h.importFile(db, info.Path, name); err != nil {
			h.cache.Release(dir)
			h.record("FileCreateOnly", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.cache.Release(dir)
		h.record("FileCreateOnly", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	// Success branch installs no cursor, preserving the default-zero lazy
	// cursor behavior (see §9).
	h.cursors.SetDir(info.Handle, dir)
	h.record("FileCreateOnly", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileOpenOrCreate is the third row. Its exists-branch also installs no
// cursor, see §9.
func (h *Handler) FileOpenOrCreate(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, name := splitPath(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileOpenOrCreate", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	if db.Exists(name) {
		h.cursors.SetDir(info.Handle, dir)
		h.record("FileOpenOrCreate", dir, name, info.Handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	if h.ops.FileExists(info.Path) {
		if err := h.importFile(db, info.Path, name); err != nil {
			h.cache.Release(dir)
			h.record("FileOpenOrCreate", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.cursors.SetDir(info.Handle, dir)
		h.cursors.Install(info.Handle, 0)
		h.record("FileOpenOrCreate", dir, name, info.Handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	h.cursors.SetDir(info.Handle, dir)
	h.record("FileOpenOrCreate", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileCreateAndWipe always succeeds once intercepting, clearing any prior
// row so the handle starts against an empty file.
func (h *Handler) FileCreateAndWipe(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, name := splitPath(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileCreateAndWipe", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	// The wipe leaves behind a confirmed-existing, zero-length blob rather
	// than a NULL one: a NULL row reads back as absent (Exists), which
	// would make the very next write on this handle miss the grow path
	// instead of zero-padding from offset 0, see the round-trip scenario
	// in §8. A real FileDelete still uses the logical NULL-set.
	if err := db.Upsert(name, []byte{}); err != nil {
		h.cache.Release(dir)
		h.record("FileCreateAndWipe", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	h.cursors.SetDir(info.Handle, dir)
	h.cursors.Install(info.Handle, 0)
	h.record("FileCreateAndWipe", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileOpenOnlyAndWipe requires a row to already exist; it wipes that row
// and succeeds, or fails if there was nothing to open.
func (h *Handler) FileOpenOnlyAndWipe(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, name := splitPath(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileOpenOnlyAndWipe", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	if !db.Exists(name) {
		h.cache.Release(dir)
		h.record("FileOpenOnlyAndWipe", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	// Same confirmed-existing-empty-blob wipe as FileCreateAndWipe, see
	// its comment.
	if err := db.Upsert(name, []byte{}); err != nil {
		h.cache.Release(dir)
		h.record("FileOpenOnlyAndWipe", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}

	h.cursors.SetDir(info.Handle, dir)
	h.cursors.Install(info.Handle, 0)
	h.record("FileOpenOnlyAndWipe", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileRead implements §4.3.3: clamp the requested length to what's actually
// available past the cursor, read that many bytes, and advance the cursor.
func (h *Handler) FileRead(info vfs.FileInfo, buf []byte, readLen *uint32) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, ok := h.cursors.Dir(info.Handle)
	if !ok {
		return vfs.Fail
	}
	name := filepath.Base(info.Path)
	db, ok := h.cache.Peek(dir)
	if !ok {
		return vfs.Fail
	}

	if !db.Exists(name) {
		h.record("FileRead", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	rowid, ok := db.RowID(name)
	if !ok {
		h.record("FileRead", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	blob, err := db.OpenBlob(rowid, false)
	if err != nil {
		h.record("FileRead", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}
	defer blob.Close()

	length := blob.Size()
	ptr := h.cursors.GetOrZero(info.Handle)

	available := length - ptr
	if available < 0 {
		available = 0
	}
	clamped := int64(*readLen)
	if clamped > available {
		clamped = available
	}
	*readLen = uint32(clamped)

	if clamped > 0 {
		if err := blob.ReadAt(buf[:clamped], ptr); err != nil {
			h.record("FileRead", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
	}

	h.cursors.Add(info.Handle, clamped)
	h.record("FileRead", dir, name, info.Handle, "SUCCEED", int(clamped), nil)
	return vfs.Succeed
}

// FileWrite implements the §4.3.4 grow path: a write with no existing data
// to preserve takes Case B (a fresh upsert); a write that lands entirely
// within the current blob is a direct WriteAt; writes that extend past the
// current end go through read-old/zero-blob/reopen/write-old-back/write-new
// so bytes between the old end and the write offset come back as zero on a
// later read.
func (h *Handler) FileWrite(info vfs.FileInfo, buf []byte, writeLen *uint32) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, ok := h.cursors.Dir(info.Handle)
	if !ok {
		return vfs.Fail
	}
	name := filepath.Base(info.Path)
	db, ok := h.cache.Peek(dir)
	if !ok {
		return vfs.Fail
	}

	ptr := h.cursors.GetOrZero(info.Handle)
	w := int64(*writeLen)
	data := buf[:w]

	unlock := db.LockGrow()
	defer unlock()

	// Case A's gate is Exists (non-NULL row present) and (ptr>0 or
	// current size>0), matching the source's BlobExists(...) &&
	// (ptr>0 || BlobSize(...)>0) exactly, not a rowid lookup: a row can
	// be present-but-NULL, which must NOT take the grow path.
	caseA := db.Exists(name) && (ptr > 0 || db.Size(name) > 0)

	// Case B: nothing to preserve, so upsert the caller's bytes as a fresh
	// blob, verbatim (offset is not applied; this mirrors the source's
	// own Case B, which replaces the whole row rather than writing at
	// ptr).
	if !caseA {
		if err := db.Upsert(name, data); err != nil {
			h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.cursors.Add(info.Handle, w)
		h.record("FileWrite", dir, name, info.Handle, "SUCCEED", int(w), nil)
		return vfs.Succeed
	}

	rowid, ok := db.RowID(name)
	if !ok {
		h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, nil)
		return vfs.Fail
	}

	// Case A.
	blob, err := db.OpenBlob(rowid, true)
	if err != nil {
		h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}
	l := blob.Size()

	if l-ptr < w {
		old := make([]byte, l)
		if l > 0 {
			if err := blob.ReadAt(old, 0); err != nil {
				blob.Close()
				h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
				return vfs.Fail
			}
		}
		blob.Close()

		newRowID, err := db.UpsertZeroBlob(name, w+ptr)
		if err != nil {
			h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}

		blob, err = db.OpenBlob(newRowID, true)
		if err != nil {
			h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
		if l > 0 {
			if err := blob.WriteAt(old, 0); err != nil {
				blob.Close()
				h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
				return vfs.Fail
			}
		}
	}

	defer blob.Close()
	if w > 0 {
		if err := blob.WriteAt(data, ptr); err != nil {
			h.record("FileWrite", dir, name, info.Handle, "FAIL", 0, err)
			return vfs.Fail
		}
	}

	h.cursors.Add(info.Handle, w)
	h.record("FileWrite", dir, name, info.Handle, "SUCCEED", int(w), nil)
	return vfs.Succeed
}

// FileSeek implements §4.3.5, writing the final absolute position back
// through distance.
func (h *Handler) FileSeek(info vfs.FileInfo, pos vfs.SeekFrom, distance *int64) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, ok := h.cursors.Dir(info.Handle)
	if !ok {
		return vfs.Fail
	}
	name := filepath.Base(info.Path)
	db, ok := h.cache.Peek(dir)
	if !ok {
		return vfs.Fail
	}

	var base int64
	switch pos {
	case vfs.SeekBegin:
		base = 0
	case vfs.SeekCurrent:
		base = h.cursors.GetOrZero(info.Handle)
	case vfs.SeekEnd:
		base = db.Size(name)
	}

	final := base + *distance
	h.cursors.Set(info.Handle, final)
	*distance = final
	h.record("FileSeek", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileTruncateToCursor implements §4.3.6's first variant, preserving the
// substr(offset=1, length=cursor) call exactly as specified rather than
// correcting its suspected off-by-one (see §9, governed only by the
// round-trip property in §8, which this implementation does not attempt to
// satisfy by "fixing" the arithmetic).
func (h *Handler) FileTruncateToCursor(info vfs.FileInfo) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, ok := h.cursors.Dir(info.Handle)
	if !ok {
		return vfs.Fail
	}
	name := filepath.Base(info.Path)
	cursor := h.cursors.GetOrZero(info.Handle)

	if cursor == 0 {
		return h.truncateTo(dir, name, info.Handle, 0)
	}

	db, ok := h.cache.Peek(dir)
	if !ok {
		return vfs.Fail
	}
	if err := db.Truncate(1, cursor, name); err != nil {
		h.record("FileTruncateToCursor", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}
	h.record("FileTruncateToCursor", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileTruncate implements §4.3.6's second variant.
func (h *Handler) FileTruncate(info vfs.FileInfo, length uint64) vfs.FileIntent {
	if !h.intercepted(info) {
		return vfs.Passthru
	}
	dir, ok := h.cursors.Dir(info.Handle)
	if !ok {
		return vfs.Fail
	}
	name := filepath.Base(info.Path)
	return h.truncateTo(dir, name, info.Handle, int64(length))
}

// truncateTo is the length==0 logical-delete fast path plus the generic
// shrink (substr, same §9 caveat) / grow (zero-blob reopen, same shape as
// the write grow path) cases shared by both truncate variants.
func (h *Handler) truncateTo(dir, name string, handle int64, length int64) vfs.FileIntent {
	db, ok := h.cache.Peek(dir)
	if !ok {
		return vfs.Fail
	}

	if length == 0 {
		if _, err := db.Delete(name); err != nil {
			h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.record("FileTruncate", dir, name, handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	unlock := db.LockGrow()
	defer unlock()

	// Resolving rowid is the source's own gate here (GetBlobRowIDStmt's
	// fetch callback simply never fires for an absent row). A truncate
	// naming a virtual file with no row at all is a silent no-op, not an
	// implicit create.
	rowid, rowExists := db.RowID(name)
	if !rowExists {
		h.record("FileTruncate", dir, name, handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}
	size := db.Size(name)

	if length < size {
		if err := db.Truncate(1, length, name); err != nil {
			h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
			return vfs.Fail
		}
		h.record("FileTruncate", dir, name, handle, "SUCCEED", 0, nil)
		return vfs.Succeed
	}

	if length > size {
		var old []byte
		if size > 0 {
			blob, err := db.OpenBlob(rowid, false)
			if err != nil {
				h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
				return vfs.Fail
			}
			old = make([]byte, size)
			err = blob.ReadAt(old, 0)
			blob.Close()
			if err != nil {
				h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
				return vfs.Fail
			}
		}

		newRowID, err := db.UpsertZeroBlob(name, length)
		if err != nil {
			h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
			return vfs.Fail
		}

		if len(old) > 0 {
			blob, err := db.OpenBlob(newRowID, true)
			if err != nil {
				h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
				return vfs.Fail
			}
			err = blob.WriteAt(old, 0)
			blob.Close()
			if err != nil {
				h.record("FileTruncate", dir, name, handle, "FAIL", 0, err)
				return vfs.Fail
			}
		}
	}

	h.record("FileTruncate", dir, name, handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileDelete implements §4.3.7: success is decided by RowsChanged, not by
// prior existence. A row present but already NULL reports FAIL.
func (h *Handler) FileDelete(path string) vfs.FileIntent {
	if !shouldIntercept(h.ops, path) {
		return vfs.Passthru
	}
	dir, name := splitPath(path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileDelete", dir, name, 0, "FAIL", 0, err)
		return vfs.Fail
	}
	defer h.cache.Release(dir)

	rowsChanged, err := db.Delete(name)
	if err != nil {
		h.record("FileDelete", dir, name, 0, "FAIL", 0, err)
		return vfs.Fail
	}
	if rowsChanged == 0 {
		h.record("FileDelete", dir, name, 0, "FAIL", 0, nil)
		return vfs.Fail
	}
	h.record("FileDelete", dir, name, 0, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileSetAttrib persists no attribute state; it only reports whether this
// module is responsible for path.
func (h *Handler) FileSetAttrib(path string) vfs.FileIntent {
	if !shouldIntercept(h.ops, path) {
		return vfs.Passthru
	}
	return vfs.Succeed
}

// FileGetSize implements §4.3.7's size query. A stateless query on a path
// with no open handle is served by a transient Acquire/Release; a stateful
// query on an already-open handle reuses the reference that handle's Open
// call holds.
func (h *Handler) FileGetSize(info vfs.FileInfo, size *uint64, isStateless bool) vfs.FileIntent {
	intercepting := h.intercepted(info)
	if isStateless && !intercepting {
		return vfs.Passthru
	}

	name := filepath.Base(info.Path)

	if dir, ok := h.cursors.Dir(info.Handle); ok {
		if db, ok := h.cache.Peek(dir); ok {
			*size = uint64(db.Size(name))
			h.record("FileGetSize", dir, name, info.Handle, "SUCCEED", 0, nil)
			return vfs.Succeed
		}
	}

	dir := filepath.Dir(info.Path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileGetSize", dir, name, info.Handle, "FAIL", 0, err)
		return vfs.Fail
	}
	defer h.cache.Release(dir)

	*size = uint64(db.Size(name))
	h.record("FileGetSize", dir, name, info.Handle, "SUCCEED", 0, nil)
	return vfs.Succeed
}

// FileGetAttrib implements §4.3.7's attribute query, importing an
// unimported real file the same way the Open family does.
func (h *Handler) FileGetAttrib(path string) vfs.FileAttribute {
	if !shouldIntercept(h.ops, path) {
		return vfs.AttrPassthru
	}
	dir, name := splitPath(path)
	db, err := h.cache.Acquire(dir)
	if err != nil {
		h.record("FileGetAttrib", dir, name, 0, "FAIL", 0, err)
		return vfs.AttrNotFound
	}
	defer h.cache.Release(dir)

	if db.Exists(name) {
		h.record("FileGetAttrib", dir, name, 0, "SUCCEED", 0, nil)
		return vfs.AttrNormal
	}

	if h.ops.FileExists(path) {
		if err := h.importFile(db, path, name); err != nil {
			h.record("FileGetAttrib", dir, name, 0, "FAIL", 0, err)
			return vfs.AttrNotFound
		}
		h.record("FileGetAttrib", dir, name, 0, "SUCCEED", 0, nil)
		return vfs.AttrNormal
	}

	return vfs.AttrNotFound
}

// FileGetTimes always answers from the real file, never the DB. It does
// resolve (and release) the directory's SaveDB first when the path would
// be intercepted, preserving that lookup's lazy-creation side effect per
// §9 even though its result is discarded.
func (h *Handler) FileGetTimes(path string) vfs.FileTimes {
	if shouldIntercept(h.ops, path) {
		dir := filepath.Dir(path)
		if _, err := h.cache.Acquire(dir); err == nil {
			h.cache.Release(dir)
		}
	}

	times, err := h.ops.GetFileTimes(path)
	if err != nil {
		return vfs.FileTimes{}
	}
	return times
}

// FileClosed removes handle's cursor and releases the cache reference its
// Open call acquired. The SaveDB itself is not closed here; its lifetime is
// the handler's, not any one handle's.
func (h *Handler) FileClosed(info vfs.FileInfo) {
	dir, ok := h.cursors.Dir(info.Handle)
	h.cursors.Remove(info.Handle)
	if !ok {
		return
	}
	h.cache.Release(dir)
	h.record("FileClosed", dir, filepath.Base(info.Path), info.Handle, "SUCCEED", 0, nil)
}
