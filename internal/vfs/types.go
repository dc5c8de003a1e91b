// Package vfs defines the boundary types and interfaces shared between the
// call handler (the core) and its two external collaborators: the real
// filesystem (FileOps) and whatever intercepts host OS calls and forwards
// them here (OSCallHandler).
package vfs

import "time"

// FileIntent is the core's verdict on an intercepted call: synthesize a
// result (SUCCEED/FAIL) or defer to the real OS (PASSTHRU).
type FileIntent int

const (
	Succeed FileIntent = iota
	Fail
	Passthru
)

func (i FileIntent) String() string {
	switch i {
	case Succeed:
		return "SUCCEED"
	case Fail:
		return "FAIL"
	case Passthru:
		return "PASSTHRU"
	default:
		return "UNKNOWN"
	}
}

// SeekFrom mirrors the POSIX whence values the host call passes through.
type SeekFrom int

const (
	SeekBegin SeekFrom = iota
	SeekCurrent
	SeekEnd
)

// FileAttribute is the result of a stateless attribute query.
type FileAttribute int

const (
	AttrNormal FileAttribute = iota
	AttrDirectory
	AttrNotFound
	AttrPassthru
)

// FileInfo identifies one open-or-opening call: the path the host named and
// the opaque handle it is using (or about to use) for it. Handles are
// supplied by the interception glue; the core never generates one.
type FileInfo struct {
	Path   string
	Handle int64
}

// FileTimes holds a file's creation, modification, and access times as
// time.Time values, at whatever resolution the FileOps implementation
// reports; they are not truncated to whole seconds.
type FileTimes struct {
	CreationTime time.Time
	LastModified time.Time
	LastAccessed time.Time
}

// OSCallHandler is implemented by the call handler and driven by the
// interception glue. Every method is safe to call from any goroutine; the
// handler serializes what needs serializing internally.
type OSCallHandler interface {
	FileOpenOnly(info FileInfo) FileIntent
	FileCreateOnly(info FileInfo) FileIntent
	FileOpenOrCreate(info FileInfo) FileIntent
	FileCreateAndWipe(info FileInfo) FileIntent
	FileOpenOnlyAndWipe(info FileInfo) FileIntent

	// FileRead clamps *readLen down to what is actually available and
	// reads that many bytes into buf.
	FileRead(info FileInfo, buf []byte, readLen *uint32) FileIntent
	FileWrite(info FileInfo, buf []byte, writeLen *uint32) FileIntent
	FileSeek(info FileInfo, pos SeekFrom, distance *int64) FileIntent
	FileTruncateToCursor(info FileInfo) FileIntent
	FileTruncate(info FileInfo, length uint64) FileIntent

	FileDelete(path string) FileIntent
	FileSetAttrib(path string) FileIntent
	FileGetSize(info FileInfo, size *uint64, isStateless bool) FileIntent
	FileGetAttrib(path string) FileAttribute
	FileGetTimes(path string) FileTimes

	FileClosed(info FileInfo)
}

// MemMappedFile is a read-only view of a real file's bytes, used only to
// import existing on-disk files into a SaveDB row the first time they are
// seen by the core.
type MemMappedFile interface {
	Data() []byte
	Close() error
}

// FileOps is the real-filesystem collaborator the core consults for
// pass-through existence checks, import, and timestamp queries. It is never
// used to satisfy an intercepted read/write; those are served entirely
// from the SaveDB.
type FileOps interface {
	FileExists(path string) bool
	MemMapFile(path string) (MemMappedFile, error)
	GetFileTimes(path string) (FileTimes, error)
}
