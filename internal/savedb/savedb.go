// Package savedb provides one SaveDB instance per containing directory: a
// sqlengine.Conn pre-populated with the files(name, data) schema and the
// six prepared statements the call handler needs to serve reads, writes,
// truncates, and deletes against name-keyed blob rows.
package savedb

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dbfsio/dbfs/internal/sqlengine"
)

// DBFilename is the fixed name of the database file inside every
// intercepted directory. Treat it as a contract: changing it breaks
// discovery of already-written directories.
const DBFilename = "ZomboidSQLite.db"

const (
	Table   = "files"
	DataCol = "data"
)

const schema = `CREATE TABLE IF NOT EXISTS files (name TEXT PRIMARY KEY, data BLOB)`

// Statement indices, in declaration order. The order matters only in that
// it must match the Prepare calls in Open; callers address statements by
// these named indices, not raw integers.
const (
	stmtGetRowID = iota
	stmtExists
	stmtUpsert
	stmtSize
	stmtTruncate
	stmtDelete
)

// SaveDB bundles one directory's connection and its six statements. growMu
// serializes the grow-path sequence (read-old / zero-blob / reopen /
// write-old-back / write-new) and the import-from-real-file upsert per
// directory, keeping each atomic per (SaveDB, name). A single per-SaveDB lock is sufficient since names
// within one directory never need concurrent grow paths in practice.
type SaveDB struct {
	conn   *sqlengine.Conn
	dir    string
	growMu sync.Mutex
}

// LockGrow acquires the grow-path lock; callers must Unlock via the
// returned func when the sequence completes.
func (db *SaveDB) LockGrow() (unlock func()) {
	db.growMu.Lock()
	return db.growMu.Unlock
}

// Open creates or opens the SaveDB for the given containing directory,
// applying schema and preparing all six statements. When reapEmptyDirs is
// set, the on-closed hook removes dir from the real filesystem if it is
// empty after Close.
func Open(dir string, reapEmptyDirs bool) (*SaveDB, error) {
	path := filepath.Join(dir, DBFilename)
	conn, err := sqlengine.Open(path, schema)
	if err != nil {
		return nil, fmt.Errorf("savedb: open %s: %w", dir, err)
	}

	db := &SaveDB{conn: conn, dir: dir}

	if err := db.prepareAll(); err != nil {
		conn.Close()
		return nil, err
	}

	if reapEmptyDirs {
		conn.OnClosed = func() {
			entries, err := os.ReadDir(dir)
			if err == nil && len(entries) == 0 {
				_ = os.Remove(dir)
			}
		}
	}

	return db, nil
}

func (db *SaveDB) prepareAll() error {
	queries := []string{
		"SELECT rowid FROM files WHERE name = ?",
		"SELECT COUNT(1) FROM files WHERE name = ? AND data IS NOT NULL",
		"INSERT OR REPLACE INTO files(name, data) VALUES(?1, ?2)",
		"SELECT length(data) FROM files WHERE name = ?",
		"UPDATE files SET data = substr(data, ?1, ?2) WHERE name = ?3",
		"UPDATE files SET data = NULL WHERE name = ?1 AND data IS NOT NULL",
	}
	for _, q := range queries {
		if _, err := db.conn.Prepare(q); err != nil {
			return fmt.Errorf("savedb: prepare: %w", err)
		}
	}
	return nil
}

// Dir returns the containing directory this SaveDB serves.
func (db *SaveDB) Dir() string {
	return db.dir
}

// Exists reports whether name has a row with non-NULL data. A NULL data
// column (the shape a logical delete leaves behind) reads as absent, so
// that a deleted file is indistinguishable from one that was never there
// and a later open against the same name reimports it. The filter added
// here beyond the literal statement text is what makes that hold (see
// DESIGN.md).
func (db *SaveDB) Exists(name string) bool {
	var exists bool
	db.conn.Statement(stmtExists).Execute(func(r sqlengine.Row) {
		exists = r.Bool(0)
	}, name)
	return exists
}

// RowID resolves name to its rowid. ok is false if no row exists.
func (db *SaveDB) RowID(name string) (rowid int64, ok bool) {
	db.conn.Statement(stmtGetRowID).Execute(func(r sqlengine.Row) {
		rowid = r.Int64(0)
		ok = true
	}, name)
	return rowid, ok
}

// Upsert inserts or replaces name's row with data as its blob payload.
func (db *SaveDB) Upsert(name string, data []byte) error {
	return db.conn.Statement(stmtUpsert).ExecuteNoRow(name, data)
}

// UpsertZeroBlob allocates a fresh, zero-filled blob of size bytes for
// name, returning the new row's rowid via LastInsertRowID.
func (db *SaveDB) UpsertZeroBlob(name string, size int64) (rowid int64, err error) {
	if err := db.conn.Statement(stmtUpsert).ExecuteNoRow(name, sqlengine.ZeroBlob{Size: size}); err != nil {
		return 0, err
	}
	return db.conn.LastInsertRowID(), nil
}

// Size returns the current blob length for name via length(data).
func (db *SaveDB) Size(name string) int64 {
	var size int64
	db.conn.Statement(stmtSize).Execute(func(r sqlengine.Row) {
		size = r.Int64(0)
	}, name)
	return size
}

// Truncate runs the substr-truncate statement, keeping length bytes from
// offset (both 1-based, matching the schema's substr semantics exactly as
// specified; see DESIGN.md for why offset is not adjusted to 0-based).
func (db *SaveDB) Truncate(offset, length int64, name string) error {
	return db.conn.Statement(stmtTruncate).ExecuteNoRow(offset, length, name)
}

// Delete logically deletes name (sets data = NULL) and reports whether any
// row was actually touched. A row whose data is already NULL is not
// touched, so deleting an already-deleted name reports 0.
func (db *SaveDB) Delete(name string) (rowsChanged int, err error) {
	if err := db.conn.Statement(stmtDelete).ExecuteNoRow(name); err != nil {
		return 0, err
	}
	return db.conn.RowsChanged(), nil
}

// OpenBlob opens an incremental blob handle on name's data column. rowid
// must already be resolved by the caller (via RowID or the row ID returned
// from an upsert).
func (db *SaveDB) OpenBlob(rowid int64, write bool) (*sqlengine.Blob, error) {
	return db.conn.OpenBlob(Table, DataCol, rowid, write)
}

// Close compacts and closes the underlying connection, firing the
// empty-directory reap hook.
func (db *SaveDB) Close() error {
	return db.conn.Close()
}
