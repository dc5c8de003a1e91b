// Package sqlengine is a thin, typed façade over an embedded single-file
// SQL database with blob streaming support. It owns exactly one connection,
// a set of prepared statements bound to that connection, and the blob
// handles opened against it. Nothing here knows about directories, virtual
// files, or handles; that's savedb's and callhandler's job.
package sqlengine

import (
	"fmt"
	"sync"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

// Conn wraps one sqlite connection. Close runs VACUUM, closes the
// connection, then fires OnClosed, in that order, so the hook can safely
// touch the database file on disk (e.g. to remove its now-empty parent
// directory) without racing the connection's own teardown.
type Conn struct {
	mu       sync.Mutex
	raw      *sqlite.Conn
	path     string
	OnClosed func()

	statements []*Statement
}

// Open creates the database file if missing, applies schema (an idempotent
// "CREATE TABLE IF NOT EXISTS ..." script, may be empty), and switches on
// WAL journaling.
func Open(path string, schema string) (*Conn, error) {
	raw, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_CREATE)
	if err != nil {
		return nil, fmt.Errorf("sqlengine: open %s: %w", path, err)
	}

	c := &Conn{raw: raw, path: path}

	if schema != "" {
		if err := sqlitex.ExecScript(raw, schema); err != nil {
			raw.Close()
			return nil, fmt.Errorf("sqlengine: apply schema: %w", err)
		}
	}

	if err := sqlitex.ExecTransient(raw, "PRAGMA journal_mode=wal", nil); err != nil {
		raw.Close()
		return nil, fmt.Errorf("sqlengine: set wal mode: %w", err)
	}

	return c, nil
}

// Path returns the filesystem path this connection was opened against.
func (c *Conn) Path() string {
	return c.path
}

// Prepare compiles and registers a persistent statement, returning an
// opaque index used to look it up later via Statement. Declaration order is
// the statement's identity for callers that stash the returned index (see
// savedb), matching the source's "opaque index returned at prepare time"
// contract.
func (c *Conn) Prepare(query string) (int, error) {
	stmt, err := c.raw.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("sqlengine: prepare %q: %w", query, err)
	}
	c.statements = append(c.statements, &Statement{stmt: stmt})
	return len(c.statements) - 1, nil
}

// Statement returns the prepared statement registered at idx.
func (c *Conn) Statement(idx int) *Statement {
	return c.statements[idx]
}

// OpenBlob opens an incremental-I/O handle on (table, column, rowid).
func (c *Conn) OpenBlob(table, column string, rowid int64, write bool) (*Blob, error) {
	b, err := c.raw.OpenBlob("main", table, column, rowid, write)
	if err != nil {
		return nil, fmt.Errorf("sqlengine: open blob: %w", err)
	}
	return &Blob{raw: b}, nil
}

// LastInsertRowID is sqlite3_last_insert_rowid on this connection.
func (c *Conn) LastInsertRowID() int64 {
	return c.raw.LastInsertRowID()
}

// RowsChanged is sqlite3_changes on this connection: rows touched by the
// most recently completed statement.
func (c *Conn) RowsChanged() int {
	return c.raw.Changes()
}

// Close compacts the database, finalizes every prepared statement, closes
// the connection, and fires OnClosed, matching the ownership rule that
// statements are released before the connection closes.
func (c *Conn) Close() error {
	if err := sqlitex.ExecTransient(c.raw, "VACUUM", nil); err != nil {
		// A failed VACUUM does not prevent closing; the data is still
		// consistent, just not compacted.
		_ = err
	}

	c.finalizeAll()

	err := c.raw.Close()
	if c.OnClosed != nil {
		c.OnClosed()
	}
	if err != nil {
		return fmt.Errorf("sqlengine: close %s: %w", c.path, err)
	}
	return nil
}

func (c *Conn) finalizeAll() {
	for _, s := range c.statements {
		s.stmt.Finalize()
	}
}
