package sqlengine

import (
	"fmt"
	"sync"

	"crawshaw.io/sqlite"
)

// ZeroBlob binds a zero-filled blob of Size bytes without transferring any
// payload over the wire, the same thing sqlite3_bind_zeroblob64 does.
type ZeroBlob struct {
	Size int64
}

// Row exposes typed column access for one fetched result row. Only the
// column kinds the core actually needs are implemented: blob bytes, bool,
// int, and int64. There is no generic template-driven dispatch here, just
// one small method per kind.
type Row struct {
	stmt *sqlite.Stmt
}

func (r Row) Blob(col int) []byte {
	n := r.stmt.ColumnLen(col)
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	r.stmt.ColumnBytes(col, buf)
	return buf
}

func (r Row) Bool(col int) bool {
	return r.stmt.ColumnInt(col) != 0
}

func (r Row) Int(col int) int {
	return r.stmt.ColumnInt(col)
}

func (r Row) Int64(col int) int64 {
	return r.stmt.ColumnInt64(col)
}

// Statement owns one persistent prepared statement. Every exit path resets
// it so it's reusable, and concurrent callers are linearized by mu, giving
// strict per-statement serialization.
type Statement struct {
	mu   sync.Mutex
	stmt *sqlite.Stmt
}

func bindArg(stmt *sqlite.Stmt, i int, arg any) error {
	switch v := arg.(type) {
	case string:
		stmt.BindText(i, v)
	case []byte:
		stmt.BindBytes(i, v)
	case int:
		stmt.BindInt64(i, int64(v))
	case int64:
		stmt.BindInt64(i, v)
	case ZeroBlob:
		stmt.BindZeroBlob(i, v.Size)
	default:
		return fmt.Errorf("sqlengine: unsupported bind argument type %T", arg)
	}
	return nil
}

// Execute binds args positionally (1-based, in call order), steps once, and
// if a row was produced, invokes fetch with it. If the statement finishes
// with no row, fetch is not called and Execute returns nil. Callers that
// need to distinguish "ran but found nothing" pass a fetch that flips a
// captured bool.
func (s *Statement) Execute(fetch func(Row), args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stmt.Reset()
	defer s.stmt.Reset()

	for i, arg := range args {
		if err := bindArg(s.stmt, i+1, arg); err != nil {
			return err
		}
	}

	hasRow, err := s.stmt.Step()
	if err != nil {
		return fmt.Errorf("sqlengine: step: %w", err)
	}
	if hasRow && fetch != nil {
		fetch(Row{stmt: s.stmt})
	}
	return nil
}

// ExecuteNoRow is Execute for statements that never return a row (the
// upsert, truncate, and delete statements).
func (s *Statement) ExecuteNoRow(args ...any) error {
	return s.Execute(nil, args...)
}
