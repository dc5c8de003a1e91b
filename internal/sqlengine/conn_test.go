package sqlengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS files (name TEXT PRIMARY KEY, data BLOB)`

func openTest(t *testing.T) *Conn {
	t.Helper()
	dir := t.TempDir()
	conn, err := Open(filepath.Join(dir, "test.db"), testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOpenCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	conn, err := Open(path, testSchema)
	require.NoError(t, err)
	defer conn.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file not created")
	}
}

func TestPrepareAndExecuteRoundTrip(t *testing.T) {
	conn := openTest(t)

	upsertIdx, err := conn.Prepare("INSERT OR REPLACE INTO files(name, data) VALUES(?1, ?2)")
	require.NoError(t, err)
	sizeIdx, err := conn.Prepare("SELECT length(data) FROM files WHERE name = ?")
	require.NoError(t, err)

	require.NoError(t, conn.Statement(upsertIdx).ExecuteNoRow("a.bin", []byte("hello")))

	var size int64
	err = conn.Statement(sizeIdx).Execute(func(r Row) {
		size = r.Int64(0)
	}, "a.bin")
	require.NoError(t, err)
	require.EqualValues(t, 5, size)
}

func TestZeroBlobAllocatesSize(t *testing.T) {
	conn := openTest(t)

	upsertIdx, err := conn.Prepare("INSERT OR REPLACE INTO files(name, data) VALUES(?1, ?2)")
	require.NoError(t, err)

	require.NoError(t, conn.Statement(upsertIdx).ExecuteNoRow("z.bin", ZeroBlob{Size: 16}))
	rowid := conn.LastInsertRowID()
	require.NotZero(t, rowid)

	blob, err := conn.OpenBlob("files", "data", rowid, false)
	require.NoError(t, err)
	defer blob.Close()
	require.EqualValues(t, 16, blob.Size())
}

func TestOnClosedFiresAfterClose(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(filepath.Join(dir, "test.db"), testSchema)
	require.NoError(t, err)

	fired := false
	conn.OnClosed = func() { fired = true }

	require.NoError(t, conn.Close())
	require.True(t, fired)
}
