package savedb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesFixedFilename(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, DBFilename))
	require.NoError(t, err)
}

func TestUpsertAndExists(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	defer db.Close()

	require.False(t, db.Exists("a.bin"))
	require.NoError(t, db.Upsert("a.bin", []byte("payload")))
	require.True(t, db.Exists("a.bin"))
	require.EqualValues(t, len("payload"), db.Size("a.bin"))
}

func TestDeleteReportsRowsChanged(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Upsert("a.bin", []byte("x")))

	n, err := db.Delete("a.bin")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, db.Exists("a.bin"))

	n, err = db.Delete("a.bin")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestTruncateSubstrOffsetIsOneBased(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Upsert("a.bin", []byte("ABCDE")))

	// Matches the specified (suspected off-by-one) substr contract exactly:
	// offset=1, length=3 keeps bytes starting at SQL position 1, i.e. "ABC".
	require.NoError(t, db.Truncate(1, 3, "a.bin"))
	require.EqualValues(t, 3, db.Size("a.bin"))
}

func TestReapKeepsDirHoldingDatabase(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "sub")
	require.NoError(t, os.Mkdir(dir, 0o755))

	db, err := Open(dir, true)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// The database file itself stays in dir after Close, so dir is not
	// empty and the reap hook leaves it in place.
	_, err = os.Stat(filepath.Join(dir, DBFilename))
	require.NoError(t, err)
}

func TestNoReapWhenDisabled(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "sub")
	require.NoError(t, os.Mkdir(dir, 0o755))

	db, err := Open(dir, false)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(dir)
	require.NoError(t, err)
}

func TestOpenBlobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	defer db.Close()

	rowid, err := db.UpsertZeroBlob("a.bin", 4)
	require.NoError(t, err)

	blob, err := db.OpenBlob(rowid, true)
	require.NoError(t, err)
	require.NoError(t, blob.WriteAt([]byte("hi"), 2))
	require.NoError(t, blob.Close())

	got, ok := db.RowID("a.bin")
	require.True(t, ok)
	require.Equal(t, rowid, got)
}
