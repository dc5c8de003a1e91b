package sqlengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobReadWriteAt(t *testing.T) {
	conn := openTest(t)
	upsertIdx, err := conn.Prepare("INSERT OR REPLACE INTO files(name, data) VALUES(?1, ?2)")
	require.NoError(t, err)
	require.NoError(t, conn.Statement(upsertIdx).ExecuteNoRow("w.bin", ZeroBlob{Size: 8}))
	rowid := conn.LastInsertRowID()

	blob, err := conn.OpenBlob("files", "data", rowid, true)
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, blob.WriteAt([]byte("AB"), 2))

	got := make([]byte, 4)
	require.NoError(t, blob.ReadAt(got, 0))
	require.Equal(t, []byte{0, 0, 'A', 'B'}, got)
}

func TestBlobReopenRepointsToNewRow(t *testing.T) {
	conn := openTest(t)
	upsertIdx, err := conn.Prepare("INSERT OR REPLACE INTO files(name, data) VALUES(?1, ?2)")
	require.NoError(t, err)

	require.NoError(t, conn.Statement(upsertIdx).ExecuteNoRow("a.bin", ZeroBlob{Size: 4}))
	firstRowID := conn.LastInsertRowID()

	blob, err := conn.OpenBlob("files", "data", firstRowID, true)
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, conn.Statement(upsertIdx).ExecuteNoRow("b.bin", ZeroBlob{Size: 8}))
	secondRowID := conn.LastInsertRowID()
	require.NotEqual(t, firstRowID, secondRowID)

	require.NoError(t, blob.Reopen(secondRowID))
	require.EqualValues(t, 8, blob.Size())
}
