package engine_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"vqlite/engine"
	"vqlite/table"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func scanIDs(e *engine.Engine) []uint32 {
	var ids []uint32
	for row := range e.Scan() {
		ids = append(ids, row.ID)
	}
	return ids
}

func TestSingleRowRoundTripsThroughCloseReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	e, err := engine.Open(path, testLogger())
	require.NoError(t, err)

	result, err := e.Insert(table.Row{ID: 1, Username: "user1", Email: "person1@example.com"})
	require.NoError(t, err)
	require.Equal(t, engine.Success, result)

	require.NoError(t, e.Close())

	e2, err := engine.Open(path, testLogger())
	require.NoError(t, err)
	defer e2.Close()

	var rows []table.Row
	for row := range e2.Scan() {
		rows = append(rows, row)
	}
	require.Len(t, rows, 1)
	require.Equal(t, uint32(1), rows[0].ID)
	require.Equal(t, "user1", rows[0].Username)
	require.Equal(t, "person1@example.com", rows[0].Email)
}

func TestDuplicateInsertIsRejected(t *testing.T) {
	e, err := engine.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Insert(table.Row{ID: 1, Username: "a", Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, engine.Success, result)

	result, err = e.Insert(table.Row{ID: 1, Username: "b", Email: "b@x.com"})
	require.NoError(t, err)
	require.Equal(t, engine.DuplicateKey, result)

	require.Equal(t, []uint32{1}, scanIDs(e))
}

func TestOversizedUsernameIsInvalidRow(t *testing.T) {
	e, err := engine.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Insert(table.Row{ID: 1, Username: strings.Repeat("x", 33), Email: "a@x.com"})
	require.Error(t, err)
	require.Equal(t, engine.InvalidRow, result)
	require.Empty(t, scanIDs(e))
}

func TestThirtyRandomInsertsScanSortedAndPrintTree(t *testing.T) {
	e, err := engine.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	defer e.Close()

	order := []uint32{
		18, 7, 22, 3, 11, 1, 30, 25, 9, 14,
		2, 29, 5, 16, 27, 20, 13, 4, 24, 8,
		6, 19, 12, 15, 28, 21, 10, 17, 26, 23,
	}
	for _, id := range order {
		result, err := e.Insert(table.Row{ID: id, Username: "u", Email: "u@x.com"})
		require.NoError(t, err)
		require.Equal(t, engine.Success, result)
	}

	ids := scanIDs(e)
	require.Len(t, ids, 30)
	for i, id := range ids {
		require.EqualValues(t, i+1, id)
	}

	tree, err := e.PrintTree()
	require.NoError(t, err)
	require.Contains(t, tree, "internal")
	require.Contains(t, tree, "leaf")
}

func TestFind(t *testing.T) {
	e, err := engine.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Insert(table.Row{ID: 5, Username: "five", Email: "five@x.com"})
	require.NoError(t, err)

	row, ok, err := e.Find(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "five", row.Username)

	_, ok, err = e.Find(6)
	require.NoError(t, err)
	require.False(t, ok)
}
