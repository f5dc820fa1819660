package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorAdvanceAcrossLeaves(t *testing.T) {
	bt := openTestBTree(t)
	for id := uint32(1); id <= 20; id++ {
		insertRow(t, bt, id)
	}

	cursor, err := bt.TableStart()
	require.NoError(t, err)

	var seen []uint32
	for !cursor.EndOfTable {
		row, err := cursor.Read()
		require.NoError(t, err)
		seen = append(seen, row.ID)
		require.NoError(t, cursor.Advance())
	}
	require.Len(t, seen, 20)
	for i, id := range seen {
		require.EqualValues(t, i+1, id)
	}
}

func TestCursorAtEndOfTableOnEmptyTree(t *testing.T) {
	bt := openTestBTree(t)
	cursor, err := bt.TableStart()
	require.NoError(t, err)
	require.True(t, cursor.EndOfTable)
}

func TestFindReturnsInsertionPointForMissingKey(t *testing.T) {
	bt := openTestBTree(t)
	insertRow(t, bt, 10)
	insertRow(t, bt, 30)

	pageNum, cellNum, err := bt.Find(20)
	require.NoError(t, err)
	cursor, err := bt.CursorAt(pageNum, cellNum)
	require.NoError(t, err)
	require.False(t, cursor.EndOfTable)
	key, err := cursor.Key()
	require.NoError(t, err)
	require.EqualValues(t, 30, key) // 20 would insert before the existing 30
}
