package table

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"vqlite/pager"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func openTestBTree(t *testing.T) *BTree {
	t.Helper()
	p, err := pager.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	bt, err := OpenBTree(p, testLogger())
	require.NoError(t, err)
	return bt
}

func insertRow(t *testing.T, bt *BTree, id uint32) {
	t.Helper()
	pageNum, cellNum, err := bt.Find(id)
	require.NoError(t, err)
	cursor, err := bt.CursorAt(pageNum, cellNum)
	require.NoError(t, err)
	row := Row{ID: id, Username: "user", Email: "user@example.com"}
	require.NoError(t, cursor.Insert(id, row))
}

func scanAll(t *testing.T, bt *BTree) []uint32 {
	t.Helper()
	cursor, err := bt.TableStart()
	require.NoError(t, err)
	var keys []uint32
	for !cursor.EndOfTable {
		k, err := cursor.Key()
		require.NoError(t, err)
		keys = append(keys, k)
		require.NoError(t, cursor.Advance())
	}
	return keys
}

func TestFreshRootIsEmptyLeaf(t *testing.T) {
	bt := openTestBTree(t)
	require.Empty(t, scanAll(t, bt))
}

func TestFindOnEmptyLeafReturnsInsertionPoint(t *testing.T) {
	bt := openTestBTree(t)
	pageNum, cellNum, err := bt.Find(42)
	require.NoError(t, err)
	require.EqualValues(t, RootPageNum, pageNum)
	require.EqualValues(t, 0, cellNum)
}

func TestInsertAndScanOrdered(t *testing.T) {
	bt := openTestBTree(t)
	ids := []uint32{5, 1, 3, 2, 4}
	for _, id := range ids {
		insertRow(t, bt, id)
	}
	require.Equal(t, []uint32{1, 2, 3, 4, 5}, scanAll(t, bt))
}

func TestLeafSplitGrowsRootIntoInternal(t *testing.T) {
	bt := openTestBTree(t)
	for id := uint32(1); id <= 14; id++ {
		insertRow(t, bt, id)
	}

	root, err := bt.pager.GetPage(RootPageNum)
	require.NoError(t, err)
	require.Equal(t, NodeTypeInternal, NodeTypeOf(root))
	require.True(t, IsRoot(root))
	require.EqualValues(t, 1, InternalNumKeys(root))

	keys := scanAll(t, bt)
	require.Len(t, keys, 14)
	for i, k := range keys {
		require.EqualValues(t, i+1, k)
	}

	left, err := bt.pager.GetPage(InternalChild(root, 0))
	require.NoError(t, err)
	right, err := bt.pager.GetPage(InternalRightChild(root))
	require.NoError(t, err)
	require.EqualValues(t, 14, LeafNumCells(left)+LeafNumCells(right))
	require.Equal(t, NodeTypeLeaf, NodeTypeOf(right))
}

func TestRootPageNumberStableAcrossSplit(t *testing.T) {
	bt := openTestBTree(t)
	for id := uint32(1); id <= 14; id++ {
		insertRow(t, bt, id)
	}
	require.EqualValues(t, RootPageNum, bt.rootPageNum)
}

func TestManyInsertsProduceTwoLevelTree(t *testing.T) {
	bt := openTestBTree(t)
	ids := []uint32{
		18, 7, 22, 3, 11, 1, 30, 25, 9, 14,
		2, 29, 5, 16, 27, 20, 13, 4, 24, 8,
		6, 19, 12, 15, 28, 21, 10, 17, 26, 23,
	}
	for _, id := range ids {
		insertRow(t, bt, id)
	}
	keys := scanAll(t, bt)
	require.Len(t, keys, 30)
	for i, k := range keys {
		require.EqualValues(t, i+1, k)
	}

	root, err := bt.pager.GetPage(RootPageNum)
	require.NoError(t, err)
	require.Equal(t, NodeTypeInternal, NodeTypeOf(root))
	for i := uint32(0); i <= InternalNumKeys(root); i++ {
		child, err := bt.pager.GetPage(InternalChild(root, i))
		require.NoError(t, err)
		require.Equal(t, NodeTypeLeaf, NodeTypeOf(child))
	}
}

func TestSequentialInsertsPastMultipleRightSplits(t *testing.T) {
	bt := openTestBTree(t)
	// Ascending inserts always land at the tail, so every split is a split
	// of the rightmost leaf: after the first (root) split, the leaf being
	// split is the parent's right_child, which has no key slot of its own
	// to correct.
	const n = 40
	for id := uint32(1); id <= n; id++ {
		insertRow(t, bt, id)
	}

	keys := scanAll(t, bt)
	require.Len(t, keys, n)
	for i, k := range keys {
		require.EqualValues(t, i+1, k)
	}

	root, err := bt.pager.GetPage(RootPageNum)
	require.NoError(t, err)
	require.Equal(t, NodeTypeInternal, NodeTypeOf(root))
}

func TestInternalNodeOverflowIsTableFull(t *testing.T) {
	bt := openTestBTree(t)
	old := InternalNodeMaxCells
	InternalNodeMaxCells = 3
	defer func() { InternalNodeMaxCells = old }()

	var lastErr error
	inserted := 0
	for id := uint32(1); id <= 200; id++ {
		pageNum, cellNum, err := bt.Find(id)
		require.NoError(t, err)
		cursor, err := bt.CursorAt(pageNum, cellNum)
		require.NoError(t, err)
		row := Row{ID: id, Username: "user", Email: "user@example.com"}
		if err := cursor.Insert(id, row); err != nil {
			lastErr = err
			break
		}
		inserted++
	}
	require.ErrorIs(t, lastErr, ErrTableFull)
	require.Less(t, inserted, 200)

	// Everything inserted before the ErrTableFull overflow is still intact and
	// ordered: overflow must never corrupt the tree.
	keys := scanAll(t, bt)
	require.Len(t, keys, inserted)
	for i, k := range keys {
		require.EqualValues(t, i+1, k)
	}
}
