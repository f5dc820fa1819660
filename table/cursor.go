package table

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Cursor is a positional reference (page, cell) over the leaf sequence,
// used both for sequential scans and as the handle insertion operates
// through.
type Cursor struct {
	tree       *BTree
	PageNum    uint32
	CellNum    uint32
	EndOfTable bool
}

// TableStart returns a cursor positioned at the first row in key order.
func (bt *BTree) TableStart() (*Cursor, error) {
	leafPageNum, err := bt.leftmostLeaf(bt.rootPageNum)
	if err != nil {
		return nil, err
	}
	page, err := bt.pager.GetPage(leafPageNum)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		tree:       bt,
		PageNum:    leafPageNum,
		CellNum:    0,
		EndOfTable: LeafNumCells(page) == 0,
	}, nil
}

// CursorAt builds a cursor directly from a (page, cell) pair, as returned
// by BTree.Find.
func (bt *BTree) CursorAt(pageNum, cellNum uint32) (*Cursor, error) {
	page, err := bt.pager.GetPage(pageNum)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		tree:       bt,
		PageNum:    pageNum,
		CellNum:    cellNum,
		EndOfTable: cellNum >= LeafNumCells(page),
	}, nil
}

// Advance moves the cursor to the next cell, following the leaf's
// next_leaf_page_num link when the current leaf is exhausted.
func (c *Cursor) Advance() error {
	page, err := c.tree.pager.GetPage(c.PageNum)
	if err != nil {
		return err
	}
	c.CellNum++
	if c.CellNum < LeafNumCells(page) {
		return nil
	}
	next := LeafNextLeaf(page)
	if next == 0 {
		c.EndOfTable = true
		return nil
	}
	c.PageNum = next
	c.CellNum = 0
	return nil
}

// Read deserializes the row at the cursor's current position.
func (c *Cursor) Read() (Row, error) {
	page, err := c.tree.pager.GetPage(c.PageNum)
	if err != nil {
		return Row{}, err
	}
	return DeserializeRow(LeafValueBytes(page, c.CellNum))
}

// Key returns the key at the cursor's current position.
func (c *Cursor) Key() (uint32, error) {
	page, err := c.tree.pager.GetPage(c.PageNum)
	if err != nil {
		return 0, err
	}
	return LeafKey(page, c.CellNum), nil
}

// Insert places key/row at the cursor's leaf position. The caller (the
// engine facade) must already have confirmed key is not a duplicate;
// Insert does not re-check. When the target leaf is full this splits it
// and propagates the split upward, possibly growing a new root.
func (c *Cursor) Insert(key uint32, row Row) error {
	page, err := c.tree.pager.GetPage(c.PageNum)
	if err != nil {
		return err
	}

	if LeafNumCells(page) < uint32(LeafNodeMaxCells) {
		for i := LeafNumCells(page); i > c.CellNum; i-- {
			copy(LeafCellBytes(page, i), LeafCellBytes(page, i-1))
		}
		SetLeafKey(page, c.CellNum, key)
		if err := SerializeRow(row, LeafValueBytes(page, c.CellNum)); err != nil {
			return err
		}
		SetLeafNumCells(page, LeafNumCells(page)+1)
		return nil
	}

	return c.tree.splitAndInsert(c.PageNum, c.CellNum, key, row)
}

// splitAndInsert implements the spec's leaf split: the old leaf's cells,
// with the new cell virtually inserted at insertCellNum, are partitioned
// into LEFT_SPLIT_COUNT cells that stay in the old (left) leaf and
// RIGHT_SPLIT_COUNT cells that move to a freshly allocated (right) leaf.
func (bt *BTree) splitAndInsert(oldPageNum, insertCellNum, key uint32, row Row) error {
	oldPage, err := bt.pager.GetPage(oldPageNum)
	if err != nil {
		return err
	}

	total := int(LeafNodeMaxCells) + 1
	rightCount := (total + 1) / 2
	leftCount := total - rightCount

	oldMaxKey := GetNodeMaxKey(oldPage)
	wasRoot := IsRoot(oldPage)
	oldParent := ParentPageNum(oldPage)
	oldNextLeaf := LeafNextLeaf(oldPage)

	// A non-root leaf's split always inserts exactly one new cell into its
	// parent, and rewrites the parent's existing cell for oldPageNum (unless
	// oldPageNum is the parent's right child, which has no key slot to
	// rewrite). Internal-node splitting is not implemented (see the design
	// notes), so if the parent has no room for that new cell the split must
	// be rejected before anything is mutated — otherwise the tree would be
	// left with a leaf split from which no internal node points to the new
	// sibling. Likewise, the parent's key slot for oldPageNum (if any) is
	// located up front so a tree that is already corrupt is reported as an
	// error instead of being mutated further.
	if !wasRoot {
		parentPage, err := bt.pager.GetPage(oldParent)
		if err != nil {
			return err
		}
		if InternalNumKeys(parentPage) >= uint32(InternalNodeMaxCells) {
			bt.log.WithFields(logrus.Fields{"parent": oldParent}).Warn("leaf split rejected: parent internal node is full")
			return ErrTableFull
		}
		if idx := InternalFindChild(parentPage, oldMaxKey); idx != InternalNumKeys(parentPage) && InternalKey(parentPage, idx) != oldMaxKey {
			return errors.Errorf("table: split propagation: old key %d not found under parent %d", oldMaxKey, oldParent)
		}
	}

	newPageNum := bt.pager.GetUnusedPageNum()
	newPage, err := bt.pager.GetPage(newPageNum)
	if err != nil {
		return err
	}

	// Materialize the conceptual MAX+1 cells (old cells plus the new one)
	// in a scratch buffer first: directly rewriting oldPage in place while
	// reading from it would corrupt later reads, so we read everything we
	// need before mutating either page, walking indices high-to-low.
	type scratchCell struct {
		key   uint32
		value []byte
	}
	cellAt := func(i uint32) scratchCell {
		if i == insertCellNum {
			buf := make([]byte, leafCellSize-leafKeySize)
			if err := SerializeRow(row, buf); err != nil {
				panic(err) // validated by the engine before Insert is ever called
			}
			return scratchCell{key: key, value: buf}
		}
		src := i
		if i > insertCellNum {
			src = i - 1
		}
		return scratchCell{key: LeafKey(oldPage, src), value: append([]byte(nil), LeafValueBytes(oldPage, src)...)}
	}

	cells := make([]scratchCell, total)
	for i := total - 1; i >= 0; i-- {
		cells[i] = cellAt(uint32(i))
	}

	InitializeLeaf(newPage)
	for i := leftCount; i < total; i++ {
		dst := uint32(i - leftCount)
		SetLeafKey(newPage, dst, cells[i].key)
		copy(LeafValueBytes(newPage, dst), cells[i].value)
	}
	SetLeafNumCells(newPage, uint32(rightCount))
	SetParentPageNum(newPage, oldParent)
	SetLeafNextLeaf(newPage, oldNextLeaf)

	InitializeLeaf(oldPage)
	for i := 0; i < leftCount; i++ {
		SetLeafKey(oldPage, uint32(i), cells[i].key)
		copy(LeafValueBytes(oldPage, uint32(i)), cells[i].value)
	}
	SetLeafNumCells(oldPage, uint32(leftCount))
	SetParentPageNum(oldPage, oldParent)
	SetLeafNextLeaf(oldPage, newPageNum)

	if wasRoot {
		SetIsRoot(oldPage, true)
		return bt.createNewRoot(newPageNum)
	}

	SetIsRoot(oldPage, false)
	newMaxKey := GetNodeMaxKey(oldPage)
	parentPage, err := bt.pager.GetPage(oldParent)
	if err != nil {
		return err
	}
	if err := UpdateInternalNodeKey(parentPage, oldMaxKey, newMaxKey); err != nil {
		return errors.Wrap(err, "table: split propagation")
	}
	return bt.internalNodeInsert(oldParent, newPageNum)
}
