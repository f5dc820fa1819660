package table

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"vqlite/pager"
)

// BTree is the root-anchored search and maintenance layer over a Pager.
// The root's physical page number never changes (it is always 0), even
// as the tree grows: growing the tree copies the old root's contents
// into a freshly allocated page and reinitializes the old root page in
// place as the new internal root. This keeps external references to the
// root stable across splits — see createNewRoot.
type BTree struct {
	pager       *pager.Pager
	rootPageNum uint32
	log         *logrus.Logger
}

// RootPageNum is always 0 for this engine.
const RootPageNum = 0

// ErrTableFull is returned when an insertion would require splitting an
// internal node. Internal-node splitting is not implemented; growth stops
// at that point rather than corrupting the tree.
var ErrTableFull = errors.New("table: internal node is full (internal-node splitting is not implemented)")

// OpenBTree wraps an existing Pager. If the file is empty, page 0 is
// initialized as an empty root leaf.
func OpenBTree(p *pager.Pager, log *logrus.Logger) (*BTree, error) {
	bt := &BTree{pager: p, rootPageNum: RootPageNum, log: log}
	if p.NumPages() == 0 {
		root, err := p.GetPage(RootPageNum)
		if err != nil {
			return nil, err
		}
		InitializeLeaf(root)
		SetIsRoot(root, true)
	}
	return bt, nil
}

// Find descends from the root and returns the (page, cell) pair that
// either holds key or is the position at which an insert(key) would place
// it.
func (bt *BTree) Find(key uint32) (pageNum uint32, cellNum uint32, err error) {
	pageNum = bt.rootPageNum
	for {
		page, err := bt.pager.GetPage(pageNum)
		if err != nil {
			return 0, 0, err
		}
		if NodeTypeOf(page) == NodeTypeLeaf {
			return pageNum, LeafFindCell(page, key), nil
		}
		idx := InternalFindChild(page, key)
		pageNum = InternalChild(page, idx)
	}
}

// leftmostLeaf descends child(0) from pageNum until it reaches a leaf,
// returning that leaf's page number.
func (bt *BTree) leftmostLeaf(pageNum uint32) (uint32, error) {
	for {
		page, err := bt.pager.GetPage(pageNum)
		if err != nil {
			return 0, err
		}
		if NodeTypeOf(page) == NodeTypeLeaf {
			return pageNum, nil
		}
		pageNum = InternalChild(page, 0)
	}
}

// internalNodeInsert adds childPageNum's slot to the node at parentPageNum,
// per the spec's internal_node_insert algorithm: the new child's max key
// determines where it sorts; if it exceeds the current rightmost child's
// max key it becomes the new right child and the former right child is
// appended as a regular cell, otherwise it is spliced in at its sorted
// position.
func (bt *BTree) internalNodeInsert(parentPageNum, childPageNum uint32) error {
	parent, err := bt.pager.GetPage(parentPageNum)
	if err != nil {
		return err
	}
	child, err := bt.pager.GetPage(childPageNum)
	if err != nil {
		return err
	}
	childMaxKey := GetNodeMaxKey(child)

	rightChildPageNum := InternalRightChild(parent)
	oldNumKeys := InternalNumKeys(parent)

	if oldNumKeys >= uint32(InternalNodeMaxCells) {
		bt.log.WithFields(logrus.Fields{"parent": parentPageNum, "num_keys": oldNumKeys}).
			Warn("internal node full, cannot insert child")
		return ErrTableFull
	}

	index := InternalFindChild(parent, childMaxKey)
	SetInternalNumKeys(parent, oldNumKeys+1)

	rightChild, err := bt.pager.GetPage(rightChildPageNum)
	if err != nil {
		return err
	}
	rightMaxKey := GetNodeMaxKey(rightChild)

	if childMaxKey > rightMaxKey {
		// New child becomes the rightmost; former right child is demoted
		// to an ordinary cell at the end.
		SetInternalChild(parent, oldNumKeys, rightChildPageNum)
		SetInternalKey(parent, oldNumKeys, rightMaxKey)
		SetInternalRightChild(parent, childPageNum)
	} else {
		// Shift cells [index, oldNumKeys) one slot right, then splice in.
		for i := oldNumKeys; i > index; i-- {
			copy(InternalCellBytes(parent, i), InternalCellBytes(parent, i-1))
		}
		SetInternalChild(parent, index, childPageNum)
		SetInternalKey(parent, index, childMaxKey)
	}
	SetParentPageNum(child, parentPageNum)
	return nil
}

// createNewRoot grows the tree by one level. The old root (whichever page
// RootPageNum currently names) just split into two nodes; this copies the
// old root's entire contents into a freshly allocated page (the new left
// child) and reinitializes the old root page in place as an internal
// node with one key, pointing at the two children. The root's physical
// page number is therefore invariant across growth.
func (bt *BTree) createNewRoot(rightChildPageNum uint32) error {
	oldRoot, err := bt.pager.GetPage(bt.rootPageNum)
	if err != nil {
		return err
	}

	leftChildPageNum := bt.pager.GetUnusedPageNum()
	leftChild, err := bt.pager.GetPage(leftChildPageNum)
	if err != nil {
		return err
	}
	leftChild.Data = oldRoot.Data
	SetIsRoot(leftChild, false)
	leftMaxKey := GetNodeMaxKey(leftChild)

	InitializeInternal(oldRoot)
	SetIsRoot(oldRoot, true)
	SetInternalNumKeys(oldRoot, 1)
	SetInternalChild(oldRoot, 0, leftChildPageNum)
	SetInternalKey(oldRoot, 0, leftMaxKey)
	SetInternalRightChild(oldRoot, rightChildPageNum)

	rightChild, err := bt.pager.GetPage(rightChildPageNum)
	if err != nil {
		return err
	}
	SetParentPageNum(leftChild, bt.rootPageNum)
	SetParentPageNum(rightChild, bt.rootPageNum)
	return nil
}
