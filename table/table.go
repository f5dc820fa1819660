package table

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"vqlite/pager"
)

// Table holds the pager and the B+tree anchored at RootPageNum. It is the
// package's entry point: callers open one Table per database file.
type Table struct {
	Pager *pager.Pager
	Tree  *BTree
}

// Open opens (creating if absent) the file at path and prepares its
// B+tree, initializing a fresh root leaf if the file was empty.
func Open(path string, log *logrus.Logger) (*Table, error) {
	p, err := pager.Open(path, log)
	if err != nil {
		return nil, err
	}
	bt, err := OpenBTree(p, log)
	if err != nil {
		return nil, err
	}
	return &Table{Pager: p, Tree: bt}, nil
}

// Close flushes every resident page and closes the file.
func (t *Table) Close() error {
	return t.Pager.Close()
}

// PrintTree renders a pre-order diagnostic traversal of the tree: node
// type, size, and keys, indented by depth.
func (t *Table) PrintTree() (string, error) {
	var b strings.Builder
	if err := t.printNode(&b, t.Tree.rootPageNum, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Table) printNode(b *strings.Builder, pageNum uint32, depth int) error {
	page, err := t.Pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)
	if NodeTypeOf(page) == NodeTypeLeaf {
		numCells := LeafNumCells(page)
		fmt.Fprintf(b, "%sleaf (size %d)\n", indent, numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(b, "%s  - %d\n", indent, LeafKey(page, i))
		}
		return nil
	}

	numKeys := InternalNumKeys(page)
	fmt.Fprintf(b, "%sinternal (size %d)\n", indent, numKeys)
	for i := uint32(0); i < numKeys; i++ {
		child := InternalChild(page, i)
		if err := t.printNode(b, child, depth+1); err != nil {
			return err
		}
		fmt.Fprintf(b, "%s- key %d\n", indent, InternalKey(page, i))
	}
	return t.printNode(b, InternalRightChild(page), depth+1)
}
