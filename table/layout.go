package table

import (
	"vqlite/column"
	"vqlite/pager"
)

// Node type tag stored in the first byte of every page.
type NodeType uint8

const (
	NodeTypeInternal NodeType = 0
	NodeTypeLeaf     NodeType = 1
)

// Common node header: node_type(1) + is_root(1) + parent_page_num(4).
const (
	commonNodeTypeOffset  = 0
	commonNodeTypeSize    = 1
	commonIsRootOffset    = commonNodeTypeOffset + commonNodeTypeSize
	commonIsRootSize      = 1
	commonParentPtrOffset = commonIsRootOffset + commonIsRootSize
	commonParentPtrSize   = 4
	commonHeaderSize      = commonParentPtrOffset + commonParentPtrSize // 6
)

// Leaf header additions: num_cells(4) + next_leaf_page_num(4).
const (
	leafNumCellsOffset = commonHeaderSize
	leafNumCellsSize   = 4
	leafNextLeafOffset = leafNumCellsOffset + leafNumCellsSize
	leafNextLeafSize   = 4
	leafHeaderSize     = leafNextLeafOffset + leafNextLeafSize // 14
)

// Leaf body: contiguous (key uint32, value RowSize bytes) cells.
const (
	leafKeySize       = 4
	leafCellSize      = leafKeySize + column.RowSize
	leafSpaceForCells = pager.PageSize - leafHeaderSize
)

// Internal header additions: num_keys(4) + right_child_page_num(4).
const (
	internalNumKeysOffset    = commonHeaderSize
	internalNumKeysSize      = 4
	internalRightChildOffset = internalNumKeysOffset + internalNumKeysSize
	internalRightChildSize   = 4
	internalHeaderSize       = internalRightChildOffset + internalRightChildSize // 14
)

// Internal body: (child_page_num uint32, key uint32) cells.
const (
	internalChildSize     = 4
	internalKeySize       = 4
	internalCellSize      = internalChildSize + internalKeySize // 8
	internalSpaceForCells = pager.PageSize - internalHeaderSize
)

// LeafNodeMaxCells is the natural capacity of a leaf page: 13 cells, which
// happens to match the figure the source pins for its own tests.
var LeafNodeMaxCells = leafSpaceForCells / leafCellSize

// InternalNodeMaxCells is the natural capacity of an internal page. Tests
// pin this low (the source uses 3) to exercise the ErrTableFull overflow path
// without growing a multi-megabyte tree; production code leaves it at the
// page-derived default.
var InternalNodeMaxCells = internalSpaceForCells / internalCellSize
