package table

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"vqlite/pager"
)

// Accessors in this file read and write node bytes directly in a page's
// Data buffer. They are the single source of truth for the on-disk
// layout: both the B+tree maintenance code and (if it existed) any other
// reader would go through these functions rather than duplicating offset
// arithmetic. Nodes are a tagged variant over {leaf, internal}; there is
// deliberately no inheritance, just accessors that dispatch on NodeType.

func le32(b []byte) uint32       { return binary.LittleEndian.Uint32(b) }
func putLE32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func boolByte(b byte) bool { return b != 0 }

func byteOfBool(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// --- common header ---

func NodeTypeOf(p *pager.Page) NodeType { return NodeType(p.Data[commonNodeTypeOffset]) }

func SetNodeType(p *pager.Page, t NodeType) { p.Data[commonNodeTypeOffset] = byte(t) }

func IsRoot(p *pager.Page) bool { return boolByte(p.Data[commonIsRootOffset]) }

func SetIsRoot(p *pager.Page, v bool) { p.Data[commonIsRootOffset] = byteOfBool(v) }

func ParentPageNum(p *pager.Page) uint32 {
	return le32(p.Data[commonParentPtrOffset : commonParentPtrOffset+commonParentPtrSize])
}

func SetParentPageNum(p *pager.Page, pageNum uint32) {
	putLE32(p.Data[commonParentPtrOffset:commonParentPtrOffset+commonParentPtrSize], pageNum)
}

// --- leaf header ---

func LeafNumCells(p *pager.Page) uint32 {
	return le32(p.Data[leafNumCellsOffset : leafNumCellsOffset+leafNumCellsSize])
}

func SetLeafNumCells(p *pager.Page, n uint32) {
	putLE32(p.Data[leafNumCellsOffset:leafNumCellsOffset+leafNumCellsSize], n)
}

func LeafNextLeaf(p *pager.Page) uint32 {
	return le32(p.Data[leafNextLeafOffset : leafNextLeafOffset+leafNextLeafSize])
}

func SetLeafNextLeaf(p *pager.Page, pageNum uint32) {
	putLE32(p.Data[leafNextLeafOffset:leafNextLeafOffset+leafNextLeafSize], pageNum)
}

// InitializeLeaf zeroes p and writes a fresh, empty non-root leaf header.
func InitializeLeaf(p *pager.Page) {
	p.Data = [pager.PageSize]byte{}
	SetNodeType(p, NodeTypeLeaf)
	SetIsRoot(p, false)
	SetLeafNumCells(p, 0)
	SetLeafNextLeaf(p, 0)
}

// --- leaf body ---

func leafCellOffset(cellNum uint32) uint32 { return leafHeaderSize + cellNum*leafCellSize }

// LeafCellBytes returns the raw key+value bytes for one cell slot.
func LeafCellBytes(p *pager.Page, cellNum uint32) []byte {
	off := leafCellOffset(cellNum)
	return p.Data[off : off+leafCellSize]
}

func LeafKey(p *pager.Page, cellNum uint32) uint32 {
	off := leafCellOffset(cellNum)
	return le32(p.Data[off : off+leafKeySize])
}

func SetLeafKey(p *pager.Page, cellNum uint32, key uint32) {
	off := leafCellOffset(cellNum)
	putLE32(p.Data[off:off+leafKeySize], key)
}

// LeafValueBytes returns the row-sized slice for one cell's value.
func LeafValueBytes(p *pager.Page, cellNum uint32) []byte {
	off := leafCellOffset(cellNum) + leafKeySize
	return p.Data[off : off+leafCellSize-leafKeySize]
}

// --- internal header ---

func InternalNumKeys(p *pager.Page) uint32 {
	return le32(p.Data[internalNumKeysOffset : internalNumKeysOffset+internalNumKeysSize])
}

func SetInternalNumKeys(p *pager.Page, n uint32) {
	putLE32(p.Data[internalNumKeysOffset:internalNumKeysOffset+internalNumKeysSize], n)
}

func InternalRightChild(p *pager.Page) uint32 {
	return le32(p.Data[internalRightChildOffset : internalRightChildOffset+internalRightChildSize])
}

func SetInternalRightChild(p *pager.Page, pageNum uint32) {
	putLE32(p.Data[internalRightChildOffset:internalRightChildOffset+internalRightChildSize], pageNum)
}

// InitializeInternal zeroes p and writes a fresh, empty non-root internal header.
func InitializeInternal(p *pager.Page) {
	p.Data = [pager.PageSize]byte{}
	SetNodeType(p, NodeTypeInternal)
	SetIsRoot(p, false)
	SetInternalNumKeys(p, 0)
	SetInternalRightChild(p, 0)
}

// --- internal body ---

func internalCellOffset(cellNum uint32) uint32 { return internalHeaderSize + cellNum*internalCellSize }

// InternalChild returns the child page number at position index, where
// index == InternalNumKeys(p) aliases the right child. Callers should use
// this single accessor rather than branching on the aliasing convention
// themselves.
func InternalChild(p *pager.Page, index uint32) uint32 {
	if index == InternalNumKeys(p) {
		return InternalRightChild(p)
	}
	off := internalCellOffset(index)
	return le32(p.Data[off : off+internalChildSize])
}

// SetInternalChild writes the child page number at position index, honoring
// the same right-child aliasing convention as InternalChild.
func SetInternalChild(p *pager.Page, index uint32, pageNum uint32) {
	if index == InternalNumKeys(p) {
		SetInternalRightChild(p, pageNum)
		return
	}
	off := internalCellOffset(index)
	putLE32(p.Data[off:off+internalChildSize], pageNum)
}

func InternalKey(p *pager.Page, index uint32) uint32 {
	off := internalCellOffset(index) + internalChildSize
	return le32(p.Data[off : off+internalKeySize])
}

func SetInternalKey(p *pager.Page, index uint32, key uint32) {
	off := internalCellOffset(index) + internalChildSize
	putLE32(p.Data[off:off+internalKeySize], key)
}

// InternalCellBytes returns the raw (child, key) bytes for one cell slot.
func InternalCellBytes(p *pager.Page, cellNum uint32) []byte {
	off := internalCellOffset(cellNum)
	return p.Data[off : off+internalCellSize]
}

// GetNodeMaxKey returns the key of a leaf's last cell, or an internal node's
// last stored key. For an internal node the right child's keys, which are
// larger, are not consulted. Callers must not invoke this on an empty node.
func GetNodeMaxKey(p *pager.Page) uint32 {
	switch NodeTypeOf(p) {
	case NodeTypeLeaf:
		return LeafKey(p, LeafNumCells(p)-1)
	default:
		return InternalKey(p, InternalNumKeys(p)-1)
	}
}

// LeafFindCell performs a binary search over a leaf's sorted keys, returning
// the index of an equal key, or the first index whose key is greater than
// target (the insertion point).
func LeafFindCell(p *pager.Page, key uint32) uint32 {
	lo, hi := uint32(0), LeafNumCells(p)
	for lo < hi {
		mid := lo + (hi-lo)/2
		k := LeafKey(p, mid)
		if k == key {
			return mid
		}
		if k < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// InternalFindChild returns the index of the first key >= target ("find_child"
// in the spec's terms). If every key is < target, the result equals
// InternalNumKeys(p), which InternalChild resolves to the right child.
func InternalFindChild(p *pager.Page, key uint32) uint32 {
	lo, hi := uint32(0), InternalNumKeys(p)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if InternalKey(p, mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// UpdateInternalNodeKey locates the child slot formerly keyed by oldKey and
// overwrites it with newKey. Used after a child's max key shifts, e.g. a
// leaf split that changes what the old leaf's maximum key is.
//
// idx == InternalNumKeys(p) means oldKey belonged to the right child, which
// is referenced by SetInternalRightChild rather than a key slot: there is no
// stored key to correct, so this is a no-op rather than a "not found" error.
func UpdateInternalNodeKey(p *pager.Page, oldKey, newKey uint32) error {
	idx := InternalFindChild(p, oldKey)
	if idx == InternalNumKeys(p) {
		return nil
	}
	if InternalKey(p, idx) != oldKey {
		return errors.Errorf("table: update_internal_node_key: old key %d not found", oldKey)
	}
	SetInternalKey(p, idx, newKey)
	return nil
}
