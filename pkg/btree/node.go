package btree

import (
	"encoding/binary"
	"errors"

	"github.com/ericzhang631/os-project3/pkg/block"
)

const (
	// MaxKeys is the maximum number of keys in a node: order 20, minimum
	// degree t=10, so up to 2t-1 = 19 keys and 2t = 20 children.
	MaxKeys = 19

	// MinKeys is the minimum number of keys a non-root node must carry
	// once the tree has been touched by at least one split (t-1 = 9).
	MinKeys = 9

	// fieldCount is the number of u64 fields serialized per node:
	// block_id, parent_id, num_keys, 19 keys, 19 values, 20 children.
	fieldCount = 3 + MaxKeys + MaxKeys + (MaxKeys + 1)

	// encodedSize is fieldCount u64s; the remainder of the 512-byte
	// block is reserved padding, written zero and ignored on read.
	encodedSize = fieldCount * 8
)

// ErrBadNodeLen is returned by Decode when given a slice that isn't
// exactly one block in size.
var ErrBadNodeLen = errors.New("btree: node data is not one block in size")

// Node is one B-tree node: its in-memory shape matches its on-disk
// shape field-for-field, so Encode/Decode only ever touch fixed-size
// arrays.
type Node struct {
	BlockID  uint64
	ParentID uint64
	NumKeys  uint64
	Keys     [MaxKeys]uint64
	Values   [MaxKeys]uint64
	Children [MaxKeys + 1]uint64
}

// newNode returns an otherwise-empty node for the given block id.
func newNode(blockID uint64) *Node {
	return &Node{BlockID: blockID}
}

// IsLeaf reports whether n has no children at all; non-leaf nodes
// always carry NumKeys+1 non-zero children.
func (n *Node) IsLeaf() bool {
	for _, c := range n.Children {
		if c != 0 {
			return false
		}
	}
	return true
}

// Encode serializes n to exactly one 512-byte block, big-endian
// throughout, with trailing reserved bytes set to zero.
func (n *Node) Encode() []byte {
	buf := make([]byte, block.Size)
	w := buf

	put := func(v uint64) {
		binary.BigEndian.PutUint64(w, v)
		w = w[8:]
	}

	put(n.BlockID)
	put(n.ParentID)
	put(n.NumKeys)
	for _, k := range n.Keys {
		put(k)
	}
	for _, v := range n.Values {
		put(v)
	}
	for _, c := range n.Children {
		put(c)
	}

	return buf
}

// Decode deserializes one 512-byte block into a Node.
func Decode(data []byte) (*Node, error) {
	if len(data) != block.Size {
		return nil, ErrBadNodeLen
	}

	r := data
	get := func() uint64 {
		v := binary.BigEndian.Uint64(r)
		r = r[8:]
		return v
	}

	n := &Node{}
	n.BlockID = get()
	n.ParentID = get()
	n.NumKeys = get()
	for i := range n.Keys {
		n.Keys[i] = get()
	}
	for i := range n.Values {
		n.Values[i] = get()
	}
	for i := range n.Children {
		n.Children[i] = get()
	}

	return n, nil
}
