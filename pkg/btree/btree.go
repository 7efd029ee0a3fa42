// Package btree implements the persistent B-tree of order 20 (minimum
// degree t=10) that sits on top of an indexfile.File: node
// serialization, root management, search, and split-on-descent insert.
package btree

import (
	"io"
	"log"
	"sync"

	metrics "github.com/armon/go-metrics"

	"github.com/ericzhang631/os-project3/pkg/indexfile"
)

// Tree is a B-tree backed by one open index file. Operations are
// serialized with an in-process mutex; this guards against accidental
// concurrent calls from the same process but is not a substitute for
// the external cooperation required to keep multiple processes from
// touching the same file (see the Non-goals in the package's spec).
type Tree struct {
	mu   sync.Mutex
	file *indexfile.File
	log  *log.Logger
}

// New constructs a B-tree over an already-open index file. If the file
// has never been populated (RootBlockID == 0) an empty root is created
// immediately. A nil logger discards all operational log output.
func New(file *indexfile.File, logger *log.Logger) (*Tree, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Tree{file: file, log: logger}

	if file.RootBlockID == 0 {
		if err := t.createRoot(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// createRoot allocates a fresh, empty leaf node and makes it the root.
// The header is written twice on purpose: once by Allocate (so
// next_block_id survives a crash before the node itself is written),
// and once after root_block_id changes. The only observable
// inconsistency from dying between the two writes is a preallocated,
// unreachable node — harmless, since block ids are never reused.
func (t *Tree) createRoot() error {
	id, err := t.file.Allocate()
	if err != nil {
		return err
	}

	root := newNode(id)
	if err := t.saveNode(root); err != nil {
		return err
	}

	t.file.RootBlockID = id
	if err := t.file.WriteHeader(); err != nil {
		return err
	}

	t.log.Printf("btree: created root block=%d", id)
	return nil
}

func (t *Tree) loadNode(id uint64) (*Node, error) {
	raw, err := t.file.ReadBlock(id)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func (t *Tree) saveNode(n *Node) error {
	return t.file.WriteBlock(n.BlockID, n.Encode())
}

// Search returns the value stored for key, and whether key was found
// at all (a dedicated presence flag, since 0 is itself a legal value).
func (t *Tree) Search(key uint64) (value uint64, found bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics.IncrCounter([]string{"btree", "search"}, 1)

	root, err := t.loadNode(t.file.RootBlockID)
	if err != nil {
		return 0, false, err
	}
	return t.search(root, key)
}

func (t *Tree) search(node *Node, key uint64) (uint64, bool, error) {
	i := 0
	for i < int(node.NumKeys) && key > node.Keys[i] {
		i++
	}
	if i < int(node.NumKeys) && node.Keys[i] == key {
		return node.Values[i], true, nil
	}
	if node.IsLeaf() {
		return 0, false, nil
	}

	child, err := t.loadNode(node.Children[i])
	if err != nil {
		return 0, false, err
	}
	return t.search(child, key)
}

// Insert inserts key/value into the tree. A key that already exists
// is silently rejected: the tree is left unchanged and no error is
// signaled (see the duplicate-key open question this format resolves
// that way).
func (t *Tree) Insert(key, value uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics.IncrCounter([]string{"btree", "insert"}, 1)

	root, err := t.loadNode(t.file.RootBlockID)
	if err != nil {
		return err
	}

	// Reject a duplicate before any split, so that a rejected insert
	// allocates no blocks and moves no keys.
	if _, found, err := t.search(root, key); err != nil {
		return err
	} else if found {
		return nil
	}

	if root.NumKeys == MaxKeys {
		newRootID, err := t.file.Allocate()
		if err != nil {
			return err
		}
		newRoot := newNode(newRootID)
		newRoot.Children[0] = root.BlockID

		root.ParentID = newRoot.BlockID
		if err := t.saveNode(root); err != nil {
			return err
		}

		if err := t.splitChild(newRoot, 0); err != nil {
			return err
		}

		t.file.RootBlockID = newRoot.BlockID
		if err := t.file.WriteHeader(); err != nil {
			return err
		}
		root = newRoot
	}

	node := root
	for {
		if node.IsLeaf() {
			return t.insertIntoLeaf(node, key, value)
		}

		i := 0
		for i < int(node.NumKeys) && key > node.Keys[i] {
			i++
		}
		if i < int(node.NumKeys) && node.Keys[i] == key {
			// Key already present as a separator in this internal
			// node: reject the duplicate without touching the tree.
			return nil
		}

		child, err := t.loadNode(node.Children[i])
		if err != nil {
			return err
		}

		if child.NumKeys == MaxKeys {
			if err := t.splitChild(node, i); err != nil {
				return err
			}
			// splitChild just promoted a median into node.Keys[i]. The
			// search at the top of Insert has already rejected keys
			// present in the tree, so this equality is a guard only.
			if key == node.Keys[i] {
				return nil
			}
			if key > node.Keys[i] {
				i++
			}
			child, err = t.loadNode(node.Children[i])
			if err != nil {
				return err
			}
		}

		node = child
	}
}

func (t *Tree) insertIntoLeaf(node *Node, key, value uint64) error {
	i := 0
	for i < int(node.NumKeys) && node.Keys[i] < key {
		i++
	}
	if i < int(node.NumKeys) && node.Keys[i] == key {
		return nil
	}

	for j := int(node.NumKeys); j > i; j-- {
		node.Keys[j] = node.Keys[j-1]
		node.Values[j] = node.Values[j-1]
	}
	node.Keys[i] = key
	node.Values[i] = value
	node.NumKeys++

	return t.saveNode(node)
}

// splitChild splits the full child at parent.Children[i] into two
// halves, promoting the median key/value into parent at position i.
// It persists child, the new sibling, and parent itself.
func (t *Tree) splitChild(parent *Node, i int) error {
	child, err := t.loadNode(parent.Children[i])
	if err != nil {
		return err
	}

	const mid = MinKeys // 9, the 0-indexed median of 19 keys

	newChildID, err := t.file.Allocate()
	if err != nil {
		return err
	}
	newChild := newNode(newChildID)

	newCount := MaxKeys - mid - 1 // 9
	newChild.NumKeys = uint64(newCount)
	for j := 0; j < newCount; j++ {
		newChild.Keys[j] = child.Keys[mid+1+j]
		newChild.Values[j] = child.Values[mid+1+j]
	}
	// Ten child pointers move across; if child is a leaf they're all
	// zero already and newChild stays a leaf.
	for j := 0; j <= newCount; j++ {
		newChild.Children[j] = child.Children[mid+1+j]
	}

	for j := mid + 1; j < MaxKeys; j++ {
		child.Keys[j] = 0
		child.Values[j] = 0
	}
	for j := mid + 1; j <= MaxKeys; j++ {
		child.Children[j] = 0
	}
	child.NumKeys = mid

	newChild.ParentID = parent.BlockID
	child.ParentID = parent.BlockID

	medianKey := child.Keys[mid]
	medianValue := child.Values[mid]

	for j := int(parent.NumKeys) + 1; j > i+1; j-- {
		parent.Children[j] = parent.Children[j-1]
	}
	parent.Children[i+1] = newChild.BlockID

	for j := int(parent.NumKeys); j > i; j-- {
		parent.Keys[j] = parent.Keys[j-1]
		parent.Values[j] = parent.Values[j-1]
	}
	parent.Keys[i] = medianKey
	parent.Values[i] = medianValue

	child.Keys[mid] = 0
	child.Values[mid] = 0

	parent.NumKeys++

	if err := t.saveNode(child); err != nil {
		return err
	}
	if err := t.saveNode(newChild); err != nil {
		return err
	}
	if err := t.saveNode(parent); err != nil {
		return err
	}

	t.log.Printf("btree: split child=%d sibling=%d parent=%d median=%d", child.BlockID, newChild.BlockID, parent.BlockID, medianKey)
	metrics.IncrCounter([]string{"btree", "split"}, 1)

	return nil
}

// Close releases the underlying index file.
func (t *Tree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
