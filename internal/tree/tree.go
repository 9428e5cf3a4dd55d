// Package tree implements the Merkle path-tree: an indexed, mutable
// hash-summary of a directory subtree keyed by path-segment sequences.
// Every public mutation leaves the tree in a state where interior hashes
// are always the BLAKE3 of their ordered children, and leaf hashes always
// equal their Entry's hash.
//
// The tree is a single-writer structure: all mutating methods require
// exclusive access from the caller. Concurrent readers are safe as long
// as no mutation is in flight, matching the assumption the underlying
// filesystem scan already makes.
package tree

import (
	"sort"
	"time"

	"github.com/kitzbergerg/syncron/internal/entry"
	"github.com/kitzbergerg/syncron/internal/syncerr"
	"github.com/zeebo/blake3"
)

// node is one tree node. Children are stored in a map for O(1) lookup;
// hash order is derived by sorting keys at recompute time rather than
// maintained incrementally, since directories rarely have enough entries
// for that to matter and re-sorting on every recompute keeps the logic
// simple.
type node struct {
	segment      string
	parent       *node
	children     map[string]*node
	hash         [entry.HashSize]byte
	lastModified uint64
	entry        entry.Entry
}

// Tree is a hash-summarized prefix tree rooted at a scan root.
type Tree struct {
	root *node
}

// New constructs a single-node tree. The root's hash and last-modified are
// taken directly from e.
func New(rootSegment string, e entry.Entry) *Tree {
	return &Tree{
		root: &node{
			segment:      rootSegment,
			children:     make(map[string]*node),
			hash:         e.Hash(),
			lastModified: e.LastModified(),
			entry:        e,
		},
	}
}

// Get navigates to segments and returns its Entry. An empty slice refers
// to the root node.
func (t *Tree) Get(segments []string) (entry.Entry, error) {
	n, err := t.navigate(segments)
	if err != nil {
		return entry.Entry{}, err
	}
	return n.entry, nil
}

// HashAt navigates to segments and returns its current hash.
func (t *Tree) HashAt(segments []string) ([entry.HashSize]byte, error) {
	n, err := t.navigate(segments)
	if err != nil {
		return [entry.HashSize]byte{}, err
	}
	return n.hash, nil
}

// RootHash returns the hash of the tree's root node.
func (t *Tree) RootHash() [entry.HashSize]byte {
	return t.root.hash
}

// RootLastModified returns the root node's last-modified timestamp.
func (t *Tree) RootLastModified() uint64 {
	return t.root.lastModified
}

// Insert attaches a new leaf at segments, which must be non-empty. The
// parent path (segments[:len-1]) must already exist and must not already
// have a child keyed by the final segment.
func (t *Tree) Insert(segments []string, e entry.Entry) error {
	if len(segments) == 0 {
		return syncerr.NotFound("insert", "")
	}

	prefix, last := segments[:len(segments)-1], segments[len(segments)-1]
	parent, err := t.navigate(prefix)
	if err != nil {
		return err
	}
	if _, exists := parent.children[last]; exists {
		return syncerr.AlreadyExists("insert", last)
	}

	child := &node{
		segment:      last,
		parent:       parent,
		children:     make(map[string]*node),
		hash:         e.Hash(),
		lastModified: e.LastModified(),
		entry:        e,
	}
	parent.children[last] = child

	recomputeChain(parent)
	return nil
}

// Update navigates to segments (which may be empty, referring to the
// root) and replaces its Entry. A leaf's hash becomes the new Entry's
// hash; an interior node's hash is unaffected since it is a function of
// its children, not its own Entry.
func (t *Tree) Update(segments []string, e entry.Entry) error {
	n, err := t.navigate(segments)
	if err != nil {
		return err
	}

	n.entry = e
	if len(n.children) == 0 {
		n.hash = e.Hash()
		n.lastModified = e.LastModified()
	}

	recomputeChain(n)
	return nil
}

// Remove detaches and destroys the subtree at segments, which must be
// non-empty.
func (t *Tree) Remove(segments []string) error {
	if len(segments) == 0 {
		return syncerr.NotFound("remove", "")
	}

	prefix, last := segments[:len(segments)-1], segments[len(segments)-1]
	parent, err := t.navigate(prefix)
	if err != nil {
		return err
	}
	if _, exists := parent.children[last]; !exists {
		return syncerr.NotFound("remove", last)
	}

	delete(parent.children, last)
	recomputeChain(parent)
	return nil
}

// navigate walks from the root by exact segment match.
func (t *Tree) navigate(segments []string) (*node, error) {
	n := t.root
	for _, seg := range segments {
		child, ok := n.children[seg]
		if !ok {
			return nil, syncerr.NotFound("navigate", seg)
		}
		n = child
	}
	return n, nil
}

// recomputeChain recomputes n and every ancestor up to the root.
func recomputeChain(n *node) {
	for ; n != nil; n = n.parent {
		recomputeNode(n)
	}
}

// recomputeNode recomputes an interior node's hash from its children: a
// childless node's hash is a property of its Entry and is left untouched;
// an interior node's hash becomes the BLAKE3 of its ordered children's
// (hash || segment) concatenations, and its last-modified becomes now.
func recomputeNode(n *node) {
	if len(n.children) == 0 {
		return
	}

	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := blake3.New()
	for _, k := range keys {
		child := n.children[k]
		h.Write(child.hash[:])
		h.Write([]byte(k))
	}

	var sum [entry.HashSize]byte
	copy(sum[:], h.Sum(nil))
	n.hash = sum
	n.lastModified = uint64(time.Now().Unix())
}

// sortedChildKeys returns n's children keys in the lexicographic order
// the hash is computed over.
func sortedChildKeys(n *node) []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NodeView is an immutable, recursively-copied snapshot of a tree node,
// used by the diff package so that a diff observes a stable view of both
// trees even if the caller later mutates them. Callers must still avoid
// concurrent mutation during a diff; View makes that easy to satisfy by
// taking the snapshot up front.
type NodeView struct {
	Segment      string
	Hash         [entry.HashSize]byte
	LastModified uint64
	Entry        entry.Entry
	Children     []NodeView
}

// View returns a read-only snapshot of the entire tree rooted at t.
func (t *Tree) View() NodeView {
	return viewOf(t.root)
}

func viewOf(n *node) NodeView {
	keys := sortedChildKeys(n)
	children := make([]NodeView, 0, len(keys))
	for _, k := range keys {
		children = append(children, viewOf(n.children[k]))
	}
	return NodeView{
		Segment:      n.segment,
		Hash:         n.hash,
		LastModified: n.lastModified,
		Entry:        n.entry,
		Children:     children,
	}
}

// IsLeaf reports whether the node view has no children.
func (v NodeView) IsLeaf() bool {
	return len(v.Children) == 0
}

// TotalSize sums the Size of every file leaf in the subtree rooted at v.
func (v NodeView) TotalSize() int64 {
	if v.IsLeaf() {
		return v.Entry.Size()
	}
	var total int64
	for _, c := range v.Children {
		total += c.TotalSize()
	}
	return total
}
