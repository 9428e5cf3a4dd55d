// Package diff computes the structural difference between two path-trees,
// recursing pair-wise over corresponding nodes and reporting disjoint
// change sets plus inferred moves, in the style of go-git's
// utils/merkletrie two-noder diff: a hash-keyed structural walk that
// short-circuits on equal root hashes and otherwise descends node by
// node.
package diff

import (
	"github.com/kitzbergerg/syncron/internal/entry"
	"github.com/kitzbergerg/syncron/internal/tree"
)

// Side identifies which replica a Change was observed on.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Change is a single path whose content differs between the two trees,
// reported against the side that is considered the source of truth for it.
type Change struct {
	Path  []string
	Entry entry.Entry
	Side  Side
}

// Move is an inferred move: the same content hash found at two distinct
// paths, one only on the left, one only on the right. Because an entry's
// hash covers its basename, paired paths share their final segment; a
// rename changes the hash and is reported as separate left and right
// changes, not as a Move.
type Move struct {
	LeftPath  []string
	RightPath []string
	Hash      [entry.HashSize]byte
}

// Result is the outcome of comparing two trees.
type Result struct {
	Identical bool
	Changed   []Change
	Moves     []Move
}

// Diff compares the full trees rooted at a and b. It is total: given two
// valid trees it always produces a Result, never an error.
func Diff(a, b *tree.Tree) Result {
	av, bv := a.View(), b.View()

	if av.Hash == bv.Hash {
		return Result{Identical: true}
	}

	var changed []Change
	diffNodes(nil, av, bv, &changed)

	return Result{
		Changed: changed,
		Moves:   findMoves(changed),
	}
}

// diffNodes implements the recursive node-pair comparison, appending
// Change entries for the subtree rooted at (a, b) to out. path is the
// segment sequence leading to a and b (they are assumed to correspond).
func diffNodes(path []string, a, b tree.NodeView, out *[]Change) {
	if a.Hash == b.Hash {
		return
	}

	switch {
	case a.IsLeaf() && b.IsLeaf():
		if a.LastModified > b.LastModified {
			*out = append(*out, Change{Path: clonePath(path), Entry: a.Entry, Side: Left})
		} else {
			// Equal timestamps fall through here: the right side wins a tie.
			*out = append(*out, Change{Path: clonePath(path), Entry: b.Entry, Side: Right})
		}

	case a.IsLeaf() && !b.IsLeaf():
		collectSubtree(path, b, Right, out)

	case !a.IsLeaf() && b.IsLeaf():
		collectSubtree(path, a, Left, out)

	default:
		mergeChildren(path, a, b, out)
	}
}

// mergeChildren performs a sorted-children linear merge: both a and b are
// interior nodes. Children are already sorted by NodeView.Segment
// (tree.View guarantees key order).
func mergeChildren(path []string, a, b tree.NodeView, out *[]Change) {
	i, j := 0, 0
	for i < len(a.Children) || j < len(b.Children) {
		switch {
		case j >= len(b.Children) || (i < len(a.Children) && a.Children[i].Segment < b.Children[j].Segment):
			collectSubtree(append(path, a.Children[i].Segment), a.Children[i], Left, out)
			i++
		case i >= len(a.Children) || b.Children[j].Segment < a.Children[i].Segment:
			collectSubtree(append(path, b.Children[j].Segment), b.Children[j], Right, out)
			j++
		default:
			diffNodes(append(path, a.Children[i].Segment), a.Children[i], b.Children[j], out)
			i++
			j++
		}
	}
}

// collectSubtree reports every leaf under n as a Change on the given side
// — used both for a leaf-vs-interior mismatch and for children present on
// only one side of a merge.
func collectSubtree(path []string, n tree.NodeView, side Side, out *[]Change) {
	if n.IsLeaf() {
		*out = append(*out, Change{Path: clonePath(path), Entry: n.Entry, Side: side})
		return
	}
	for _, c := range n.Children {
		collectSubtree(append(path, c.Segment), c, side, out)
	}
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}

// findMoves computes post-recursion move attribution: the intersection of
// content hashes appearing in a left-side Change and a right-side Change
// is an inferred move.
func findMoves(changed []Change) []Move {
	leftByHash := make(map[[entry.HashSize]byte][]string)
	rightByHash := make(map[[entry.HashSize]byte][]string)

	for _, c := range changed {
		h := c.Entry.Hash()
		if c.Side == Left {
			leftByHash[h] = c.Path
		} else {
			rightByHash[h] = c.Path
		}
	}

	var moves []Move
	for h, leftPath := range leftByHash {
		rightPath, ok := rightByHash[h]
		if !ok {
			continue
		}
		moves = append(moves, Move{LeftPath: leftPath, RightPath: rightPath, Hash: h})
	}
	return moves
}
