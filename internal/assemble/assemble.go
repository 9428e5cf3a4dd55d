// Package assemble wires the scanner and the path-tree together: it
// drains a Scan into a fully populated Tree, the composition every CLI
// command needs before it can read a root hash or run a diff. The tree,
// not the scanner, owns hash recomputation, so assembly is just "scan,
// then insert everything the scan emits."
package assemble

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kitzbergerg/syncron/internal/entry"
	"github.com/kitzbergerg/syncron/internal/scanner"
	"github.com/kitzbergerg/syncron/internal/tree"
)

// BuildTree scans opts.Root and returns a Tree containing every retained
// descendant, rooted at opts.Root's own entry. It fails if opts.Root's own
// entry cannot be built (for example a missing path), on any error the
// scan reports (the fatal IgnoreConfig error or an aborted scan), or on an
// insert failure (which would indicate a scanner/tree invariant
// violation, not an expected runtime condition).
func BuildTree(ctx context.Context, opts scanner.Options) (*tree.Tree, error) {
	rootEntry, err := entry.FromPath(opts.Root)
	if err != nil {
		return nil, err
	}

	t := tree.New(filepath.Base(filepath.Clean(opts.Root)), rootEntry)

	entries, errc := scanner.Scan(ctx, opts)
	for e := range entries {
		segments, err := relSegments(opts.Root, e.Path())
		if err != nil {
			return nil, err
		}
		if err := t.Insert(segments, e); err != nil {
			return nil, err
		}
	}

	if err := <-errc; err != nil {
		return nil, err
	}
	return t, nil
}

// relSegments splits path's position relative to root into path-tree
// segments. The scanner guarantees every directory entry reaches the
// consumer before any of its descendants (see scanner.walker.walkDir),
// so every prefix segments[:len-1] is already present in the tree by the
// time an Insert for segments is attempted.
func relSegments(root, path string) ([]string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}
	return strings.Split(filepath.ToSlash(rel), "/"), nil
}
