// Package scanner walks a directory tree in parallel, applying the
// ignore engine's retention rules and emitting entry.Entry values through
// a bounded channel. It is a streaming producer: a walker type holding the
// scan root, the output channel and the global matcher, and a recursive
// walk that visits each subdirectory on its own goroutine and fans file
// hashing out to a bounded pool.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kitzbergerg/syncron/internal/entry"
	"github.com/kitzbergerg/syncron/internal/ignore"
	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/syncerr"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers bounds concurrent file hashing when Options.MaxWorkers
// is left at zero.
const DefaultMaxWorkers = 8

// entryChannelCapacity is the scanner's emission channel's buffer size,
// giving producers room to run ahead of a slow consumer before blocking.
const entryChannelCapacity = 256

// Options configures a single scan.
type Options struct {
	// Root is the directory to walk. It is never itself emitted.
	Root string
	// ExcludePatterns are global ignore patterns. Like every ignore rule
	// they apply only inside a Git repository, and only to paths on which
	// no directory ignore layer has an opinion (see ignore.Stack.Decide).
	ExcludePatterns []string
	// CustomIgnoreFile, if set, is an additional ignore-pattern source;
	// a missing file is a fatal IgnoreConfig error.
	CustomIgnoreFile string
	// MaxWorkers bounds concurrent file hashing; DefaultMaxWorkers is used
	// when <= 0.
	MaxWorkers int
}

// Scan walks opts.Root and returns a channel of retained descendant
// entries plus a channel that receives at most one error: either the
// fatal IgnoreConfig failure from pattern assembly (in which case the
// entry channel is closed immediately with no entries), an error wrapping
// syncerr.ErrScanAborted and the context's error if ctx was cancelled
// during the walk, or nil, closed once the walk has fully drained.
// Per-entry I/O errors are logged and skipped; they do not appear on the
// error channel.
func Scan(ctx context.Context, opts Options) (<-chan entry.Entry, <-chan error) {
	entries := make(chan entry.Entry, entryChannelCapacity)
	errc := make(chan error, 1)

	global, err := ignore.NewGlobalMatcher(opts.ExcludePatterns, opts.CustomIgnoreFile)
	if err != nil {
		close(entries)
		errc <- fmt.Errorf("%w: %v", syncerr.ErrIgnoreConfig, err)
		close(errc)
		return entries, errc
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	w := &walker{
		root:    opts.Root,
		entries: entries,
		global:  global,
	}

	go func() {
		defer close(entries)
		defer close(errc)

		insideRepo, layers, err := ignore.DetectAncestry(opts.Root)
		if err != nil {
			logger.Warn("Failed to detect repository ancestry", "root", opts.Root, "error", err)
		}

		stack := ignore.NewStack(global)
		stack.SetInsideRepo(insideRepo)
		for _, l := range layers {
			stack.Push(l)
		}

		// Two groups, deliberately not one: walkers is unbounded (a
		// directory visit is cheap and recurses into more walkers, so
		// bounding it risks every slot being held by a walker blocked
		// waiting for a child walker's slot to free — classic
		// bounded-recursion deadlock). hashers is bounded to MaxWorkers
		// since file hashing is the actual CPU/IO-bound work worth
		// throttling.
		walkers, gctx := errgroup.WithContext(ctx)
		hashers, hctx := errgroup.WithContext(ctx)
		hashers.SetLimit(maxWorkers)

		walkers.Go(func() error {
			return w.walkDir(gctx, hctx, opts.Root, nil, stack, walkers, hashers)
		})

		walkErr := walkers.Wait()
		hashErr := hashers.Wait()
		if walkErr != nil {
			errc <- fmt.Errorf("%w: %w", syncerr.ErrScanAborted, walkErr)
		} else if hashErr != nil {
			errc <- fmt.Errorf("%w: %w", syncerr.ErrScanAborted, hashErr)
		}
	}()

	return entries, errc
}

// walker holds the state shared across all goroutines of a single scan.
type walker struct {
	root    string
	entries chan<- entry.Entry
	global  ignore.Matcher
}

// walkDir lists dir, decides retention for each child against stack, and
// for retained children either recurses (directories, on walkers) or
// dispatches hashing onto hashers (files). relSegments is dir's path
// relative to w.root, as segments; it is nil for the root itself.
//
// stack is the parent's stack and is only read here: walkDir clones it
// (Stack carries no internal concurrency guard) and applies dir's own
// ignore layer to the clone, which each child walker clones in turn, so
// sibling visits never share a stack they mutate.
func (w *walker) walkDir(walkCtx, hashCtx context.Context, dir string, relSegments []string, stack *ignore.Stack, walkers, hashers *errgroup.Group) error {
	local := stack.Clone()
	if err := local.VisitDir(dir); err != nil {
		logger.Warn("Failed to load ignore files", "dir", dir, "error", err)
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("Failed to read directory", "dir", dir, "error", err)
		return nil
	}

	for _, child := range children {
		select {
		case <-walkCtx.Done():
			return walkCtx.Err()
		default:
		}

		childPath := filepath.Join(dir, child.Name())
		childSegments := append(append([]string{}, relSegments...), child.Name())
		relPath := filepath.Join(childSegments...)

		info, statErr := os.Stat(childPath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				// Broken symlink: skip silently.
				continue
			}
			logger.Warn("Failed to stat entry", "path", childPath, "error", statErr)
			continue
		}

		if !local.Decide(relPath, info.IsDir()) {
			continue
		}

		if info.IsDir() {
			childDir, segmentsCopy := childPath, childSegments
			e, err := entry.FromPath(childDir)
			if err != nil {
				logger.Warn("Failed to build directory entry", "path", childDir, "error", err)
				continue
			}
			if !w.send(walkCtx, e) {
				return walkCtx.Err()
			}
			walkers.Go(func() error {
				return w.walkDir(walkCtx, hashCtx, childDir, segmentsCopy, local, walkers, hashers)
			})
			continue
		}

		path := childPath
		hashers.Go(func() error {
			return w.hashFile(hashCtx, path)
		})
	}

	return nil
}

// hashFile computes the entry for path and sends it. Per-file I/O errors
// are logged and do not abort the scan.
func (w *walker) hashFile(ctx context.Context, path string) error {
	e, err := entry.FromPath(path)
	if err != nil {
		logger.Warn("Failed to hash file", "path", path, "error", err)
		return nil
	}

	if !w.send(ctx, e) {
		return ctx.Err()
	}
	return nil
}

// send delivers e on the entry channel, respecting cancellation. It
// returns false if the context was cancelled before the send completed.
func (w *walker) send(ctx context.Context, e entry.Entry) bool {
	select {
	case w.entries <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
