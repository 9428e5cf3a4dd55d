// Package entry provides the typed record for one filesystem object — a
// file or a directory — carrying the content-addressed hash the tree
// package uses as its leaf value.
package entry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kitzbergerg/syncron/internal/syncerr"
	"github.com/zeebo/blake3"
)

// HashSize is the size in bytes of a BLAKE3 digest.
const HashSize = 32

// readBufferSize is the chunk size used to stream file contents into the
// hasher. Buffers are pooled to avoid an allocation per file in a scan that
// may touch tens of thousands of them.
const readBufferSize = 256 * 1024

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, readBufferSize)
		return &buf
	},
}

// Kind distinguishes the two shapes an Entry can take.
type Kind int

const (
	// KindFile marks a regular file entry.
	KindFile Kind = iota
	// KindDirectory marks a directory entry.
	KindDirectory
)

// Entry is a tagged record for one filesystem object. Its Hash covers the
// entry's basename so that a rename changes the hash even when the
// underlying bytes do not.
type Entry struct {
	path         string
	kind         Kind
	hash         [HashSize]byte
	lastModified uint64
	size         int64
}

// FromPath classifies path as a file or directory and builds its Entry.
// Symlinks are resolved to their target's kind (os.Stat, not os.Lstat):
// a symlink to a directory is classified as a directory, a symlink to a
// regular file as a file. A broken symlink (or any other missing path)
// fails with an error satisfying errors.Is(err, fs.ErrNotExist), which
// callers treat as "skip this entry" rather than a scan-aborting error.
// Files are hashed as basename || contents; directories are hashed as
// basename alone, with a zero last-modified that the tree recomputes on
// insertion. Anything else resolvable but neither (devices, sockets,
// FIFOs) fails with syncerr.ErrUnsupportedKind.
func FromPath(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, syncerr.Io("stat", path, err)
	}

	switch {
	case info.Mode().IsDir():
		return fromDir(path)
	case info.Mode().IsRegular():
		return fromFile(path, info.Size(), info.ModTime())
	default:
		return Entry{}, fmt.Errorf("%s: %w", path, syncerr.ErrUnsupportedKind)
	}
}

func fromDir(path string) (Entry, error) {
	h := blake3.New()
	if _, err := h.Write([]byte(filepath.Base(path))); err != nil {
		return Entry{}, syncerr.Io("hash", path, err)
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))

	return Entry{
		path:         path,
		kind:         KindDirectory,
		hash:         sum,
		lastModified: 0,
	}, nil
}

func fromFile(path string, size int64, modTime time.Time) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, syncerr.Io("open", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := h.Write([]byte(filepath.Base(path))); err != nil {
		return Entry{}, syncerr.Io("hash", path, err)
	}

	bufPtr, _ := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, err := h.Write(buf[:n]); err != nil {
				return Entry{}, syncerr.Io("hash", path, err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Entry{}, syncerr.Io("read", path, readErr)
		}
	}

	var sum [HashSize]byte
	copy(sum[:], h.Sum(nil))

	return Entry{
		path:         path,
		kind:         KindFile,
		hash:         sum,
		lastModified: uint64(modTime.Unix()),
		size:         size,
	}, nil
}

// New builds an Entry directly from already-known fields, for callers
// such as tests that need fixture entries without touching disk. The
// scanner does not use it; it builds every entry with FromPath.
func New(path string, kind Kind, hash [HashSize]byte, lastModified uint64, size int64) Entry {
	return Entry{path: path, kind: kind, hash: hash, lastModified: lastModified, size: size}
}

// Path returns the entry's absolute path.
func (e Entry) Path() string { return e.path }

// Hash returns the entry's 32-byte BLAKE3 digest.
func (e Entry) Hash() [HashSize]byte { return e.hash }

// LastModified returns seconds since epoch (0 for a fresh directory entry).
func (e Entry) LastModified() uint64 { return e.lastModified }

// Size returns the entry's size in bytes (0 for directories).
func (e Entry) Size() int64 { return e.size }

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.kind == KindDirectory }

// Kind returns the entry's tag.
func (e Entry) Kind() Kind { return e.kind }
