package ignore

import "path/filepath"

// Stack is the sequence of ignore-pattern layers active at a given
// directory during a scan, innermost last, implementing Git's
// repository-boundary and layer-precedence rules.
type Stack struct {
	global     Matcher
	insideRepo bool
	layers     []*PatternMatcher
}

// NewStack builds a Stack with no layers yet. global is applied whenever
// no directory-ignore layer expresses an opinion (or, outside any
// repository, not at all — see Decide).
func NewStack(global Matcher) *Stack {
	if global == nil {
		global = &noOpMatcher{}
	}
	return &Stack{global: global}
}

// SetInsideRepo marks whether the scan root was determined (by walking
// its ancestors for a .git boundary) to lie inside a Git repository.
func (s *Stack) SetInsideRepo(v bool) {
	s.insideRepo = v
}

// InsideRepo reports the current repository-boundary state.
func (s *Stack) InsideRepo() bool {
	return s.insideRepo
}

// Push appends a new innermost layer, compiled from patterns.
func (s *Stack) Push(patterns []string) {
	s.layers = append(s.layers, NewPatternMatcher(patterns))
}

// Reset clears all layers and pushes patterns as the sole layer — used
// when a directory visited mid-walk contains its own .git, marking a new
// repository boundary.
func (s *Stack) Reset(patterns []string) {
	s.layers = s.layers[:0]
	s.insideRepo = true
	s.Push(patterns)
}

// Pop removes the innermost layer, used when the walker backs out of a
// directory it pushed a layer for.
func (s *Stack) Pop() {
	if len(s.layers) > 0 {
		s.layers = s.layers[:len(s.layers)-1]
	}
}

// Depth returns the number of active layers, so callers can pop back to a
// known depth after a repository-boundary Reset.
func (s *Stack) Depth() int {
	return len(s.layers)
}

// Clone returns an independent copy of s: the layer slice is copied so
// the clone's Push/Pop/Reset cannot affect the original. This is what
// lets a parallel directory walker give each subdirectory its own ignore
// stack derived from its parent's, since each directory visit owns its
// traversal state rather than sharing it across siblings.
func (s *Stack) Clone() *Stack {
	layers := make([]*PatternMatcher, len(s.layers))
	copy(layers, s.layers)
	return &Stack{
		global:     s.global,
		insideRepo: s.insideRepo,
		layers:     layers,
	}
}

// VisitDir applies the per-directory-visited rule: if dir contains its own
// .git, the stack resets to a single new layer (a new repository
// boundary); otherwise, if already inside a repository, dir's own ignore
// files are appended as a new innermost layer. Outside a repository,
// nothing is pushed. It returns only an error from loading dir's ignore
// files, in which case the stack is left unchanged; callers compare Depth
// before/after if they need to know how the stack changed.
func (s *Stack) VisitDir(dir string) error {
	patterns, err := LoadDirIgnoreFiles(dir)
	if err != nil {
		return err
	}

	if hasGitDir(dir) {
		s.Reset(patterns)
		return nil
	}
	if s.insideRepo {
		s.Push(patterns)
	}
	return nil
}

// Decide applies the innermost-layer-wins retention rule to relPath
// (relative to the scan root). true means retain, false means drop.
func (s *Stack) Decide(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)

	if !s.insideRepo {
		return true
	}

	ignoreLayer, whitelistLayer := -1, -1
	for i := len(s.layers) - 1; i >= 0; i-- {
		layerIdx := len(s.layers) - 1 - i
		ignored, negated := s.layers[i].verdict(relPath, isDir)
		if ignored && ignoreLayer == -1 {
			ignoreLayer = layerIdx
		}
		if negated && whitelistLayer == -1 {
			whitelistLayer = layerIdx
		}
	}

	globalIgnored := s.global.Match(relPath, isDir)

	switch {
	case ignoreLayer == -1 && whitelistLayer == -1:
		return !globalIgnored
	case ignoreLayer == -1 && whitelistLayer != -1:
		return true
	case ignoreLayer != -1 && whitelistLayer == -1:
		return false
	default:
		return whitelistLayer < ignoreLayer
	}
}

// DetectAncestry walks up from root's parent directories to the
// filesystem root, checking each for a .git boundary. If any ancestor has
// one, root is deemed inside a Git repository and every ancestor's own
// ignore files (ordered outermost first, so the one closest to root is
// pushed last / innermost) are returned for preloading onto a Stack
// before the walk begins descending from root itself.
func DetectAncestry(root string) (insideRepo bool, layers [][]string, err error) {
	var ancestors []string
	seen := make(map[string]bool)

	dir := filepath.Dir(root)
	for !seen[dir] {
		seen[dir] = true
		ancestors = append(ancestors, dir)
		if hasGitDir(dir) {
			insideRepo = true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if !insideRepo {
		return false, nil, nil
	}

	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}

	for _, a := range ancestors {
		patterns, loadErr := LoadDirIgnoreFiles(a)
		if loadErr != nil {
			return false, nil, loadErr
		}
		layers = append(layers, patterns)
	}
	return true, layers, nil
}
