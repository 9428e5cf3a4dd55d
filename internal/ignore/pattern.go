// Package ignore provides `.gitignore`-equivalent pattern matching used to
// filter scanner candidates, split into two layers: PatternMatcher, the
// glob/negation engine for a single set of patterns, and Stack, the
// directory-ignore-stack that implements the repository-boundary and
// layer-precedence rules for nested ignore files.
package ignore

import (
	"path/filepath"
	"strings"
)

// globDoubleStar represents the "**" pattern that matches any number of
// directories.
const globDoubleStar = "**"

// Matcher determines if a path should be excluded from scanning.
type Matcher interface {
	// Match returns true if the path should be excluded.
	Match(path string, isDir bool) bool
}

// PatternMatcher matches paths against a flat set of exclusion patterns.
// Supports gitignore-style syntax: exact matches ("node_modules"),
// directory-only matches ("node_modules/"), globs ("*.log", "**/build"),
// and negation ("!keep.log").
type PatternMatcher struct {
	patterns []pattern
}

type pattern struct {
	raw        string
	isDirOnly  bool
	isNegation bool
	segments   []string
	hasGlob    bool
}

// NewPatternMatcher compiles patterns into a PatternMatcher. Empty lines
// and lines starting with "#" are treated as comments and skipped.
func NewPatternMatcher(patterns []string) *PatternMatcher {
	pm := &PatternMatcher{patterns: make([]pattern, 0, len(patterns))}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}

		pat := pattern{raw: p}

		if strings.HasPrefix(p, "!") {
			pat.isNegation = true
			p = strings.TrimPrefix(p, "!")
		}
		if strings.HasSuffix(p, "/") {
			pat.isDirOnly = true
			p = strings.TrimSuffix(p, "/")
		}

		p = filepath.ToSlash(p)
		pat.segments = strings.Split(p, "/")
		pat.hasGlob = strings.Contains(p, "*") || strings.Contains(p, "?")

		pm.patterns = append(pm.patterns, pat)
	}

	return pm
}

// Match returns true if path should be excluded: any pattern matching,
// unless a negation pattern also matches, in which case the negation wins.
func (pm *PatternMatcher) Match(path string, isDir bool) bool {
	ignored, negated := pm.verdict(path, isDir)
	if negated {
		return false
	}
	return ignored
}

// verdict reports, independently, whether some non-negated pattern
// matched (ignored) and whether some negated pattern matched (negated).
// A single layer can produce both signals at once; Stack.Decide is what
// resolves cross-layer precedence.
func (pm *PatternMatcher) verdict(path string, isDir bool) (ignored, negated bool) {
	path = filepath.ToSlash(path)
	pathSegments := strings.Split(path, "/")

	for _, pat := range pm.patterns {
		if pat.match(pathSegments, isDir) {
			if pat.isNegation {
				negated = true
			} else {
				ignored = true
			}
		}
	}
	return
}

func (p *pattern) match(pathSegments []string, isDir bool) bool {
	if p.isDirOnly && !isDir {
		return false
	}

	if !p.hasGlob && len(p.segments) == 1 {
		for _, seg := range pathSegments {
			if seg == p.segments[0] {
				return true
			}
		}
		return false
	}

	return p.matchSegments(pathSegments)
}

func (p *pattern) matchSegments(pathSegments []string) bool {
	patSegs := p.segments

	if len(patSegs) > 0 && patSegs[0] == globDoubleStar {
		if len(patSegs) == 1 {
			return true
		}
		remainingPat := patSegs[1:]
		for i := 0; i <= len(pathSegments); i++ {
			if matchSegmentsAt(pathSegments[i:], remainingPat) {
				return true
			}
		}
		return false
	}

	if len(patSegs) > 0 && patSegs[len(patSegs)-1] == globDoubleStar {
		return matchSegmentsAt(pathSegments, patSegs[:len(patSegs)-1])
	}

	return matchSegmentsAt(pathSegments, patSegs)
}

func matchSegmentsAt(pathSegs, patSegs []string) bool {
	if len(patSegs) == 0 {
		return true
	}
	if len(pathSegs) == 0 {
		return false
	}

	for i := 0; i <= len(pathSegs)-len(patSegs); i++ {
		matched := true
		for j := 0; j < len(patSegs); j++ {
			if !matchSegment(pathSegs[i+j], patSegs[j]) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func matchSegment(pathSeg, patSeg string) bool {
	if patSeg == pathSeg {
		return true
	}
	if strings.Contains(patSeg, "*") || strings.Contains(patSeg, "?") {
		return matchGlob(pathSeg, patSeg)
	}
	return false
}

// matchGlob performs simple glob matching: * matches any sequence, ?
// matches any single character.
func matchGlob(s, pattern string) bool {
	patternIdx, strIdx := 0, 0

	for patternIdx < len(pattern) && strIdx < len(s) {
		switch {
		case pattern[patternIdx] == '*':
			if patternIdx == len(pattern)-1 {
				return true
			}
			for i := strIdx; i <= len(s); i++ {
				if matchGlob(s[i:], pattern[patternIdx+1:]) {
					return true
				}
			}
			return false
		case pattern[patternIdx] == '?':
			patternIdx++
			strIdx++
		case pattern[patternIdx] == s[strIdx]:
			patternIdx++
			strIdx++
		default:
			return false
		}
	}

	for patternIdx < len(pattern) && pattern[patternIdx] == '*' {
		patternIdx++
	}

	return patternIdx == len(pattern) && strIdx == len(s)
}

// noOpMatcher never excludes anything; used when no patterns are configured.
type noOpMatcher struct{}

func (n *noOpMatcher) Match(path string, isDir bool) bool { return false }
