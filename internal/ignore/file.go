package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/syncerr"
)

// globalIgnoreFilename is the repo-local override file checked alongside
// .gitignore.
const globalIgnoreFilename = ".syncronignore"

// readPatternLines reads newline-separated patterns from an open file,
// skipping blank lines and comments.
func readPatternLines(f *os.File) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// LoadDirIgnoreFiles loads a directory's own .syncronignore and .gitignore
// patterns, concatenated in that order into one list; neither file takes
// precedence over the other. A missing file is not an error; it simply
// contributes no patterns.
func LoadDirIgnoreFiles(dir string) ([]string, error) {
	var all []string
	for _, name := range []string{globalIgnoreFilename, ".gitignore"} {
		patterns, err := loadOptional(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = append(all, patterns...)
	}
	return all, nil
}

func loadOptional(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	patterns, err := readPatternLines(f)
	if err != nil {
		return nil, err
	}
	if len(patterns) > 0 {
		logger.Debug("Loaded ignore file", "path", path, "patterns", len(patterns))
	}
	return patterns, nil
}

// LoadCustomIgnoreFile loads a user-specified ignore file. Unlike
// LoadDirIgnoreFiles, a missing file is an error since the caller asked
// for it explicitly.
func LoadCustomIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, syncerr.ErrIgnoreConfig)
	}
	defer f.Close()

	patterns, err := readPatternLines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, syncerr.ErrIgnoreConfig)
	}
	return patterns, nil
}

// hasGitDir reports whether dir directly contains a .git entry (file or
// directory — a worktree's .git is a file, a normal repo's is a directory).
func hasGitDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// NewGlobalMatcher builds the global Matcher from CLI exclusion patterns
// and an optional custom ignore file. Returns a no-op matcher if neither
// source contributes anything.
func NewGlobalMatcher(patterns []string, customIgnoreFile string) (Matcher, error) {
	all := make([]string, len(patterns))
	copy(all, patterns)

	if customIgnoreFile != "" {
		custom, err := LoadCustomIgnoreFile(customIgnoreFile)
		if err != nil {
			return nil, err
		}
		all = append(all, custom...)
	}

	if len(all) == 0 {
		return &noOpMatcher{}, nil
	}
	return NewPatternMatcher(all), nil
}
