package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SkipFileName is the per-directory file listing extra patterns to leave out
// when a whole directory is attached.
const SkipFileName = ".gestorignore"

// defaultSkipPatterns are always applied: hidden files, editor backups and
// desktop metadata that scanners and file managers leave behind.
var defaultSkipPatterns = []string{".*", "*~", "Thumbs.db", "desktop.ini"}

type skipPattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// SkipMatcher decides which files of a directory are not attached.
// Patterns without '/' match against the file's basename only.
// Patterns with '/' match against the path relative to the directory.
type SkipMatcher struct {
	patterns []skipPattern
}

// NewSkipMatcher creates a SkipMatcher from the default patterns plus rawPatterns.
// Blank lines and lines starting with '#' are skipped.
func NewSkipMatcher(rawPatterns []string) *SkipMatcher {
	var patterns []skipPattern
	for _, raw := range append(append([]string{}, defaultSkipPatterns...), rawPatterns...) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, skipPattern{
			pattern:   raw,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &SkipMatcher{patterns: patterns}
}

// Match reports whether the file at relativePath should be left out.
func (m *SkipMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchPath {
			matched, err = filepath.Match(p.pattern, normalized)
		} else {
			matched, err = filepath.Match(p.pattern, basename)
		}
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ParseSkipFile reads a skip file and returns the raw pattern lines.
// Returns nil and no error if the file does not exist.
func ParseSkipFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening skip file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading skip file: %w", err)
	}
	return patterns, nil
}
