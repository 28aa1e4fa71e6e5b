package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreMatcher checks entry names against a set of shell glob patterns.
// Patterns use filepath.Match syntax (*, ?, [...]) and are matched against
// the entry's base name only.
type IgnoreMatcher struct {
	patterns []string
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	return &IgnoreMatcher{patterns: cleanPatterns(rawPatterns)}
}

// With returns a new matcher holding m's patterns followed by extra.
// m is not modified; a nil m behaves as an empty matcher.
func (m *IgnoreMatcher) With(extra []string) *IgnoreMatcher {
	if m == nil {
		return NewIgnoreMatcher(extra)
	}
	patterns := make([]string, 0, len(m.patterns)+len(extra))
	patterns = append(patterns, m.patterns...)
	patterns = append(patterns, cleanPatterns(extra)...)
	return &IgnoreMatcher{patterns: patterns}
}

// MatchName reports whether name matches any of the matcher's patterns.
func (m *IgnoreMatcher) MatchName(name string) bool {
	return NameMatchesAny(name, m.patterns)
}

// NameMatchesAny reports whether name matches any pattern, trying them in order
// and stopping at the first match. Malformed patterns never match.
func NameMatchesAny(name string, patterns []string) bool {
	if name == "" {
		return false
	}
	for _, p := range patterns {
		matched, err := filepath.Match(p, name)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// LoadPatterns reads an ignore file with one pattern per line.
// A missing file yields no patterns unless required is set, in which case
// the open error is returned.
func LoadPatterns(path string, required bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return cleanPatterns(lines), nil
}

func cleanPatterns(raw []string) []string {
	var patterns []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}
