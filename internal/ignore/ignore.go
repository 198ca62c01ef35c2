// Package ignore reads .botbotignore files and matches paths against them.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// FileName is the name of the ignore file.
const FileName = ".botbotignore"

// Rules is a list of ignore patterns.
//
// A path is ignored when it equals a pattern, matches it as a
// filepath.Match glob, or lies below a pattern naming a directory. Patterns
// without a separator are also matched against the base name.
type Rules struct {
	patterns []string
}

// New creates Rules from patterns. Empty patterns are dropped and a leading
// "~/" is expanded to the home directory.
func New(patterns ...string) *Rules {
	r := &Rules{}
	r.Add(patterns...)
	return r
}

// Add appends patterns to the rules.
func (r *Rules) Add(patterns ...string) {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r.patterns = append(r.patterns, filepath.Clean(expandHome(p)))
	}
}

// Patterns returns a copy of the patterns.
func (r *Rules) Patterns() []string {
	out := make([]string, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Len returns the number of patterns.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.patterns)
}

// Match reports whether path is ignored. A nil Rules matches nothing.
func (r *Rules) Match(path string) bool {
	if r == nil {
		return false
	}

	path = filepath.Clean(path)
	base := filepath.Base(path)

	for _, p := range r.patterns {
		if path == p {
			return true
		}
		if strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
		if !strings.ContainsRune(p, filepath.Separator) {
			if ok, _ := filepath.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}

// Parse reads rules from r. Everything after '#' on a line is a comment.
func Parse(r io.Reader) (*Rules, error) {
	rules := New()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		rules.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore rules: %w", err)
	}
	return rules, nil
}

// Load reads rules from the file at path. A missing file yields empty rules.
func Load(path string) (*Rules, error) {
	if path == "" {
		return New(), nil
	}

	f, err := os.Open(path) //nolint:gosec // User-provided ignore path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Find returns the path of the ignore file in dir, or "" if there is none.
// An empty dir means the home directory.
func Find(dir string) string {
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return ""
		}
		dir = home
	}

	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

// expandHome expands a leading "~" to the home directory. Other forms such
// as "~user" are kept verbatim.
func expandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
