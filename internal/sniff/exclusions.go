package sniff

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExclusionsFile is read from the working directory when no other
// file is configured.
const DefaultExclusionsFile = "exclude_files.txt"

// Exclusions is a set of document roots that must not be partitioned.
// Entries are lower-cased; entries containing glob metacharacters are
// matched as patterns.
type Exclusions struct {
	exact    map[string]struct{}
	patterns []glob.Glob
}

// ParseExclusions reads one entry per line. Blank lines are dropped.
func ParseExclusions(r io.Reader) (*Exclusions, error) {
	e := &Exclusions{exact: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		entry := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if entry == "" {
			continue
		}

		if strings.ContainsAny(entry, "*?[{") {
			g, err := glob.Compile(entry)
			if err != nil {
				return nil, fmt.Errorf("exclusion line %d %q: %w", line, entry, err)
			}
			e.patterns = append(e.patterns, g)
			continue
		}
		e.exact[entry] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadExclusions reads an exclusions file. A missing file is an empty set
// only when it is the default file; an explicitly configured file must exist.
func LoadExclusions(path string) (*Exclusions, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultExclusionsFile
	}

	f, err := os.Open(path) //#nosec G304
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Exclusions{exact: make(map[string]struct{})}, nil
		}
		return nil, fmt.Errorf("open exclusions: %w", err)
	}
	defer f.Close()

	return ParseExclusions(f)
}

// Match reports whether root is excluded.
func (e *Exclusions) Match(root string) bool {
	if e == nil {
		return false
	}
	root = strings.ToLower(root)
	if _, ok := e.exact[root]; ok {
		return true
	}
	for _, g := range e.patterns {
		if g.Match(root) {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (e *Exclusions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.exact) + len(e.patterns)
}
