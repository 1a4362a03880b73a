// Package partition routes corpus rows into an on-disk directory layout
// keyed by document family, root element, repository and repository path.
package partition

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prescod/the-xml-document-stack/internal/sniff"
)

// ErrUnsafePath is returned when a row's repository or path would place a
// file outside the layout root.
var ErrUnsafePath = errors.New("unsafe path")

const (
	// BadDir holds quarantined rows.
	BadDir = "__BAD"

	// SidecarExt is appended to a saved document's path for its metadata.
	SidecarExt = ".json"
)

// Layout computes output paths under Root.
type Layout struct {
	Root string
}

// Document returns Root/<family>/<root>/<repo>/<dir(path)>/<base(path)>.
func (l Layout) Document(c sniff.Classification, repo, path string) (string, error) {
	if !c.OK() {
		return "", fmt.Errorf("%w: unclassified document", ErrUnsafePath)
	}
	if err := checkSegment(c.Root); err != nil {
		return "", err
	}
	return l.join(filepath.Join(string(c.Family), c.Root), repo, path)
}

// Readme returns Root/<repo>/<dir(path)>/<base(path)>.
func (l Layout) Readme(repo, path string) (string, error) {
	return l.join("", repo, path)
}

// Quarantine returns the content and metadata paths for a bad row. Directory
// parts of source become part of the name, so shards sharing a file name in
// different directories do not collide.
func (l Layout) Quarantine(source string, index int64) (content, metadata string) {
	stem := strings.TrimSuffix(filepath.ToSlash(source), filepath.Ext(source))
	stem = strings.Trim(strings.ReplaceAll(stem, "/", "_"), "._")
	dir := filepath.Join(l.Root, BadDir)
	content = filepath.Join(dir, fmt.Sprintf("content_%s_%d.txt", stem, index))
	metadata = filepath.Join(dir, fmt.Sprintf("metadata_%s_%d.json", stem, index))
	return content, metadata
}

// Sidecar returns the metadata path for a saved document.
func Sidecar(path string) string {
	return path + SidecarExt
}

func (l Layout) join(prefix, repo, path string) (string, error) {
	repo = filepath.FromSlash(repo)
	path = filepath.FromSlash(path)

	for _, p := range []string{repo, path} {
		if p == "" || !filepath.IsLocal(p) {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
		}
	}
	if base := filepath.Base(path); base == "." || base == BadDir {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	if prefix == "" && strings.SplitN(repo, string(filepath.Separator), 2)[0] == BadDir {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, repo)
	}
	return filepath.Join(l.Root, prefix, repo, path), nil
}

func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: root element %q", ErrUnsafePath, s)
	}
	return nil
}
