// Package tagcount builds an element-usage histogram over a tree of XML
// files.
package tagcount

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

// DefaultPattern selects DITA topics.
const DefaultPattern = "**/*.dita"

// Tag is one histogram entry.
type Tag struct {
	Name  string `json:"tag"`
	Count int    `json:"count"`
}

// String formats the entry as "tag: count".
func (t Tag) String() string {
	return fmt.Sprintf("%s: %d", t.Name, t.Count)
}

// Histogram maps element local names to occurrences.
type Histogram map[string]int

// Add merges other into h.
func (h Histogram) Add(other Histogram) {
	for name, n := range other {
		h[name] += n
	}
}

// Sorted returns the entries ordered by count, then name, ascending.
func (h Histogram) Sorted() []Tag {
	tags := make([]Tag, 0, len(h))
	for name, n := range h {
		tags = append(tags, Tag{Name: name, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count < tags[j].Count
		}
		return tags[i].Name < tags[j].Name
	})
	return tags
}

// Parse reads an XML document leniently: unknown entities and unclosed
// HTML-style void elements do not fail the parse.
func Parse(path string) (*xmlquery.Node, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return xmlquery.ParseWithOptions(f, xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:    false,
			AutoClose: xml.HTMLAutoClose,
			Entity:    xml.HTMLEntity,
		},
	})
}

// CountFile counts the elements of one file.
func CountFile(path string) (Histogram, error) {
	doc, err := Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	h := Histogram{}
	walk(doc, h)
	return h, nil
}

func walk(n *xmlquery.Node, h Histogram) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			h[c.Data]++
		}
		walk(c, h)
	}
}

// Files returns the files under root matching a doublestar pattern,
// sorted.
func Files(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	sort.Strings(files)
	return files, nil
}

// Count builds the histogram of every matching file. Files that fail to
// parse are logged and left out.
func Count(ctx context.Context, root, pattern string, opts ...workpool.Option) (Histogram, workpool.Result, error) {
	files, err := Files(root, pattern)
	if err != nil {
		return nil, workpool.Result{}, err
	}

	var mu sync.Mutex
	total := Histogram{}
	opts = append([]workpool.Option{
		workpool.WithDescription("count-tags"),
		workpool.WithLabel(func(i int) string { return files[i] }),
	}, opts...)

	res, err := workpool.Run(ctx, files, func(_ context.Context, path string) error {
		h, err := CountFile(path)
		if err != nil {
			return err
		}
		mu.Lock()
		total.Add(h)
		mu.Unlock()
		return nil
	}, opts...)
	return total, res, err
}
