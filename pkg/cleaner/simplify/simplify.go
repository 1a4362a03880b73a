package simplify

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/prescod/the-xml-document-stack/pkg/cleaner"
)

// Cleaner simplifies HTML documents. It implements cleaner.Cleaner and is
// safe for concurrent use.
type Cleaner struct {
	config   *Config
	renderer cleaner.Cleaner

	remove nameSet
	unwrap nameSet
	ignore nameSet
	keep   nameSet
}

// New creates a new Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{
		config:   config,
		renderer: cleaner.NewMarkdown(),
		remove:   newNameSet(config.RemoveElements),
		unwrap:   newNameSet(config.UnwrapElements),
		ignore:   newNameSet(config.IgnoreAttributes),
		keep:     newNameSet(config.KeepAttributes),
	}
}

// WithRenderer replaces the Markdown renderer used for the reference and
// verification renderings.
func (c *Cleaner) WithRenderer(r cleaner.Cleaner) *Cleaner {
	c.renderer = r
	return c
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "simplify"
}

// Clean simplifies html. A verification failure is returned as an error
// wrapping ErrChanged alongside the simplified content.
func (c *Cleaner) Clean(html string) (string, error) {
	result := c.CleanWithStats(html)
	return result.Content, result.Error
}

// CleanWithStats simplifies html and returns detailed stats.
func (c *Cleaner) CleanWithStats(input string) *Result {
	startTime := time.Now()
	result := &Result{
		Stats: NewStats(),
	}
	result.Stats.InputBytes = len(input)

	parseStart := time.Now()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	result.Stats.ParseDuration = time.Since(parseStart)

	if err != nil {
		result.Content = input
		result.AddWarning("parse", "HTML parse failed, returning original", err.Error())
		result.Stats.OutputBytes = len(input)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}

	transformStart := time.Now()
	c.deleteContent(doc, result)

	reference, refErr := c.render(doc)
	if refErr != nil {
		result.AddWarning("reference", "Markdown rendering failed, skipping verification", refErr.Error())
	}
	result.Reference = reference

	c.simplify(doc, result)
	result.Stats.TransformDuration = time.Since(transformStart)

	output, err := doc.Html()
	if err != nil {
		result.Content = input
		result.AddWarning("output", "HTML rendering failed, returning original", err.Error())
		result.Stats.OutputBytes = len(input)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}
	result.Content = output
	result.Stats.OutputBytes = len(output)

	if c.config.Verify && refErr == nil {
		verifyStart := time.Now()
		c.verify(result)
		result.Stats.VerifyDuration = time.Since(verifyStart)
	}

	result.Stats.TotalDuration = time.Since(startTime)
	return result
}

// deleteContent is phase 1: content the reference rendering must not see.
func (c *Cleaner) deleteContent(doc *goquery.Document, result *Result) {
	for _, tag := range c.config.DeleteElements {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			result.Stats.RecordRemoval(tag)
			s.Remove()
		})
	}

	for _, attr := range c.config.DeleteAttributes {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			s.RemoveAttr(attr)
			result.Stats.AttributesRemoved++
		})
	}
}

// simplify is phase 2. It walks a snapshot of the elements in document
// order; elements detached by an earlier removal are skipped.
func (c *Cleaner) simplify(doc *goquery.Document, result *Result) {
	root := doc.Nodes[0]

	for _, n := range doc.Find("*").Nodes {
		if !attached(n, root) {
			continue
		}

		switch {
		case c.remove.has(n.Data):
			result.Stats.RecordRemoval(n.Data)
			n.Parent.RemoveChild(n)
		case n.Data == "meta" && !hasAttr(n, "charset"):
			result.Stats.RecordRemoval(n.Data)
			n.Parent.RemoveChild(n)
		case c.unwrap.has(n.Data):
			result.Stats.RecordUnwrap(n.Data)
			unwrapNode(n)
		default:
			c.filterAttributes(n, result)
			result.Stats.RecordElement(n.Data)
		}
	}
}

func (c *Cleaner) filterAttributes(n *html.Node, result *Result) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if c.ignore.has(a.Key) {
			result.Stats.AttributesRemoved++
			continue
		}
		if !c.keep.has(a.Key) {
			result.Stats.RecordUnknown(n.Data, a.Key)
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func (c *Cleaner) render(doc *goquery.Document) (string, error) {
	content, err := doc.Html()
	if err != nil {
		return "", err
	}
	return c.renderer.Clean(content)
}

func (c *Cleaner) verify(result *Result) {
	simplified, err := c.renderer.Clean(result.Content)
	if err != nil {
		result.Error = fmt.Errorf("render simplified document: %w", err)
		return
	}
	result.Simplified = simplified

	if cleaner.EqualIgnoringWhitespace(result.Reference, simplified) {
		return
	}
	result.Diff = LineDiff(result.Reference, simplified)
	result.Error = fmt.Errorf("%w: %d changed lines", ErrChanged, countChanged(result.Diff))
}

func attached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// unwrapNode replaces n with its children.
func unwrapNode(n *html.Node) {
	parent := n.Parent
	for child := n.FirstChild; child != nil; child = n.FirstChild {
		n.RemoveChild(child)
		parent.InsertBefore(child, n)
	}
	parent.RemoveChild(n)
}
