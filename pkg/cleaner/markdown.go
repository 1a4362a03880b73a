package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// MarkdownCleaner converts HTML to Markdown using html-to-markdown.
// It is the reference rendering the simplifier verifies against, and the
// output stage of the to-markdown command.
type MarkdownCleaner struct {
	conv *converter.Converter
	cfg  markdownConfig
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	// StripLinks keeps link text and drops the URL.
	StripLinks bool
	// StripImages removes images entirely.
	StripImages bool
	// Tables renders GFM tables instead of flattening them to paragraphs.
	Tables bool
	// RawWhitespace skips blank-line normalization of the output.
	RawWhitespace bool
}

// WithStripLinks configures the cleaner to remove link URLs.
func WithStripLinks(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripLinks = strip
	}
}

// WithStripImages configures the cleaner to remove images.
func WithStripImages(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripImages = strip
	}
}

// WithTables toggles GFM table output. Enabled by default.
func WithTables(enabled bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.Tables = enabled
	}
}

// WithRawWhitespace keeps the converter's output exactly as produced.
func WithRawWhitespace(raw bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.RawWhitespace = raw
	}
}

// NewMarkdown creates a new Markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	cfg := markdownConfig{Tables: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	plugins := []converter.Plugin{
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		strikethrough.NewStrikethroughPlugin(),
	}
	if cfg.Tables {
		plugins = append(plugins, table.NewTablePlugin())
	}
	conv := converter.NewConverter(converter.WithPlugins(plugins...))

	if cfg.StripImages {
		conv.Register.TagType("img", converter.TagTypeRemove, converter.PriorityEarly)
	}
	if cfg.StripLinks {
		conv.Register.RendererFor("a", converter.TagTypeInline, renderChildrenOnly, converter.PriorityEarly)
	}

	return &MarkdownCleaner{conv: conv, cfg: cfg}
}

func renderChildrenOnly(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	ctx.RenderChildNodes(ctx, w, n)
	return converter.RenderSuccess
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(content string) (string, error) {
	markdown, err := c.conv.ConvertString(content)
	if err != nil {
		return "", err
	}
	if c.cfg.RawWhitespace {
		return markdown, nil
	}
	return cleanWhitespace(markdown), nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace collapses runs of blank lines to one and trims the ends.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blankCount := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
			continue
		}
		blankCount = 0
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}

// EqualIgnoringWhitespace reports whether a and b differ only in whitespace.
func EqualIgnoringWhitespace(a, b string) bool {
	return stripWhitespace(a) == stripWhitespace(b)
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
