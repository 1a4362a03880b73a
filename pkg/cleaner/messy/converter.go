package messy

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// Converter renders HTML as Markdown using one set of Options.
// It implements cleaner.Cleaner.
type Converter struct {
	opts Options
	conv *converter.Converter
}

// New builds a converter for opts.
func New(opts Options) *Converter {
	headingStyle := commonmark.HeadingStyleATX
	if opts.HeadingStyle == HeadingSetext {
		headingStyle = commonmark.HeadingStyleSetext
	}

	escapeMode := converter.EscapeModeDisabled
	if opts.Escaping() {
		escapeMode = converter.EscapeModeSmart
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(headingStyle),
				commonmark.WithBulletListMarker(opts.BulletMarker()),
				commonmark.WithCodeBlockFence(opts.CodeFence),
				commonmark.WithHorizontalRule(opts.HorizontalRule),
			),
			table.NewTablePlugin(),
			strikethrough.NewStrikethroughPlugin(),
		),
		converter.WithEscapeMode(escapeMode),
	)

	c := &Converter{opts: opts, conv: conv}
	c.register()
	return c
}

// Options returns the options the converter was built with.
func (c *Converter) Options() Options {
	return c.opts
}

// Name returns the cleaner type.
func (c *Converter) Name() string {
	return "messy"
}

// Clean converts HTML to messy Markdown with surrounding whitespace trimmed.
func (c *Converter) Clean(content string) (string, error) {
	markdown, err := c.conv.ConvertString(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

func (c *Converter) register() {
	r := c.conv.Register

	r.TagType("title", converter.TagTypeRemove, converter.PriorityEarly)

	strong := strings.Repeat(c.opts.StrongEmSymbol, 2)
	for _, tag := range []string{"b", "strong"} {
		r.RendererFor(tag, converter.TagTypeInline, c.renderDelimited(strong, strong, c.opts.CapitalizeBold), converter.PriorityEarly)
	}
	for _, tag := range []string{"i", "em"} {
		r.RendererFor(tag, converter.TagTypeInline, c.renderDelimited(c.opts.StrongEmSymbol, c.opts.StrongEmSymbol, false), converter.PriorityEarly)
	}
	r.RendererFor("sub", converter.TagTypeInline, c.renderDelimited(c.opts.SubSymbol, c.opts.SubSymbol, false), converter.PriorityEarly)
	r.RendererFor("sup", converter.TagTypeInline, c.renderDelimited(c.opts.SupSymbol, c.opts.SupSymbol, false), converter.PriorityEarly)

	r.RendererFor("a", converter.TagTypeInline, c.renderLink, converter.PriorityEarly)

	if c.opts.HeadingStyle == HeadingATXClosed {
		for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
			r.RendererFor(tag, converter.TagTypeBlock, c.renderClosedHeading, converter.PriorityEarly)
		}
	}
	if c.opts.BlockquoteStyle != StandardBlockquote {
		r.RendererFor("blockquote", converter.TagTypeBlock, c.renderBlockquote, converter.PriorityEarly)
	}
	if c.opts.Wrap && c.opts.WrapWidth > 0 {
		r.RendererFor("p", converter.TagTypeBlock, c.renderWrapped, converter.PriorityEarly)
	}
}

// renderDelimited wraps the rendered children in opening/closing, keeping
// surrounding whitespace outside the delimiters.
func (c *Converter) renderDelimited(opening, closing string, upper bool) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
		var buf bytes.Buffer
		ctx.RenderChildNodes(ctx, &buf, n)

		content := buf.String()
		if upper {
			content = strings.ToUpper(content)
		}

		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			_, _ = w.WriteString(content)
			return converter.RenderSuccess
		}

		leading := content[:len(content)-len(strings.TrimLeft(content, " \t\n"))]
		trailing := content[len(strings.TrimRight(content, " \t\n")):]

		_, _ = w.WriteString(leading + opening + trimmed + closing + trailing)
		return converter.RenderSuccess
	}
}

func (c *Converter) renderLink(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" {
		return converter.RenderTryNext
	}
	title := attr(n, "title")

	if c.opts.Autolinks && title == "" && strings.TrimSpace(textContent(n)) == href {
		_, _ = w.WriteString("<" + href + ">")
		return converter.RenderSuccess
	}

	if title == "" && c.opts.DefaultTitle {
		title = href
	}
	if title == "" {
		return converter.RenderTryNext
	}

	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)
	text := strings.TrimSpace(buf.String())

	title = strings.ReplaceAll(title, `"`, `\"`)
	_, _ = w.WriteString("[" + text + "](" + strings.ReplaceAll(href, " ", "%20") + ` "` + title + `")`)
	return converter.RenderSuccess
}

func (c *Converter) renderClosedHeading(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	level := int(n.Data[1] - '0')
	if level < 1 || level > 6 {
		return converter.RenderTryNext
	}

	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)
	text := strings.Join(strings.Fields(buf.String()), " ")
	if text == "" {
		return converter.RenderSuccess
	}

	hashes := strings.Repeat("#", level)
	_, _ = w.WriteString("\n\n" + hashes + " " + text + " " + hashes + "\n\n")
	return converter.RenderSuccess
}

// renderBlockquote prefixes each line with the drawn style and then with the
// standard marker, so the quote still parses as a blockquote.
func (c *Converter) renderBlockquote(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return converter.RenderSuccess
	}
	content = prefixLines(content, c.opts.BlockquoteStyle+" ")
	content = prefixLines(content, "> ")

	_, _ = w.WriteString("\n\n" + content + "\n\n")
	return converter.RenderSuccess
}

func (c *Converter) renderWrapped(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return converter.RenderSuccess
	}

	_, _ = w.WriteString("\n\n" + wrap(content, c.opts.WrapWidth) + "\n\n")
	return converter.RenderSuccess
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// wrap breaks each line of s at word boundaries so no line exceeds width,
// unless a single word is longer. Hard line breaks are kept.
func wrap(s string, width int) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		hardBreak := strings.HasSuffix(line, "  ")
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		var current strings.Builder
		for _, word := range words {
			if current.Len() > 0 && current.Len()+1+len(word) > width {
				out = append(out, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(word)
		}
		last := current.String()
		if hardBreak {
			last += "  "
		}
		out = append(out, last)
	}
	return strings.Join(out, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
