package cleaner

import (
	"errors"
	"strings"
	"testing"
)

// --- NoopCleaner Tests ---

func TestNoopCleaner_Clean(t *testing.T) {
	c := NewNoop()

	tests := []struct {
		name  string
		input string
	}{
		{"empty_string", ""},
		{"plain_text", "Hello, World!"},
		{"html_content", "<html><body><h1>Title</h1></body></html>"},
		{"whitespace", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.input)
			if err != nil {
				t.Errorf("Clean() error = %v, want nil", err)
			}
			if got != tt.input {
				t.Errorf("Clean() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestNoopCleaner_Name(t *testing.T) {
	if got := NewNoop().Name(); got != "noop" {
		t.Errorf("Name() = %q, want %q", got, "noop")
	}
}

// --- MarkdownCleaner Tests ---

func TestMarkdownCleaner_Clean(t *testing.T) {
	c := NewMarkdown()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{"headings", `<h1>H1</h1><h2>H2</h2><h3>H3</h3>`, []string{"# H1", "## H2", "### H3"}},
		{"paragraph", `<p>A paragraph.</p>`, []string{"A paragraph."}},
		{"list", `<ul><li>Item 1</li><li>Item 2</li></ul>`, []string{"- Item 1", "- Item 2"}},
		{"link", `<a href="https://example.com">Example</a>`, []string{"[Example](https://example.com)"}},
		{"emphasis", `<p><strong>bold</strong> and <em>soft</em></p>`, []string{"**bold**", "*soft*"}},
		{"table", `<table><tr><th>Tag</th></tr><tr><td>topic</td></tr></table>`, []string{"| Tag", "| topic"}},
		{"strikethrough", `<p><del>gone</del></p>`, []string{"~~gone~~"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.html)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}

func TestMarkdownCleaner_DropsScripts(t *testing.T) {
	got, err := NewMarkdown().Clean(`<html><head><title>T</title><script>alert(1)</script></head><body><p>Body</p></body></html>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("script leaked into %q", got)
	}
	if !strings.Contains(got, "Body") {
		t.Errorf("expected body text, got %q", got)
	}
}

func TestMarkdownCleaner_StripOptions(t *testing.T) {
	c := NewMarkdown(WithStripLinks(true), WithStripImages(true))

	got, err := c.Clean(`<p><a href="https://example.com/x">keep me</a> <img src="a.png" alt="pic"></p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "https://example.com/x") {
		t.Errorf("link URL leaked into %q", got)
	}
	if strings.Contains(got, "a.png") {
		t.Errorf("image leaked into %q", got)
	}
	if !strings.Contains(got, "keep me") {
		t.Errorf("link text missing from %q", got)
	}
}

func TestMarkdownCleaner_CollapsesBlankLines(t *testing.T) {
	got, err := NewMarkdown().Clean("<p>one</p>\n\n\n\n<p>two</p>")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("expected at most one blank line, got %q", got)
	}
}

func TestCleanWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"\n\na\n\n\n\nb\n\n", "a\n\nb"},
		{"a\n   \n\t\nb", "a\n\nb"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanWhitespace(tt.in); got != tt.want {
			t.Errorf("cleanWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEqualIgnoringWhitespace(t *testing.T) {
	if !EqualIgnoringWhitespace("# Title\n\ntext", "#   Title\ntext  ") {
		t.Error("expected equal")
	}
	if EqualIgnoringWhitespace("# Title", "## Title") {
		t.Error("expected different")
	}
}

func TestMarkdownOptions(t *testing.T) {
	cfg := &markdownConfig{}
	WithStripLinks(true)(cfg)
	WithStripImages(true)(cfg)
	WithTables(false)(cfg)
	WithRawWhitespace(true)(cfg)

	if !cfg.StripLinks || !cfg.StripImages || cfg.Tables || !cfg.RawWhitespace {
		t.Errorf("options not applied: %+v", cfg)
	}

	WithStripLinks(false)(cfg)
	if cfg.StripLinks {
		t.Error("WithStripLinks(false) did not unset StripLinks")
	}
}

// --- ChainCleaner Tests ---

func TestChainCleaner_Empty(t *testing.T) {
	input := "unchanged content"
	got, err := NewChain().Clean(input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != input {
		t.Errorf("Clean() = %q, want %q", got, input)
	}
}

func TestChainCleaner_Order(t *testing.T) {
	c := NewChain(NewNoop(), NewMarkdown())

	got, err := c.Clean(`<h1>Title</h1><p>Content</p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(got, "# Title") {
		t.Errorf("expected markdown output, got %q", got)
	}
}

// errorCleaner is a test cleaner that always returns an error
type errorCleaner struct{}

func (c *errorCleaner) Clean(string) (string, error) {
	return "", errors.New("test error")
}

func (c *errorCleaner) Name() string {
	return "error"
}

func TestChainCleaner_ErrorPropagation(t *testing.T) {
	c := NewChain(NewNoop(), &errorCleaner{}, NewMarkdown())

	_, err := c.Clean("test")
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if !strings.Contains(err.Error(), "error: test error") {
		t.Errorf("expected stage name in error, got %v", err)
	}
}

func TestChainCleaner_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"single", []Cleaner{NewNoop()}, "chain(noop)"},
		{"double", []Cleaner{NewNoop(), NewMarkdown()}, "chain(noop->markdown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewChain(tt.cleaners...).Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
