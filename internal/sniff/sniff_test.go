package sniff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		family  Family
		root    string
		method  Method
	}{
		{
			name:    "dita topic",
			content: `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<!DOCTYPE topic PUBLIC "-//OASIS//DTD DITA Topic//EN" "topic.dtd"><topic id="x"/>`,
			family:  FamilyDITA,
			root:    "topic",
			method:  MethodDoctype,
		},
		{
			name:    "dita map keeps root case-folded",
			content: `<!DOCTYPE Map PUBLIC "-//OASIS//DTD DITA Map//EN" "map.dtd"><map/>`,
			family:  FamilyDITA,
			root:    "map",
			method:  MethodDoctype,
		},
		{
			name:    "docbook",
			content: `<!DOCTYPE book PUBLIC "-//OASIS//DTD DocBook XML V4.5//EN" "http://www.oasis-open.org/docbook/xml/4.5/docbookx.dtd"><book/>`,
			family:  FamilyDocBook,
			root:    "book",
			method:  MethodDoctype,
		},
		{
			name:    "jats",
			content: `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.2 20190208//EN" "JATS-journalpublishing1.dtd"><article/>`,
			family:  FamilyJATS,
			root:    "article",
			method:  MethodDoctype,
		},
		{
			name:    "tei doctype",
			content: `<!DOCTYPE TEI SYSTEM "http://www.tei-c.org/release/xml/tei/custom/schema/dtd/tei_all.dtd"><TEI/>`,
			family:  FamilyTEI,
			root:    "tei",
			method:  MethodDoctype,
		},
		{
			name:    "xhtml",
			content: `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd"><html/>`,
			family:  FamilyHTML,
			root:    "html",
			method:  MethodDoctype,
		},
		{
			name:    "dita wins over html when both appear",
			content: `<!DOCTYPE html PUBLIC "-//OASIS//DTD DITA XHTML//EN"><html/>`,
			family:  FamilyDITA,
			root:    "html",
			method:  MethodDoctype,
		},
		{
			name:    "tei by namespace",
			content: `<?xml version="1.0"?><TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader/></TEI>`,
			family:  FamilyTEI,
			root:    "tei",
			method:  MethodNamespace,
		},
		{
			name:    "prefixed docbook by namespace",
			content: `<db:article xmlns:db="http://docbook.org/ns/docbook"/>`,
			family:  FamilyDocBook,
			root:    "article",
			method:  MethodNamespace,
		},
		{
			name:    "unknown doctype",
			content: `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"><plist/>`,
			family:  FamilyNone,
		},
		{
			name:    "unknown namespace",
			content: `<project xmlns="http://maven.apache.org/POM/4.0.0"/>`,
			family:  FamilyNone,
		},
		{
			name:    "doctype after first element is ignored",
			content: `<root/><!DOCTYPE topic PUBLIC "-//OASIS//DTD DITA Topic//EN">`,
			family:  FamilyNone,
		},
		{
			name:    "not markup",
			content: "just some text",
			family:  FamilyNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.content)
			if got.Family != tt.family {
				t.Fatalf("family = %q, want %q (%+v)", got.Family, tt.family, got)
			}
			if tt.family == FamilyNone {
				if got.OK() {
					t.Errorf("expected unclassified, got %+v", got)
				}
				return
			}
			if got.Root != tt.root {
				t.Errorf("root = %q, want %q", got.Root, tt.root)
			}
			if got.Method != tt.method {
				t.Errorf("method = %q, want %q", got.Method, tt.method)
			}
			if !got.OK() {
				t.Error("expected OK()")
			}
		})
	}
}

func TestClassify_Stable(t *testing.T) {
	content := `<!DOCTYPE concept PUBLIC "-//OASIS//DTD DITA Concept//EN" "concept.dtd"><concept/>`
	first := Classify(content)
	for i := 0; i < 10; i++ {
		if got := Classify(content); got != first {
			t.Fatalf("classification changed on run %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestDoctype(t *testing.T) {
	got, ok := Doctype(`<?xml version="1.0"?>` + "\n<!-- note -->\n" + `<!DOCTYPE topic PUBLIC "-//OASIS//DTD DITA Topic//EN" "topic.dtd">`)
	if !ok {
		t.Fatal("expected doctype")
	}
	if got != `topic PUBLIC "-//OASIS//DTD DITA Topic//EN" "topic.dtd"` {
		t.Errorf("Doctype() = %q", got)
	}

	if _, ok := Doctype("<html><body/></html>"); ok {
		t.Error("expected no doctype")
	}
}

func TestClassifyDoctype_Empty(t *testing.T) {
	if c := ClassifyDoctype("   "); c.OK() {
		t.Errorf("expected unclassified, got %+v", c)
	}
}

func TestGate(t *testing.T) {
	gate := DefaultGate()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"oasis doctype", `<!DOCTYPE topic PUBLIC "-//OASIS//DTD DITA Topic//EN">`, true},
		{"doctype without oasis", `<!DOCTYPE html><html/>`, false},
		{"oasis without doctype", `<!-- OASIS --><x/>`, false},
		{"tei root", `<TEI xmlns="http://www.tei-c.org/ns/1.0">`, true},
		{"nlm public id", `<!DOCTYPE article PUBLIC "-//NLM//DTD Journal Publishing DTD v3.0 20080202//EN">`, true},
		{"marker beyond window", strings.Repeat(" ", DefaultWindow) + `<TEI>`, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Match(tt.content); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_CustomRules(t *testing.T) {
	gate := Gate{Window: 20, Rules: [][]string{{"<!DOCTYPE", "html"}}}

	if !gate.Match("<!DOCTYPE html><p>") {
		t.Error("expected custom rule to match")
	}
	if gate.Match("<p>" + strings.Repeat("x", 30) + "<!DOCTYPE html>") {
		t.Error("expected window to bound search")
	}
}

func TestGate_WindowCountsCharacters(t *testing.T) {
	gate := Gate{Window: 6, Rules: [][]string{{"<TEI"}}}

	// Eight bytes, six characters.
	if !gate.Match("éé<TEI>") {
		t.Error("expected marker within six characters to match")
	}
	if gate.Match("ééé<TEI>") {
		t.Error("expected marker past six characters to miss")
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"abc", 0, "abc"},
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
		{"日本語テキスト", 3, "日本語"},
	}
	for _, tt := range tests {
		if got := prefix(tt.s, tt.n); got != tt.want {
			t.Errorf("prefix(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestExclusions(t *testing.T) {
	input := "Topic\n\n  MAP  \nbook*\n"
	e, err := ParseExclusions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseExclusions() error = %v", err)
	}

	if e.Len() != 3 {
		t.Errorf("Len() = %d, want 3", e.Len())
	}

	for root, want := range map[string]bool{
		"topic":    true,
		"TOPIC":    true,
		"map":      true,
		"bookmap":  true,
		"book":     true,
		"concept":  false,
		"":         false,
		"mapgroup": false,
	} {
		if got := e.Match(root); got != want {
			t.Errorf("Match(%q) = %v, want %v", root, got, want)
		}
	}
}

func TestLoadExclusions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	if err := os.WriteFile(path, []byte("glossentry\nreference\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := LoadExclusions(path)
	if err != nil {
		t.Fatalf("LoadExclusions() error = %v", err)
	}
	if !e.Match("GlossEntry") || e.Match("topic") {
		t.Errorf("unexpected matches for %s", path)
	}
}

func TestExclusions_Nil(t *testing.T) {
	var e *Exclusions
	if e.Match("topic") || e.Len() != 0 {
		t.Error("nil exclusions should match nothing")
	}
}

func TestLoadExclusions_ExplicitMissing(t *testing.T) {
	if _, err := LoadExclusions(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}
