package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type dirReport struct {
	Directory string `json:"directory" yaml:"directory"`
	Files     int    `json:"files" yaml:"files"`
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format  Format
		want    string
		wantErr bool
	}{
		{format: FormatJSON, want: "*output.JSONWriter"},
		{format: FormatJSONL, want: "*output.JSONLWriter"},
		{format: FormatYAML, want: "*output.YAMLWriter"},
		{format: Format("xml"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(&bytes.Buffer{}, tt.format)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "unsupported") {
					t.Fatalf("expected unsupported format error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			if got := typeName(w); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *JSONWriter:
		return "*output.JSONWriter"
	case *JSONLWriter:
		return "*output.JSONLWriter"
	case *YAMLWriter:
		return "*output.YAMLWriter"
	}
	return "unknown"
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "JSONL", " yaml "} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	if _, err := ParseFormat("table"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJSONWriter_SingleItemIsBare(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	if err := w.Write(dirReport{Directory: "xml/dita", Files: 3}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got dirReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if got.Directory != "xml/dita" || got.Files != 3 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestJSONWriter_MultipleItemsAreArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	_ = w.WriteAll([]any{dirReport{Directory: "xml/dita"}, dirReport{Directory: "xml/tei"}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got []dirReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestJSONWriter_FlushThenCloseWritesOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	_ = w.Write(dirReport{Directory: "xml"})
	_ = w.Flush()
	_ = w.Close()

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("expected one document, got %d lines: %q", n, buf.String())
	}
}

func TestJSONWriter_DoesNotEscapeMarkup(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	_ = w.Write(map[string]string{"doctype": `<!DOCTYPE topic>`})
	_ = w.Close()

	if !strings.Contains(buf.String(), "<!DOCTYPE topic>") {
		t.Errorf("expected raw markup, got %q", buf.String())
	}
}

func TestJSONWriter_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("expected [], got %q", got)
	}
}

func TestJSONLWriter_OneLinePerItem(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	_ = w.WriteAll([]any{dirReport{Directory: "a"}, dirReport{Directory: "b"}})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		var item dirReport
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestYAMLWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	_ = w.Write(dirReport{Directory: "xml/jats", Files: 7})
	_ = w.Write(dirReport{Directory: "xml/tei", Files: 1})
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got []dirReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}
	if len(got) != 2 || got[0].Files != 7 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestWriterOptions(t *testing.T) {
	cfg := &writerConfig{}
	WithPretty(true)(cfg)
	WithIndent("\t")(cfg)

	if !cfg.pretty || cfg.indent != "\t" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "report.json")

	if err := WriteFile(path, FormatJSON, dirReport{Directory: "xml/html", Files: 2}, WithPretty(false)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strings.TrimSpace(string(data)) != `{"directory":"xml/html","files":2}` {
		t.Errorf("unexpected file content: %q", data)
	}

	// Rewriting replaces rather than appends.
	if err := WriteFile(path, FormatJSON, dirReport{Directory: "xml/html", Files: 2}, WithPretty(false)); err != nil {
		t.Fatalf("second WriteFile() error = %v", err)
	}
	again, _ := os.ReadFile(path)
	if string(again) != string(data) {
		t.Errorf("expected identical rewrite, got %q", again)
	}
}
