package dirstats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects a report layout.
type Mode string

const (
	ModeTable Mode = "table"
	ModeTab   Mode = "tab"
	ModeHTML  Mode = "html"
)

var header = table.Row{"Directory", "Number of Files", "Data Size (MB)"}

func newTable(dirs []Dir, detail bool) table.Writer {
	t := table.NewWriter()
	if detail {
		t.AppendHeader(table.Row{header[0], header[1], header[2], "Size", "Mean", "Median", "P95"})
	} else {
		t.AppendHeader(header)
	}

	for _, d := range dirs {
		row := table.Row{d.Path, d.Files, fmt.Sprintf("%.2f", d.MB())}
		if detail {
			row = append(row,
				humanize.IBytes(uint64(d.Bytes)),
				humanize.IBytes(uint64(d.Mean)),
				humanize.IBytes(uint64(d.Median)),
				humanize.IBytes(uint64(d.P95)),
			)
		}
		t.AppendRow(row)
	}
	return t
}

// Render writes dirs to w in the given mode.
func Render(w io.Writer, dirs []Dir, mode Mode) error {
	var out string
	switch mode {
	case ModeTab:
		out = newTable(dirs, false).RenderTSV()
	case ModeHTML:
		out = newTable(dirs, false).RenderHTML()
	case ModeTable, "":
		t := newTable(dirs, true)
		style := table.StyleLight
		style.Format.Header = text.FormatDefault
		t.SetStyle(style)
		out = t.Render()
	default:
		return fmt.Errorf("unknown report mode: %s", mode)
	}
	_, err := io.WriteString(w, strings.TrimRight(out, "\n")+"\n")
	return err
}

// WriteHTML writes an HTML table report to path.
func WriteHTML(path string, dirs []Dir) (retErr error) {
	f, err := os.Create(path) //#nosec G304
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()
	return Render(f, dirs, ModeHTML)
}
