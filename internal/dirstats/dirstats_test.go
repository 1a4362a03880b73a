package dirstats

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]int{
		"dita/a.dita":        100,
		"dita/a.dita.json":   50,
		"dita/sub/b.dita":    300,
		"jats/article.xml":   1024 * 1024,
		"empty/.keep.json":   1,
		"loose-file-at-root": 10,
	}
	for name, size := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644))
	}
	return root
}

func TestCollect(t *testing.T) {
	root := tree(t)

	dirs, err := Collect(context.Background(), root, DefaultExclude)
	require.NoError(t, err)
	require.Len(t, dirs, 3)

	assert.Equal(t, filepath.Join(root, "dita"), dirs[0].Path)
	assert.Equal(t, 2, dirs[0].Files)
	assert.Equal(t, int64(400), dirs[0].Bytes)
	assert.Equal(t, float64(200), dirs[0].Mean)
	assert.Equal(t, float64(200), dirs[0].Median)
	assert.Greater(t, dirs[0].P95, float64(0))

	assert.Equal(t, filepath.Join(root, "empty"), dirs[1].Path)
	assert.Equal(t, 0, dirs[1].Files)
	assert.Zero(t, dirs[1].Mean)

	assert.Equal(t, 1, dirs[2].Files)
	assert.InDelta(t, 1.0, dirs[2].MB(), 1e-9)
}

func TestCollect_NoExclusions(t *testing.T) {
	dirs, err := Collect(context.Background(), tree(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, dirs[0].Files)
	assert.Equal(t, 1, dirs[1].Files)
}

func TestCollect_MissingRoot(t *testing.T) {
	_, err := Collect(context.Background(), filepath.Join(t.TempDir(), "none"), nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	dirs := []Dir{{Path: "xml/dita", Files: 2, Bytes: 3 * 1024 * 1024, Mean: 1024, Median: 1024, P95: 2048}}

	tests := []struct {
		mode Mode
		want []string
	}{
		{ModeTable, []string{"Directory", "xml/dita", "3.00", "3.0 MiB", "2.0 KiB"}},
		{ModeTab, []string{"Directory\tNumber of Files\tData Size (MB)", "xml/dita\t2\t3.00"}},
		{ModeHTML, []string{"<table", "xml/dita", "3.00"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, dirs, tt.mode))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.True(t, strings.HasSuffix(buf.String(), "\n"))
		})
	}

	assert.Error(t, Render(&bytes.Buffer{}, dirs, "csv"))
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTML(path, []Dir{{Path: "xml/tei", Files: 1, Bytes: 10}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "xml/tei")
}
