package dedupe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestFind(t *testing.T) {
	root := writeTree(t, map[string]string{
		"dita/a.dita":     "<topic/>",
		"dita/b/c.dita":   "<topic/>",
		"tei/z.xml":       "<topic/>",
		"tei/same.xml":    "<TEI/>abc",
		"jats/same.xml":   "<TEI/>abc",
		"jats/differ.xml": "<TEI/>abd",
		"solo.xml":        "unique content here",
	})

	groups, err := Find(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, int64(9), groups[0].Size)
	assert.Equal(t, []string{
		filepath.Join(root, "jats", "same.xml"),
		filepath.Join(root, "tei", "same.xml"),
	}, groups[0].Paths)

	assert.Equal(t, int64(8), groups[1].Size)
	assert.Len(t, groups[1].Paths, 3)
	assert.Equal(t, filepath.Join(root, "dita", "a.dita"), groups[1].Paths[0])
	assert.Len(t, groups[1].MD5, 32)

	assert.Equal(t, int64(9+16), Redundant(groups))
}

func TestFind_NoDuplicates(t *testing.T) {
	root := writeTree(t, map[string]string{"a": "1", "b": "2"})
	groups, err := Find(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFind_MissingRoot(t *testing.T) {
	_, err := Find(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFind_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a": "1", "b": "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Find(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrune(t *testing.T) {
	root := writeTree(t, map[string]string{"a.xml": "x", "b.xml": "x", "c.xml": "x"})
	groups, err := Find(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	removed, err := Prune(groups, true)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.FileExists(t, filepath.Join(root, "b.xml"))

	removed, err = Prune(groups, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.xml"), filepath.Join(root, "c.xml")}, removed)
	assert.FileExists(t, filepath.Join(root, "a.xml"))
	assert.NoFileExists(t, filepath.Join(root, "b.xml"))

	_, err = Prune(groups, false)
	assert.Error(t, err)
}
