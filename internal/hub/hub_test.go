package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type hubServer struct {
	*httptest.Server
	files map[string]string
	gets  atomic.Int64
	auth  atomic.Value
}

func newHub(t *testing.T, files map[string]string, etag func(name string) string) *hubServer {
	t.Helper()
	h := &hubServer{files: files}
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/org/ds/resolve/main/", func(w http.ResponseWriter, r *http.Request) {
		h.auth.Store(r.Header.Get("Authorization"))
		name := strings.TrimPrefix(r.URL.Path, "/datasets/org/ds/resolve/main/")
		if _, ok := h.files[name]; !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set(linkedEtagHeader, `"`+etag(name)+`"`)
		http.Redirect(w, r, "/cdn/"+name, http.StatusFound)
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		h.gets.Add(1)
		_, _ = w.Write([]byte(h.files[strings.TrimPrefix(r.URL.Path, "/cdn/")]))
	})
	h.Server = httptest.NewServer(mux)
	t.Cleanup(h.Close)
	return h
}

func TestShardName(t *testing.T) {
	assert.Equal(t, "data/xml/train-00007-of-00297.parquet", ShardName("xml", 7, 297))
}

func TestURL(t *testing.T) {
	c := New(WithEndpoint("https://hub.example/"), WithRepo("bigcode/the-stack", "v1.2"))
	assert.Equal(t, "https://hub.example/datasets/bigcode/the-stack/resolve/v1.2/data/xml/a.parquet", c.URL("data/xml/a.parquet"))
}

func TestDownload(t *testing.T) {
	name := ShardName("xml", 0, 2)
	files := map[string]string{name: "PAR1 shard bytes"}
	srv := newHub(t, files, func(n string) string { return digest(files[n]) })

	dir := t.TempDir()
	c := New(WithEndpoint(srv.URL), WithRepo("org/ds", ""), WithToken("hf_abc"))

	dest, skipped, err := c.Download(context.Background(), name, dir)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, filepath.Join(dir, "data", "xml", "train-00000-of-00002.parquet"), dest)
	assert.Equal(t, "Bearer hf_abc", srv.auth.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, files[name], string(data))
	assert.NoFileExists(t, dest+partSuffix)

	_, skipped, err = c.Download(context.Background(), name, dir)
	require.NoError(t, err)
	assert.True(t, skipped)
}

func TestDownload_ChecksumMismatch(t *testing.T) {
	name := ShardName("xml", 1, 2)
	srv := newHub(t, map[string]string{name: "corrupted"}, func(string) string { return digest("original") })

	dir := t.TempDir()
	_, _, err := New(WithEndpoint(srv.URL), WithRepo("org/ds", "")).Download(context.Background(), name, dir)
	assert.ErrorIs(t, err, ErrChecksum)

	dest := filepath.Join(dir, filepath.FromSlash(name))
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+partSuffix)
}

func TestDownload_NotFound(t *testing.T) {
	srv := newHub(t, map[string]string{}, func(string) string { return "" })
	_, _, err := New(WithEndpoint(srv.URL), WithRepo("org/ds", "")).Download(context.Background(), "data/xml/none.parquet", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestDownload_SizeMismatchRefetches(t *testing.T) {
	name := ShardName("xml", 0, 1)
	files := map[string]string{name: "new content"}
	srv := newHub(t, files, func(string) string { return "not-a-sha" })

	dir := t.TempDir()
	dest := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	_, skipped, err := New(WithEndpoint(srv.URL), WithRepo("org/ds", "")).Download(context.Background(), name, dir)
	require.NoError(t, err)
	assert.False(t, skipped)
	data, _ := os.ReadFile(dest)
	assert.Equal(t, "new content", string(data))
}

func TestShards(t *testing.T) {
	files := map[string]string{
		ShardName("xml", 0, 3): "zero",
		ShardName("xml", 1, 3): "one",
	}
	srv := newHub(t, files, func(n string) string { return digest(files[n]) })

	dir := t.TempDir()
	res, err := New(WithEndpoint(srv.URL), WithRepo("org/ds", "")).Shards(context.Background(), "xml", 0, 3, 3, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, int64(2), res.Done)
	assert.Equal(t, int64(1), res.Failed)
	assert.FileExists(t, filepath.Join(dir, "data", "xml", "train-00001-of-00003.parquet"))
}

func TestShards_InvalidRange(t *testing.T) {
	_, err := New().Shards(context.Background(), "xml", 5, 3, 297, t.TempDir())
	assert.Error(t, err)
	_, err = New().Shards(context.Background(), "xml", 0, 300, 297, t.TempDir())
	assert.Error(t, err)
}

func TestLinkedDigest(t *testing.T) {
	h := http.Header{}
	h.Set(linkedEtagHeader, `"`+strings.ToUpper(digest("x"))+`"`)
	assert.Equal(t, digest("x"), linkedDigest(h))

	h.Set(linkedEtagHeader, `W/"abc"`)
	assert.Empty(t, linkedDigest(h))
}
