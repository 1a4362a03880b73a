// Package hub downloads dataset shards from a Hugging Face compatible hub.
package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/version"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

const (
	DefaultEndpoint = "https://huggingface.co"
	DefaultRepo     = "bigcode/the-stack"
	DefaultRevision = "main"
	DefaultLang     = "xml"
	DefaultTotal    = 297
	DefaultDir      = "dataset_bin"

	linkedEtagHeader = "X-Linked-Etag"
	partSuffix       = ".part"
)

// ErrChecksum is returned when a download does not match the hub's digest.
var ErrChecksum = errors.New("checksum mismatch")

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ShardName returns data/<lang>/train-<i>-of-<total>.parquet.
func ShardName(lang string, i, total int) string {
	return fmt.Sprintf("data/%s/train-%05d-of-%05d.parquet", lang, i, total)
}

// Client fetches files from one dataset repository.
type Client struct {
	endpoint string
	repo     string
	revision string
	token    string
	progress bool
	output   io.Writer
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the hub base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithRepo sets the dataset repository and revision.
func WithRepo(repo, revision string) Option {
	return func(c *Client) {
		c.repo = repo
		if revision != "" {
			c.revision = revision
		}
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each download.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithProgress draws a byte progress bar per download on w.
func WithProgress(enabled bool, w io.Writer) Option {
	return func(c *Client) {
		c.progress = enabled
		if w != nil {
			c.output = w
		}
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		repo:     DefaultRepo,
		revision: DefaultRevision,
		output:   os.Stderr,
		http:     &http.Client{Timeout: 30 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns <endpoint>/datasets/<repo>/resolve/<revision>/<name>.
func (c *Client) URL(name string) string {
	return c.endpoint + "/" + path.Join("datasets", c.repo, "resolve", c.revision, name)
}

// Download fetches name into dir/name. An existing file whose size matches
// the server's Content-Length is kept and reported as skipped. Data is
// written to a .part file and renamed once complete.
func (c *Client) Download(ctx context.Context, name, dir string) (dest string, skipped bool, retErr error) {
	dest = filepath.Join(dir, filepath.FromSlash(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(name), nil)
	if err != nil {
		return dest, false, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// The digest is only on the hub's redirect response, not on the CDN's.
	var digest string
	hc := *c.http
	hc.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if r.Response != nil && digest == "" {
			digest = linkedDigest(r.Response.Header)
		}
		return nil
	}

	resp, err := hc.Do(req)
	if err != nil {
		return dest, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dest, false, fmt.Errorf("download %s failed: HTTP %d", name, resp.StatusCode)
	}
	if digest == "" {
		digest = linkedDigest(resp.Header)
	}

	if info, err := os.Stat(dest); err == nil && resp.ContentLength >= 0 && info.Size() == resp.ContentLength {
		logger.Debug("shard already present", "file", dest, "size", info.Size())
		return dest, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return dest, false, err
	}
	part := dest + partSuffix
	out, err := os.Create(part) //#nosec G304
	if err != nil {
		return dest, false, err
	}
	defer func() {
		out.Close()
		if retErr != nil {
			os.Remove(part)
		}
	}()

	bar := c.newBar(resp.ContentLength, path.Base(name))
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		return dest, false, err
	}
	_ = bar.Finish()
	if err := out.Close(); err != nil {
		return dest, false, err
	}

	if digest != "" {
		ok, err := verifySHA256(part, digest)
		if err != nil {
			return dest, false, err
		}
		if !ok {
			return dest, false, fmt.Errorf("%w: %s", ErrChecksum, name)
		}
	}
	return dest, false, os.Rename(part, dest)
}

// Shards downloads shard indices [from, to) of lang. Failed shards are
// logged and counted; re-running the command fetches only what is missing.
func (c *Client) Shards(ctx context.Context, lang string, from, to, total int, dir string, opts ...workpool.Option) (workpool.Result, error) {
	if from < 0 || to > total || from > to {
		return workpool.Result{}, fmt.Errorf("invalid shard range [%d, %d) of %d", from, to, total)
	}

	names := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		names = append(names, ShardName(lang, i, total))
	}

	opts = append([]workpool.Option{
		workpool.WithWorkers(1),
		workpool.WithProgress(false),
		workpool.WithDescription("download"),
		workpool.WithLabel(func(i int) string { return names[i] }),
	}, opts...)

	return workpool.Run(ctx, names, func(ctx context.Context, name string) error {
		dest, skipped, err := c.Download(ctx, name, dir)
		if err != nil {
			return err
		}
		if skipped {
			logger.InfoContext(ctx, "skipped existing shard", "file", dest)
		} else {
			logger.InfoContext(ctx, "downloaded shard", "file", dest)
		}
		return nil
	}, opts...)
}

func (c *Client) newBar(size int64, desc string) *progressbar.ProgressBar {
	if !c.progress {
		return progressbar.DefaultBytesSilent(size, desc)
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(c.output),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func linkedDigest(h http.Header) string {
	etag := strings.ToLower(strings.Trim(h.Get(linkedEtagHeader), `"`))
	if sha256Pattern.MatchString(etag) {
		return etag
	}
	return ""
}

func verifySHA256(path, expected string) (bool, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), expected), nil
}
