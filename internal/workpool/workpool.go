// Package workpool runs a function over independent items with a fixed
// number of workers. One item failing never stops the others.
package workpool

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/prescod/the-xml-document-stack/internal/logger"
)

// DefaultWorkers is used when no worker count is configured.
const DefaultWorkers = 4

// Result counts item outcomes.
type Result struct {
	Total  int   `json:"total"`
	Done   int64 `json:"done"`
	Failed int64 `json:"failed"`
}

// OK reports whether every item succeeded.
func (r Result) OK() bool {
	return r.Failed == 0 && r.Done == int64(r.Total)
}

type options struct {
	workers     int
	progress    bool
	description string
	output      io.Writer
	label       func(i int) string
}

// Option configures Run.
type Option func(*options)

// WithWorkers sets the number of concurrent items. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithProgress toggles the progress bar.
func WithProgress(enabled bool) Option {
	return func(o *options) { o.progress = enabled }
}

// WithDescription labels the progress bar and failure logs.
func WithDescription(desc string) Option {
	return func(o *options) { o.description = desc }
}

// WithOutput sets where the progress bar is drawn (default stderr).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLabel names item i in failure logs, typically its path.
func WithLabel(label func(i int) string) Option {
	return func(o *options) { o.label = label }
}

// Run calls fn for every item using a bounded pool. Errors and panics are
// logged and counted per item. Run returns ctx.Err() when cancelled; items
// not yet started are then skipped.
func Run[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts ...Option) (Result, error) {
	o := options{
		workers:     DefaultWorkers,
		progress:    logger.Interactive(),
		description: "processing",
		output:      os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	bar := newBar(len(items), o)
	result := Result{Total: len(items)}
	var done, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(o.workers)

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			if err := call(ctx, fn, item); err != nil {
				failed.Add(1)
				logger.ErrorContext(ctx, o.description+" failed", itemAttrs(o, i, err)...)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	result.Done = done.Load()
	result.Failed = failed.Load()
	return result, ctx.Err()
}

func call[T any](ctx context.Context, fn func(context.Context, T) error, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, item)
}

func itemAttrs(o options, i int, err error) []any {
	attrs := []any{"index", i, "error", err}
	if o.label != nil {
		attrs = append(attrs, "item", o.label(i))
	}
	return attrs
}

func newBar(total int, o options) *progressbar.ProgressBar {
	if !o.progress {
		return progressbar.DefaultSilent(int64(total), o.description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(o.output),
		progressbar.OptionSetDescription(o.description),
		progressbar.OptionThrottle(time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "#", SaucerPadding: " ", BarStart: "|", BarEnd: "|"}),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
