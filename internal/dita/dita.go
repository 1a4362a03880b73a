// Package dita converts DITA topics to Markdown and HTML5 with the DITA
// Open Toolkit's dita command.
package dita

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

// ErrConversion is returned when the dita command fails for a format.
var ErrConversion = errors.New("dita conversion failed")

const (
	DefaultBinary   = "dita"
	DefaultMinBytes = 2048
	DefaultWorkers  = 8
)

// DefaultFormats are run in order for every file.
var DefaultFormats = []string{"markdown", "html5"}

var patterns = []string{"**/*.dita", "**/*.xml"}

// Outcome is what happened to one input file.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeSmall     Outcome = "skipped_small"
	OutcomeExisting  Outcome = "skipped_existing"
	OutcomeFailed    Outcome = "failed"
)

// Summary totals a batch.
type Summary struct {
	workpool.Result
	Converted int64 `json:"converted"`
	Small     int64 `json:"skipped_small"`
	Existing  int64 `json:"skipped_existing"`
}

// Converter drives the dita command.
type Converter struct {
	binary   string
	formats  []string
	minBytes int64
	runner   Runner
}

// Option configures a Converter.
type Option func(*Converter)

// WithBinary sets the dita executable.
func WithBinary(path string) Option {
	return func(c *Converter) {
		if path != "" {
			c.binary = path
		}
	}
}

// WithFormats sets the transtypes run per file.
func WithFormats(formats ...string) Option {
	return func(c *Converter) {
		if len(formats) > 0 {
			c.formats = formats
		}
	}
}

// WithMinBytes skips files smaller than n bytes.
func WithMinBytes(n int64) Option {
	return func(c *Converter) { c.minBytes = n }
}

// WithRunner replaces process execution.
func WithRunner(r Runner) Option {
	return func(c *Converter) { c.runner = r }
}

// New creates a converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		binary:   DefaultBinary,
		formats:  DefaultFormats,
		minBytes: DefaultMinBytes,
		runner:   ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover returns every *.dita and *.xml file under input, sorted.
func Discover(input string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.Glob(os.DirFS(input), p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			files = append(files, filepath.Join(input, filepath.FromSlash(m)))
		}
	}
	files = lo.Uniq(files)
	sort.Strings(files)
	return files, nil
}

// OutputDir returns <output>/<path of file relative to input, without
// extension>.
func OutputDir(input, output, file string) (string, error) {
	rel, err := filepath.Rel(input, file)
	if err != nil {
		return "", err
	}
	return filepath.Join(output, strings.TrimSuffix(rel, filepath.Ext(rel))), nil
}

// ErrorFile returns the path stderr is written to when a format fails.
func ErrorFile(outDir, file string) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(outDir, "error_"+stem+".error")
}

// Convert runs every format for one file. Files below the size threshold
// or already converted are skipped. The original is copied next to the
// outputs, so its presence marks the file as done.
func (c *Converter) Convert(ctx context.Context, input, output, file string) (Outcome, error) {
	info, err := os.Stat(file)
	if err != nil {
		return OutcomeFailed, err
	}
	if info.Size() < c.minBytes {
		return OutcomeSmall, nil
	}

	outDir, err := OutputDir(input, output, file)
	if err != nil {
		return OutcomeFailed, err
	}
	done := filepath.Join(outDir, filepath.Base(file))
	if _, err := os.Stat(done); err == nil {
		return OutcomeExisting, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return OutcomeFailed, err
	}

	tmp, err := os.MkdirTemp("", "dita2md-*")
	if err != nil {
		return OutcomeFailed, err
	}
	defer os.RemoveAll(tmp)

	prepared, err := Prepare(file, tmp)
	if err != nil {
		return OutcomeFailed, err
	}

	var failed []string
	var stderrs []string
	for _, format := range c.formats {
		stderr, err := c.runner.Run(ctx, c.binary,
			"--input="+prepared,
			"--format="+format,
			"--output="+outDir,
		)
		if ctx.Err() != nil {
			return OutcomeFailed, ctx.Err()
		}
		if err != nil {
			logger.DebugContext(ctx, "dita failed", "file", file, "format", format, "error", err)
			failed = append(failed, format)
			stderrs = append(stderrs, string(stderr))
		}
	}

	if len(failed) > 0 {
		if err := os.WriteFile(ErrorFile(outDir, file), []byte(strings.Join(stderrs, "\n")), 0o644); err != nil { //#nosec G306
			logger.Warn("write error file", "file", file, "error", err)
		}
	}

	if err := copyFile(file, done); err != nil {
		return OutcomeFailed, err
	}

	if len(failed) > 0 {
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrConversion, strings.Join(failed, ", "))
	}
	return OutcomeConverted, nil
}

// Run converts every discovered file under input using a worker pool.
func (c *Converter) Run(ctx context.Context, input, output string, opts ...workpool.Option) (Summary, error) {
	files, err := Discover(input)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return Summary{}, err
	}

	var converted, small, existing atomic.Int64
	opts = append([]workpool.Option{
		workpool.WithWorkers(DefaultWorkers),
		workpool.WithDescription("dita2md"),
		workpool.WithLabel(func(i int) string { return files[i] }),
	}, opts...)

	res, err := workpool.Run(ctx, files, func(ctx context.Context, file string) error {
		outcome, err := c.Convert(ctx, input, output, file)
		switch outcome {
		case OutcomeConverted:
			converted.Add(1)
		case OutcomeSmall:
			small.Add(1)
		case OutcomeExisting:
			existing.Add(1)
		}
		return err
	}, opts...)

	return Summary{
		Result:    res,
		Converted: converted.Load(),
		Small:     small.Load(),
		Existing:  existing.Load(),
	}, err
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //#nosec G304
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644) //#nosec G306
}
