package partition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/prescod/the-xml-document-stack/internal/corpus"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/sniff"
)

// DefaultReadmeMinLength is the shortest README worth keeping, in characters.
const DefaultReadmeMinLength = 200

// ReadmeFamily and ReadmeRoot classify saved READMEs in the catalog.
const (
	ReadmeFamily sniff.Family = "text"
	ReadmeRoot                = "readme"
)

// Outcome is what happened to one routed row.
type Outcome string

const (
	OutcomeSaved        Outcome = "saved"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeUnclassified Outcome = "unclassified"
	OutcomeExcluded     Outcome = "excluded"
	OutcomeQuarantined  Outcome = "quarantined"
	OutcomeFailed       Outcome = "failed"
)

// Counts tallies outcomes across every row a router has seen.
type Counts struct {
	Saved        int64 `json:"saved"`
	Skipped      int64 `json:"skipped"`
	Unclassified int64 `json:"unclassified"`
	Excluded     int64 `json:"excluded"`
	Quarantined  int64 `json:"quarantined"`
	Failed       int64 `json:"failed"`
}

// Total returns the number of rows routed.
func (c Counts) Total() int64 {
	return c.Saved + c.Skipped + c.Unclassified + c.Excluded + c.Quarantined + c.Failed
}

type tally struct {
	saved, skipped, unclassified, excluded, quarantined, failed atomic.Int64
}

func (t *tally) add(o Outcome) Outcome {
	switch o {
	case OutcomeSaved:
		t.saved.Add(1)
	case OutcomeSkipped:
		t.skipped.Add(1)
	case OutcomeUnclassified:
		t.unclassified.Add(1)
	case OutcomeExcluded:
		t.excluded.Add(1)
	case OutcomeQuarantined:
		t.quarantined.Add(1)
	case OutcomeFailed:
		t.failed.Add(1)
	}
	return o
}

func (t *tally) counts() Counts {
	return Counts{
		Saved:        t.saved.Load(),
		Skipped:      t.skipped.Load(),
		Unclassified: t.unclassified.Load(),
		Excluded:     t.excluded.Load(),
		Quarantined:  t.quarantined.Load(),
		Failed:       t.failed.Load(),
	}
}

// Router decides what to do with a row. Route never returns per-row
// errors; failures are quarantined and counted. Routers are safe for
// concurrent use.
type Router interface {
	Route(ctx context.Context, row corpus.Row) Outcome
	Counts() Counts
}

// save writes an entry, quarantining the row on failure.
func save(ctx context.Context, store *Store, t *tally, e Entry) Outcome {
	if err := store.Save(ctx, e); err != nil {
		return quarantine(store, t, e.Row, err)
	}
	logger.Debug("saved document", "path", e.Path, "source", e.Row.Source, "index", e.Row.Index)
	return t.add(OutcomeSaved)
}

func quarantine(store *Store, t *tally, row corpus.Row, cause error) Outcome {
	logger.Error("row quarantined", "source", row.Source, "index", row.Index, "path", row.RepoPath, "error", cause)
	if err := store.Quarantine(row, cause); err != nil {
		logger.Error("quarantine failed", "source", row.Source, "index", row.Index, "error", err)
		return t.add(OutcomeFailed)
	}
	return t.add(OutcomeQuarantined)
}

// XMLRouter saves markup documents under their family and root element.
type XMLRouter struct {
	store      *Store
	gate       sniff.Gate
	exclusions *sniff.Exclusions
	tally      tally
}

// NewXMLRouter creates a router. A nil exclusions set excludes nothing.
func NewXMLRouter(store *Store, gate sniff.Gate, exclusions *sniff.Exclusions) *XMLRouter {
	return &XMLRouter{store: store, gate: gate, exclusions: exclusions}
}

// Route gates, classifies and saves one row.
func (r *XMLRouter) Route(ctx context.Context, row corpus.Row) Outcome {
	if !r.gate.Match(row.Content) {
		return r.tally.add(OutcomeSkipped)
	}

	c := sniff.Classify(row.Content)
	if !c.OK() {
		logger.Debug("unclassified document", "source", row.Source, "index", row.Index, "doctype", c.Doctype)
		return r.tally.add(OutcomeUnclassified)
	}
	if r.exclusions.Match(c.Root) {
		return r.tally.add(OutcomeExcluded)
	}

	if err := row.Validate(); err != nil {
		return quarantine(r.store, &r.tally, row, err)
	}
	path, err := r.store.Layout().Document(c, row.RepoName, row.RepoPath)
	if err != nil {
		return quarantine(r.store, &r.tally, row, err)
	}

	return save(ctx, r.store, &r.tally, Entry{Path: path, Family: c.Family, Root: c.Root, Row: row})
}

// Counts returns the outcomes so far.
func (r *XMLRouter) Counts() Counts {
	return r.tally.counts()
}

// ReadmeRouter saves README files of a minimum length.
type ReadmeRouter struct {
	store     *Store
	minLength int
	tally     tally
}

// NewReadmeRouter creates a router. minLength below 1 uses the default.
func NewReadmeRouter(store *Store, minLength int) *ReadmeRouter {
	if minLength < 1 {
		minLength = DefaultReadmeMinLength
	}
	return &ReadmeRouter{store: store, minLength: minLength}
}

// Route saves row when its base name contains "readme" and its content is
// long enough.
func (r *ReadmeRouter) Route(ctx context.Context, row corpus.Row) Outcome {
	if utf8.RuneCountInString(row.Content) < r.minLength || !IsReadme(row.RepoPath) {
		return r.tally.add(OutcomeSkipped)
	}

	if err := row.Validate(); err != nil {
		return quarantine(r.store, &r.tally, row, err)
	}
	path, err := r.store.Layout().Readme(row.RepoName, row.RepoPath)
	if err != nil {
		return quarantine(r.store, &r.tally, row, err)
	}

	return save(ctx, r.store, &r.tally, Entry{Path: path, Family: ReadmeFamily, Root: ReadmeRoot, Row: row})
}

// Counts returns the outcomes so far.
func (r *ReadmeRouter) Counts() Counts {
	return r.tally.counts()
}

// IsReadme reports whether a repository path names a README.
func IsReadme(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(filepath.FromSlash(path))), "readme")
}

// Shard routes every row of the shard at path. Only failures to open or
// read the shard are returned.
func Shard(ctx context.Context, path string, r Router) error {
	src, err := corpus.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	log := logger.With("source", src.Name())
	log.Info("parsing shard")
	var rows int64
	err = src.Each(ctx, func(row corpus.Row) error {
		r.Route(ctx, row)
		rows++
		return nil
	})
	if err != nil {
		return fmt.Errorf("shard %s: %w", src.Name(), err)
	}
	log.Debug("shard done", "rows", rows)
	return nil
}
