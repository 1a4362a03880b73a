package partition

import (
	"context"
	"crypto/md5" //#nosec G501
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prescod/the-xml-document-stack/internal/catalog"
	"github.com/prescod/the-xml-document-stack/internal/corpus"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/output"
	"github.com/prescod/the-xml-document-stack/internal/sniff"
)

// Recorder receives every saved document. *catalog.Catalog implements it.
type Recorder interface {
	Record(ctx context.Context, doc *catalog.Document) error
}

// Entry is a document ready to be written.
type Entry struct {
	Path   string
	Family sniff.Family
	Root   string
	Row    corpus.Row
}

// Store writes documents, their sidecars and quarantined rows.
type Store struct {
	layout   Layout
	recorder Recorder
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRecorder records every saved document.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

// NewStore creates a store rooted at layout.Root.
func NewStore(layout Layout, opts ...StoreOption) *Store {
	s := &Store{layout: layout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layout returns the store's layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Save writes the entry's content and sidecar, overwriting earlier runs.
// A failed catalog write is logged; the files stay.
func (s *Store) Save(ctx context.Context, e Entry) error {
	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(e.Path, []byte(e.Row.Content), 0o644); err != nil { //#nosec G306
		return fmt.Errorf("write document: %w", err)
	}
	if err := output.WriteFile(Sidecar(e.Path), output.FormatJSON, e.Row.Metadata()); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, document(e)); err != nil {
			logger.Warn("catalog record failed", "path", e.Path, "error", err)
		}
	}
	return nil
}

// Quarantine writes a row that could not be saved to the bad directory with
// the cause in its metadata.
func (s *Store) Quarantine(row corpus.Row, cause error) error {
	content, metadata := s.layout.Quarantine(row.Source, row.Index)
	if err := os.MkdirAll(filepath.Dir(content), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(content, []byte(row.Content), 0o644); err != nil { //#nosec G306
		return err
	}

	meta := row.Metadata()
	meta.Error = cause.Error()
	return output.WriteFile(metadata, output.FormatJSON, meta)
}

func document(e Entry) *catalog.Document {
	sum := md5.Sum([]byte(e.Row.Content)) //#nosec G401
	return &catalog.Document{
		StoredPath: filepath.ToSlash(e.Path),
		Family:     string(e.Family),
		Root:       e.Root,
		Repo:       e.Row.RepoName,
		RepoPath:   e.Row.RepoPath,
		Size:       int64(len(e.Row.Content)),
		MD5:        hex.EncodeToString(sum[:]),
		Source:     e.Row.Source,
		RowIndex:   e.Row.Index,
		Stars:      e.Row.Stars,
	}
}
