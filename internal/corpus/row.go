// Package corpus reads records from source-code corpus shards.
package corpus

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a row lacks a field a job depends on.
var ErrMissingField = errors.New("missing field")

// Row is one corpus record. Column names follow the published dataset.
type Row struct {
	HexSHA   string `parquet:"hexsha,optional" json:"hexsha"`
	Size     int64  `parquet:"size,optional" json:"size"`
	Ext      string `parquet:"ext,optional" json:"ext"`
	Lang     string `parquet:"lang,optional" json:"lang"`
	RepoPath string `parquet:"max_stars_repo_path,optional" json:"max_stars_repo_path"`
	RepoName string `parquet:"max_stars_repo_name,optional" json:"max_stars_repo_name"`
	RepoHead string `parquet:"max_stars_repo_head_hexsha,optional" json:"max_stars_repo_head_hexsha"`
	Stars    *int64 `parquet:"max_stars_count,optional" json:"max_stars_count"`
	Content  string `parquet:"content,optional" json:"content"`

	// Index is the zero-based position of the row within Source.
	Index int64 `parquet:"-" json:"-"`
	// Source names the shard the row came from.
	Source string `parquet:"-" json:"-"`
}

// Metadata is the sidecar form of a row: every column, with content nulled.
type Metadata struct {
	HexSHA   string  `json:"hexsha"`
	Size     int64   `json:"size"`
	Ext      string  `json:"ext"`
	Lang     string  `json:"lang"`
	RepoPath string  `json:"max_stars_repo_path"`
	RepoName string  `json:"max_stars_repo_name"`
	RepoHead string  `json:"max_stars_repo_head_hexsha"`
	Stars    *int64  `json:"max_stars_count"`
	Content  *string `json:"content"`
	Error    string  `json:"ERROR,omitempty"`
}

// Metadata returns the row's sidecar record.
func (r Row) Metadata() Metadata {
	return Metadata{
		HexSHA:   r.HexSHA,
		Size:     r.Size,
		Ext:      r.Ext,
		Lang:     r.Lang,
		RepoPath: r.RepoPath,
		RepoName: r.RepoName,
		RepoHead: r.RepoHead,
		Stars:    r.Stars,
	}
}

// Validate checks the fields every routing job needs.
func (r Row) Validate() error {
	switch {
	case r.RepoName == "":
		return fmt.Errorf("%w: max_stars_repo_name", ErrMissingField)
	case r.RepoPath == "":
		return fmt.Errorf("%w: max_stars_repo_path", ErrMissingField)
	}
	return nil
}

// String identifies the row in log output.
func (r Row) String() string {
	return fmt.Sprintf("%s#%d", r.Source, r.Index)
}
