// Package catalog keeps a SQLite index of the documents partitioned out of
// the corpus, so later runs can report on them without walking the tree.
package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// InMemory opens a throwaway catalog.
const InMemory = ":memory:"

// Document is one saved document.
type Document struct {
	ID         uint   `gorm:"primaryKey"`
	StoredPath string `gorm:"uniqueIndex"`
	Family     string `gorm:"index:idx_family_root"`
	Root       string `gorm:"index:idx_family_root"`
	Repo       string
	RepoPath   string
	Size       int64
	MD5        string `gorm:"index"`
	Source     string
	RowIndex   int64
	Stars      *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary aggregates documents per family and root element.
type Summary struct {
	Family    string `json:"family"`
	Root      string `json:"root"`
	Documents int64  `json:"documents"`
	Bytes     int64  `json:"bytes"`
}

// Duplicate is a content hash shared by more than one stored document.
type Duplicate struct {
	MD5   string   `json:"md5"`
	Count int64    `json:"count"`
	Paths []string `json:"paths" gorm:"-"`
}

// Catalog is a gorm-backed document index. It is safe for concurrent use;
// writes are serialized on a single connection.
type Catalog struct {
	db *gorm.DB
}

func dialector(path string) gorm.Dialector {
	if path == InMemory {
		return sqlite.Open(InMemory)
	}
	return sqlite.Open(path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
}

// Open opens or creates the catalog at path and migrates its schema.
func Open(path string) (*Catalog, error) {
	l := logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector(path), &gorm.Config{Logger: l})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Document{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	db, err := c.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Record inserts doc, replacing any entry with the same stored path.
func (c *Catalog) Record(ctx context.Context, doc *Document) error {
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stored_path"}},
			DoUpdates: clause.AssignmentColumns([]string{"family", "root", "repo", "repo_path", "size", "md5", "source", "row_index", "stars", "updated_at"}),
		}).
		Create(doc).Error
}

// Count returns the number of catalogued documents.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&Document{}).Count(&n).Error
	return n, err
}

// Summary returns document counts and sizes grouped by family and root.
func (c *Catalog) Summary(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := c.db.WithContext(ctx).
		Model(&Document{}).
		Select("family, root, count(*) AS documents, sum(size) AS bytes").
		Group("family, root").
		Order("family, root").
		Scan(&out).Error
	return out, err
}

// Totals sums a summary.
func Totals(rows []Summary) (documents, bytes int64) {
	documents = lo.SumBy(rows, func(s Summary) int64 { return s.Documents })
	bytes = lo.SumBy(rows, func(s Summary) int64 { return s.Bytes })
	return documents, bytes
}

// Duplicates lists hashes stored under more than one path, most copies
// first. Paths are sorted.
func (c *Catalog) Duplicates(ctx context.Context) ([]Duplicate, error) {
	db := c.db.WithContext(ctx)

	var dups []Duplicate
	err := db.Model(&Document{}).
		Select("md5, count(*) AS count").
		Group("md5").
		Having("count(*) > 1").
		Order("count DESC, md5").
		Scan(&dups).Error
	if err != nil {
		return nil, err
	}

	for i := range dups {
		err := db.Model(&Document{}).
			Where("md5 = ?", dups[i].MD5).
			Order("stored_path").
			Pluck("stored_path", &dups[i].Paths).Error
		if err != nil {
			return nil, err
		}
	}
	return dups, nil
}
