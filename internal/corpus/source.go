package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/parquet-go/parquet-go"
)

const (
	parquetMIME = "application/vnd.apache.parquet"

	// readBatch bounds memory: content cells are whole source files.
	readBatch = 32

	// maxLine is the largest JSONL record accepted.
	maxLine = 256 << 20
)

// Source streams rows from one shard.
type Source interface {
	// Name is the shard's file name, used in logs and quarantine names.
	Name() string

	// Each calls fn for every row in order. It stops at the first error
	// returned by fn or when ctx is done.
	Each(ctx context.Context, fn func(Row) error) error

	Close() error
}

// Open detects the shard format and returns a matching Source.
// Parquet files are read natively; anything else is treated as JSON Lines.
func Open(path string) (Source, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}

	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, err
	}

	name := sourceName(path)
	if mt.Is(parquetMIME) || strings.EqualFold(filepath.Ext(path), ".parquet") {
		return &parquetSource{name: name, f: f}, nil
	}
	return &jsonlSource{name: name, f: f}, nil
}

// sourceName qualifies the shard's file name with its parent directory, as
// in "xml/train-00000-of-00297.parquet". Shards of different languages
// share file names.
func sourceName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return filepath.Base(path)
	}
	return dir + "/" + filepath.Base(path)
}

type parquetSource struct {
	name string
	f    *os.File
}

func (s *parquetSource) Name() string { return s.name }

func (s *parquetSource) Each(ctx context.Context, fn func(Row) error) error {
	reader := parquet.NewGenericReader[Row](s.f)
	defer reader.Close()

	buf := make([]Row, readBatch)
	var index int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			row := buf[i]
			row.Index = index
			row.Source = s.name
			index++
			if ferr := fn(row); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s at row %d: %w", s.name, index, err)
		}
	}
}

func (s *parquetSource) Close() error { return s.f.Close() }

type jsonlSource struct {
	name string
	f    *os.File
}

func (s *jsonlSource) Name() string { return s.name }

func (s *jsonlSource) Each(ctx context.Context, fn func(Row) error) error {
	scanner := bufio.NewScanner(s.f)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLine)

	var index int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("decode %s line %d: %w", s.name, index+1, err)
		}
		row.Index = index
		row.Source = s.name
		index++
		if err := fn(row); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *jsonlSource) Close() error { return s.f.Close() }
