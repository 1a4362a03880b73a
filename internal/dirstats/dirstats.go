// Package dirstats reports file counts and sizes for each top-level
// directory of a dataset tree.
package dirstats

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// DefaultExclude skips metadata sidecars.
var DefaultExclude = []string{"json"}

// Dir summarizes one subdirectory.
type Dir struct {
	Path   string  `json:"path"`
	Files  int     `json:"files"`
	Bytes  int64   `json:"bytes"`
	Mean   float64 `json:"mean_bytes"`
	Median float64 `json:"median_bytes"`
	P95    float64 `json:"p95_bytes"`
}

// MB returns Bytes in mebibytes.
func (d Dir) MB() float64 {
	return float64(d.Bytes) / (1024 * 1024)
}

// Collect summarizes every immediate subdirectory of root, sorted by path.
// Files whose name ends with any of exclude are not counted.
func Collect(ctx context.Context, root string, exclude []string) ([]Dir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []Dir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := collectDir(ctx, filepath.Join(root, e.Name()), exclude)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	return dirs, nil
}

func collectDir(ctx context.Context, dir string, exclude []string) (Dir, error) {
	d := Dir{Path: dir}
	var sizes stats.Float64Data

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || excluded(entry.Name(), exclude) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		d.Files++
		d.Bytes += info.Size()
		sizes = append(sizes, float64(info.Size()))
		return nil
	})
	if err != nil {
		return d, err
	}

	if len(sizes) > 0 {
		d.Mean, _ = stats.Mean(sizes)
		d.Median, _ = stats.Median(sizes)
		d.P95, _ = stats.Percentile(sizes, 95)
	}
	return d, nil
}

func excluded(name string, exclude []string) bool {
	for _, ext := range exclude {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
