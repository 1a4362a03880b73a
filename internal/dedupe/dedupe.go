// Package dedupe finds byte-identical files: files are bucketed by size and
// only buckets with more than one member are hashed.
package dedupe

import (
	"context"
	"crypto/md5" //#nosec G501
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/prescod/the-xml-document-stack/internal/logger"
)

// Group is a set of files with identical content.
type Group struct {
	Size  int64    `json:"size"`
	MD5   string   `json:"md5"`
	Paths []string `json:"paths"`
}

// Redundant returns the bytes that removing all but one copy would free.
func (g Group) Redundant() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

type file struct {
	path string
	size int64
}

// Find walks root and returns duplicate groups sorted by size descending,
// then by first path. Paths within a group are sorted. Files that cannot be
// read are logged and skipped.
func Find(ctx context.Context, root string) ([]Group, error) {
	var files []file
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		files = append(files, file{path: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	bySize := lo.PickBy(lo.GroupBy(files, func(f file) int64 { return f.size }),
		func(_ int64, same []file) bool { return len(same) > 1 })

	var groups []Group
	for size, candidates := range bySize {
		byHash := map[string][]string{}
		for _, f := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sum, err := hashFile(f.path)
			if err != nil {
				logger.Warn("skipping unreadable file", "path", f.path, "error", err)
				continue
			}
			byHash[sum] = append(byHash[sum], f.path)
		}
		for sum, paths := range byHash {
			if len(paths) < 2 {
				continue
			}
			sort.Strings(paths)
			groups = append(groups, Group{Size: size, MD5: sum, Paths: paths})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Paths[0] < groups[j].Paths[0]
	})
	return groups, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //#nosec G401
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Prune keeps the first path of every group and removes the rest. With
// dryRun nothing is removed. It returns the paths removed (or that would
// be) and every removal error joined.
func Prune(groups []Group, dryRun bool) ([]string, error) {
	var removed []string
	var errs []error
	for _, g := range groups {
		for _, path := range g.Paths[1:] {
			if !dryRun {
				if err := os.Remove(path); err != nil {
					errs = append(errs, err)
					continue
				}
			}
			removed = append(removed, path)
		}
	}
	return removed, errors.Join(errs...)
}

// Redundant sums the redundant bytes of every group.
func Redundant(groups []Group) int64 {
	return lo.SumBy(groups, Group.Redundant)
}
