package simplify

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SimplifiedSuffix marks files written by the simplifier. They are never
// picked up as inputs.
const SimplifiedSuffix = ".simplified.html"

// Discover returns every *.html file under root, excluding simplified
// outputs, sorted by path.
func Discover(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.html", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, SimplifiedSuffix) {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns where the simplified form of file is written: outdir
// plus the base name, or the file itself with its extension replaced.
func OutputPath(file, outdir string) string {
	if outdir != "" {
		return filepath.Join(outdir, filepath.Base(file))
	}
	return strings.TrimSuffix(file, filepath.Ext(file)) + SimplifiedSuffix
}
