package messy

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Extension replaces the source extension of rendered files.
const Extension = ".messy"

// Discover returns every *.html file under root sorted by path. The order
// fixes which per-process seed each file receives.
func Discover(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.html", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns file with its extension replaced by Extension.
func OutputPath(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + Extension
}
