package commands

import (
	"fmt"
	"os"
	"path/filepath"
)

// inputs expands path into the files a command processes: path itself when
// it is a file, otherwise what discover finds beneath it.
func inputs(path string, discover func(string) ([]string, error)) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := discover(path)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return files, nil
}

// writeText writes s to path, creating parent directories.
func writeText(path, s string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644) //#nosec G306
}

// relativeTo returns file's path below root, or its base name when root is
// the file itself.
func relativeTo(root, file string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return filepath.Base(file), nil
	}
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", file, err)
	}
	return rel, nil
}
