package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile serializes v to path in the given format, creating parent
// directories as needed. Existing files are overwritten so reprocessing a
// corpus shard yields the same tree.
func WriteFile(path string, format Format, v any, opts ...WriterOption) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path) //#nosec G304
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	w, err := NewWriter(f, format, opts...)
	if err != nil {
		return err
	}
	if err := w.Write(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Close()
}
