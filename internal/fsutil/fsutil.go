package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// Exists reports whether path exists. Stat errors other than
// "not exist" are treated as existing, so callers probing for a free
// output name never claim a path they cannot verify.
func Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !os.IsNotExist(err)
}

// WriteFileAtomic writes data to path through a temporary file in the
// same directory followed by a rename. A failed conversion never leaves
// a truncated output behind.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".reformat-*")
	if err != nil {
		metrics.FileWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		metrics.FileWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		metrics.FileWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	// CreateTemp files are 0600; outputs should get normal permissions.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		logging.Debug("chmod %s: %v", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		metrics.FileWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("renaming %s to %s: %w", tmpName, path, err)
	}

	metrics.FileWrites.WithLabelValues("ok").Inc()
	return nil
}

// PreserveTimes stamps path with the given modification time.
func PreserveTimes(path string, modTime time.Time) error {
	return os.Chtimes(path, modTime, modTime)
}

// BestEffort runs fn and swallows its error, recording it at debug level.
// Used for operations that should never fail a conversion, like carrying
// a source file's timestamp onto its output.
func BestEffort(label string, fn func() error) {
	if err := fn(); err != nil {
		logging.Debug("best-effort %s: %v", label, err)
	}
}
