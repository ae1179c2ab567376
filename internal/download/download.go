// Package download keeps what a torrent stream downloaded. Library implements
// the save/purge hooks: streamed files are copied or moved from the temp
// directory into the download directory, then the temp directory is purged.
// Destination paths are validated against directory traversal.
package download

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lostfilm/internal/httputil"
)

// Library owns the download directory and the stream temp directory.
type Library struct {
	Dir     string // Where kept files end up
	TempDir string // Root of per-stream temp dirs
}

// SaveFiles stores files under Dir, keeping their layout relative to the
// stream dir they were downloaded into, and purges the temp dir afterwards.
// With move set the files are renamed instead of copied.
func (l *Library) SaveFiles(files []string, move bool) error {
	absDir, err := filepath.Abs(l.Dir)
	if err != nil {
		return fmt.Errorf("resolving download directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	var errs []error
	for _, src := range files {
		rel, err := l.relative(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dest, err := httputil.SafeRelativePath(absDir, rel)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid output path: %w", err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", filepath.Dir(dest), err))
			continue
		}

		if move {
			err = moveFile(src, dest)
		} else {
			err = copyFile(src, dest)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Debug("saved file", "path", dest, "moved", move)
	}

	if err := l.PurgeTemp(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// relative strips TempDir and the per-stream dir from a temp file path.
func (l *Library) relative(src string) (string, error) {
	rel, err := filepath.Rel(l.TempDir, src)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not inside %s", src, l.TempDir)
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) < 2 {
		return parts[0], nil
	}
	return filepath.FromSlash(parts[1]), nil
}

// PurgeTemp removes everything inside TempDir, leaving the directory itself.
func (l *Library) PurgeTemp() error {
	entries, err := os.ReadDir(l.TempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading temp dir: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(l.TempDir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy and remove.
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFile copies src to dest atomically (temp file + rename).
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := io.Copy(tmpFile, in); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", dest, err)
	}
	return nil
}
