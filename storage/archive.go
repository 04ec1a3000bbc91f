package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"immo-tracker/models"
)

// createExclusive creates dir/<base>_<date><ext>. When that file already
// exists a time suffix is added, then a counter, so earlier archives are
// never overwritten.
func createExclusive(dir, base, ext string, now time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create archive dir: %w", err)
	}

	stem := fmt.Sprintf("%s_%s", base, now.Format(models.DateLayout))
	candidates := []string{stem, stem + "_" + now.Format("150405")}
	for i := 2; i <= 100; i++ {
		candidates = append(candidates, fmt.Sprintf("%s_%s_%d", stem, now.Format("150405"), i))
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name+ext)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free archive name for %s in %s", stem, dir)
}

// writeCheckpoint stores a CSV copy of listings named after the store.
func writeCheckpoint(dir, storeName string, listings []*models.Listing, now time.Time) (string, error) {
	f, path, err := createExclusive(dir, "checkpoint_"+storeName, ".csv", now)
	if err != nil {
		return "", fmt.Errorf("checkpoint: %w", err)
	}
	if err := WriteCSV(f, listings); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("checkpoint: close %s: %w", path, err)
	}
	return path, nil
}

// backupFile copies src into dir as <name>_<date><ext>. A missing src is not
// an error; the returned path is then empty.
func backupFile(src, dir string, now time.Time) (string, error) {
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("backup: open %s: %w", src, err)
	}
	defer in.Close()

	ext := filepath.Ext(src)
	base := strings.TrimSuffix(filepath.Base(src), ext)
	out, path, err := createExclusive(dir, base, ext, now)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("backup: copy to %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("backup: close %s: %w", path, err)
	}
	return path, nil
}
