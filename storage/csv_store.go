package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"immo-tracker/models"
	"immo-tracker/utils"
)

// CSVStore keeps the snapshot in a single CSV file.
type CSVStore struct {
	path   string
	opts   Options
	logger *utils.Logger
}

// NewCSVStore returns a store backed by the file at path. The file is created
// on the first Save.
func NewCSVStore(path string, opts Options, logger *utils.Logger) *CSVStore {
	return &CSVStore{path: path, opts: opts, logger: logger}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) Load(ctx context.Context) ([]*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Info("[csv] Loading existing data from %s", s.path)

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("[csv] No existing data found, starting fresh")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", s.path, err)
	}
	defer f.Close()

	listings, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("csv: load %s: %w", s.path, err)
	}
	s.logger.Info("[csv] Loaded %d existing records", len(listings))
	return listings, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the store, so readers never see a half-written table.
func (s *CSVStore) Save(ctx context.Context, listings []*models.Listing, checkpoint bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if checkpoint {
		path, err := writeCheckpoint(s.opts.CheckpointDir, filepath.Base(s.path), listings, s.opts.now())
		if err != nil {
			return err
		}
		s.logger.Info("[csv] Saved checkpoint to %s", path)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("csv: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCSV(tmp, listings); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("csv: replace %s: %w", s.path, err)
	}

	s.logger.Info("[csv] Saved %d records to %s", len(listings), s.path)
	return nil
}

func (s *CSVStore) Backup(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := backupFile(s.path, s.opts.BackupDir, s.opts.now())
	if err != nil {
		return "", err
	}
	if path == "" {
		s.logger.Info("[csv] Nothing to back up yet")
		return "", nil
	}
	s.logger.Info("[csv] Created backup: %s", path)
	return path, nil
}

func (s *CSVStore) Query(ctx context.Context, c Conditions, limit int) ([]*models.Listing, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return filterListings(all, c, limit), nil
}

func (s *CSVStore) Close() error { return nil }

// filterListings applies c and orders newest first, then by link.
func filterListings(all []*models.Listing, c Conditions, limit int) []*models.Listing {
	var out []*models.Listing
	for _, l := range all {
		if c.Match(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedDate, out[j].CreatedDate
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return b.Before(*a)
		}
		return out[i].Link < out[j].Link
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
