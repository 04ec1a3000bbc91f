package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"immo-tracker/models"
	"immo-tracker/utils"
)

const insertBatchSize = 50

// schema works unchanged on SQLite and PostgreSQL. Dates are stored in their
// YYYY-MM-DD text form so range filters compare lexically.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		link            TEXT PRIMARY KEY,
		raw_price       TEXT,
		raw_description TEXT,
		raw_details     TEXT,
		raw_address     TEXT,
		features        TEXT,
		full_address    TEXT,
		latitude        DOUBLE PRECISION,
		longitude       DOUBLE PRECISION,
		created_date    TEXT,
		closed_date     TEXT,
		price_value     DOUBLE PRECISION,
		living_area_sqm DOUBLE PRECISION,
		plot_area_sqm   DOUBLE PRECISION,
		room_count      DOUBLE PRECISION,
		price_per_sqm   DOUBLE PRECISION,
		image_urls      TEXT,
		preview_image   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_created_date ON listings(created_date)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_closed_date  ON listings(closed_date)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price_value  ON listings(price_value)`,
}

var selectColumns = strings.Join(Columns, ", ")

// SQLStore keeps the snapshot in a listings table reached through sqlx.
type SQLStore struct {
	db     *sqlx.DB
	name   string
	path   string // database file, empty for server databases
	opts   Options
	logger *utils.Logger
}

// NewSQLStore wraps an open database. name labels checkpoints and logs.
// Call Migrate before first use.
func NewSQLStore(db *sqlx.DB, name string, opts Options, logger *utils.Logger) *SQLStore {
	return &SQLStore{db: db, name: name, opts: opts, logger: logger}
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts Options, logger *utils.Logger) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	s := NewSQLStore(db, filepath.Base(path), opts, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL, waiting for the server to accept
// connections, and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, opts Options, logger *utils.Logger) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	ping := &utils.RetryConfig{MaxAttempts: 10, Delay: time.Second, Logger: logger}
	if err := ping.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	s := NewSQLStore(db, "listings", opts, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

// Migrate creates the listings table and its indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) ([]*models.Listing, error) {
	s.logger.Info("[%s] Loading existing data from %s", s.db.DriverName(), s.name)

	var rows []listingRow
	query := "SELECT " + selectColumns + " FROM listings ORDER BY created_date, link"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: load: %w", s.db.DriverName(), err)
	}

	listings := make([]*models.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, r.listing())
	}
	s.logger.Info("[%s] Loaded %d existing records", s.db.DriverName(), len(listings))
	return listings, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLStore) Save(ctx context.Context, listings []*models.Listing, checkpoint bool) error {
	if checkpoint {
		path, err := writeCheckpoint(s.opts.CheckpointDir, s.name, listings, s.opts.now())
		if err != nil {
			return err
		}
		s.logger.Info("[%s] Saved checkpoint to %s", s.db.DriverName(), path)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.db.DriverName(), err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("%s: clear: %w", s.db.DriverName(), err)
	}
	for i := 0; i < len(listings); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := s.insertBatch(ctx, tx, listings[i:end]); err != nil {
			return fmt.Errorf("%s: insert: %w", s.db.DriverName(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.db.DriverName(), err)
	}

	s.logger.Info("[%s] Saved %d records to %s", s.db.DriverName(), len(listings), s.name)
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sqlx.Tx, batch []*models.Listing) error {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(Columns)), ",") + ")"
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(Columns))

	for _, l := range batch {
		valueStrings = append(valueStrings, placeholder)
		valueArgs = append(valueArgs, toRow(l).args()...)
	}

	query := fmt.Sprintf("INSERT INTO listings (%s) VALUES %s",
		selectColumns, strings.Join(valueStrings, ","))
	_, err := tx.ExecContext(ctx, tx.Rebind(query), valueArgs...)
	return err
}

// Backup snapshots the database. SQLite databases are copied with VACUUM
// INTO; server databases are exported as CSV.
func (s *SQLStore) Backup(ctx context.Context) (string, error) {
	if s.path == "" {
		listings, err := s.Load(ctx)
		if err != nil {
			return "", fmt.Errorf("backup: %w", err)
		}
		f, path, err := createExclusive(s.opts.BackupDir, s.name, ".csv", s.opts.now())
		if err != nil {
			return "", fmt.Errorf("backup: %w", err)
		}
		if err := WriteCSV(f, listings); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("backup: close %s: %w", path, err)
		}
		s.logger.Info("[%s] Exported backup: %s", s.db.DriverName(), path)
		return path, nil
	}

	ext := filepath.Ext(s.path)
	f, path, err := createExclusive(s.opts.BackupDir, strings.TrimSuffix(s.name, ext), ext, s.opts.now())
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	_ = f.Close()
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("backup: vacuum into %s: %w", path, err)
	}
	s.logger.Info("[%s] Created backup: %s", s.db.DriverName(), path)
	return path, nil
}

// Query filters in SQL, newest first.
func (s *SQLStore) Query(ctx context.Context, c Conditions, limit int) ([]*models.Listing, error) {
	where, args := buildWhere(c)
	query := "SELECT " + selectColumns + " FROM listings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_date DESC, link"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.db.DriverName(), err)
	}
	listings := make([]*models.Listing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, r.listing())
	}
	return listings, nil
}

func buildWhere(c Conditions) ([]string, []any) {
	var where []string
	var args []any

	switch c.Status {
	case StatusActive:
		where = append(where, "(closed_date IS NULL OR closed_date = '')")
	case StatusClosed:
		where = append(where, "closed_date IS NOT NULL AND closed_date <> ''")
	}
	if c.MinPrice != nil {
		where = append(where, "price_value >= ?")
		args = append(args, *c.MinPrice)
	}
	if c.MaxPrice != nil {
		where = append(where, "price_value <= ?")
		args = append(args, *c.MaxPrice)
	}
	if c.MinRooms != nil {
		where = append(where, "room_count >= ?")
		args = append(args, *c.MinRooms)
	}
	if c.MinLivingArea != nil {
		where = append(where, "living_area_sqm >= ?")
		args = append(args, *c.MinLivingArea)
	}
	if c.CreatedSince != nil {
		where = append(where, "created_date >= ?")
		args = append(args, c.CreatedSince.String())
	}
	if c.AddressContains != "" {
		pattern := "%" + strings.ToLower(c.AddressContains) + "%"
		where = append(where, "(LOWER(COALESCE(raw_address, '')) LIKE ? OR LOWER(COALESCE(full_address, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	return where, args
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
