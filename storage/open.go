package storage

import (
	"context"
	"fmt"

	"immo-tracker/config"
	"immo-tracker/utils"
)

// Open returns the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Store, error) {
	opts := Options{CheckpointDir: cfg.CheckpointDir, BackupDir: cfg.BackupDir}

	switch cfg.StoreDriver {
	case config.DriverCSV, "":
		return NewCSVStore(cfg.StorePath, opts, logger), nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.StorePath, opts, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DSN(), opts, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
	}
}
