package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"immo-tracker/config"
	"immo-tracker/pipeline"
	"immo-tracker/scraper/immowelt"
	"immo-tracker/storage"
	"immo-tracker/utils"
)

// app holds what every command needs: the configuration and a logger.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(utils.LoggerOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// runLogger tags every entry of one run with a fresh run ID.
func (a *app) runLogger() *utils.Logger {
	return a.logger.With("run_id", uuid.NewString())
}

func (a *app) openStore(ctx context.Context, logger *utils.Logger) (storage.Store, error) {
	store, err := storage.Open(ctx, a.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// newRunner assembles the crawl pipeline from the configuration.
func (a *app) newRunner(store storage.Store, logger *utils.Logger) *pipeline.Runner {
	cfg := a.cfg
	fetcher := immowelt.NewHTTPFetcher(immowelt.FetcherConfig{
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.RequestTimeout,
		Delay:         cfg.RequestDelay,
		RetryAttempts: cfg.RetryAttempts,
	}, logger)
	extractor := immowelt.NewExtractor(cfg.SiteBaseURL)

	return pipeline.NewRunner(
		immowelt.NewCrawler(fetcher, extractor, logger),
		immowelt.NewEnricher(fetcher, extractor, logger, cfg.MaxConcurrency, cfg.RequestDelay),
		store,
		logger,
		pipeline.Options{
			StartURL:            cfg.BaseSearchURL,
			Backup:              cfg.BackupEnabled,
			Checkpoint:          cfg.CheckpointEnabled,
			CloseOnPartialCrawl: cfg.CloseOnPartialCrawl,
		},
	)
}

// crawlOnce performs one complete run with its own store connection.
func (a *app) crawlOnce(ctx context.Context) error {
	logger := a.runLogger()
	store, err := a.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := a.newRunner(store, logger).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Run finished: %d crawled, %d new, %d closed, %d enriched, %d stored",
		sum.Crawled, sum.New, sum.Closed, sum.Enriched, sum.Total)
	return nil
}
