// Package pipeline wires crawling, normalisation, reconciliation and
// persistence into one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"immo-tracker/models"
	"immo-tracker/scraper/immowelt"
	"immo-tracker/services"
	"immo-tracker/storage"
	"immo-tracker/utils"
)

// ErrNoListings means the crawl produced nothing usable. The store is left
// untouched so a failed crawl is never read as "everything closed".
var ErrNoListings = errors.New("no listings found")

// Crawler walks the search results.
type Crawler interface {
	CrawlAll(ctx context.Context, startURL string) immowelt.CrawlResult
}

// Enricher applies detail-page data to listings in place.
type Enricher interface {
	Enrich(ctx context.Context, listings []*models.Listing) int
}

// Options control a Runner.
type Options struct {
	StartURL   string
	Backup     bool
	Checkpoint bool
	// CloseOnPartialCrawl marks missing listings closed even when the crawl
	// stopped before the last page.
	CloseOnPartialCrawl bool
	// Today defaults to models.Today.
	Today func() models.Date
}

func (o Options) today() models.Date {
	if o.Today != nil {
		return o.Today()
	}
	return models.Today()
}

// Summary describes a completed run.
type Summary struct {
	Crawled         int
	Normalized      int
	New             int
	Closed          int
	Unchanged       int
	Enriched        int
	Total           int
	Truncated       bool
	ClosuresSkipped bool
	BackupPath      string
	Report          *models.InsightReport
}

// Runner executes crawl-and-reconcile runs against one store.
type Runner struct {
	crawler  Crawler
	enricher Enricher
	store    storage.Store
	cleaner  *services.Cleaner
	insights *services.InsightService
	logger   *utils.Logger
	out      io.Writer
	opts     Options
}

// NewRunner creates a Runner. Statistics tables are printed to stdout.
func NewRunner(crawler Crawler, enricher Enricher, store storage.Store, logger *utils.Logger, opts Options) *Runner {
	return &Runner{
		crawler:  crawler,
		enricher: enricher,
		store:    store,
		cleaner:  services.NewCleaner(logger),
		insights: services.NewInsightService(logger),
		logger:   logger,
		out:      os.Stdout,
		opts:     opts,
	}
}

// WithOutput sets where statistics tables are printed.
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.out = w
	return r
}

// Run performs one crawl and reconciles it into the store. On any error the
// previously saved snapshot is left as it was.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	today := r.opts.today()
	sum := &Summary{}
	r.logger.Info("Starting crawl-and-reconcile run for %s", today)

	sum.BackupPath = r.backup(ctx)

	existing, err := r.store.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Error("Could not load existing data, starting from an empty snapshot: %v", err)
		existing = nil
	}

	res := r.crawler.CrawlAll(ctx, r.opts.StartURL)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum.Crawled = len(res.Listings)
	sum.Truncated = res.Truncated
	if len(res.Listings) == 0 {
		r.logger.Error("No listings were found. Leaving the store untouched.")
		return nil, ErrNoListings
	}

	incoming := r.cleaner.Normalize(res.Listings)
	sum.Normalized = len(incoming)
	if len(incoming) == 0 {
		r.logger.Error("All crawled listings were dropped during normalization. Leaving the store untouched.")
		return nil, ErrNoListings
	}

	cmp := services.Compare(existing, incoming)
	sum.New, sum.Closed, sum.Unchanged = cmp.Counts()
	r.logger.Info("Comparison results: %d new, %d closed, %d unchanged", sum.New, sum.Closed, sum.Unchanged)

	var fresh []*models.Listing
	for _, l := range incoming {
		if cmp.New.Has(l.Link) {
			fresh = append(fresh, l)
		}
	}
	sum.Enriched = r.enricher.Enrich(ctx, fresh)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mopts := services.MergeOptions{}
	if res.Truncated && !r.opts.CloseOnPartialCrawl {
		mopts.SkipClosures = true
		sum.ClosuresSkipped = true
		r.logger.Warn("Crawl stopped after %d of %d pages; not marking %d missing listings as closed",
			res.Pages, res.TotalPages, sum.Closed)
	}
	merged := services.Merge(existing, incoming, cmp, today, mopts)
	sum.Total = len(merged)

	if err := r.store.Save(ctx, merged, r.opts.Checkpoint); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	sum.Report = r.insights.Generate(merged, today)
	r.insights.Print(r.out, sum.Report)
	r.insights.Log(sum.Report)
	return sum, nil
}

// Fix normalises the stored table and saves it to dst, or back to the
// runner's store when dst is nil. It returns the number of rows written.
func (r *Runner) Fix(ctx context.Context, dst storage.Store) (int, error) {
	if dst == nil {
		dst = r.store
	}
	r.backup(ctx)
	rows, err := r.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	if len(rows) == 0 {
		r.logger.Warn("Nothing to fix: the store is empty")
		return 0, nil
	}

	fixed := r.cleaner.Fix(rows, r.opts.today())
	if err := dst.Save(ctx, fixed, false); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return len(fixed), nil
}

// backup copies the store when backups are enabled. Failures are logged only.
func (r *Runner) backup(ctx context.Context) string {
	if !r.opts.Backup {
		return ""
	}
	path, err := r.store.Backup(ctx)
	if err != nil {
		r.logger.Warn("Backup failed, continuing: %v", err)
	}
	return path
}

// Stats prints the statistics of the stored table without crawling.
func (r *Runner) Stats(ctx context.Context) (*models.InsightReport, error) {
	rows, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	report := r.insights.Generate(rows, r.opts.today())
	r.insights.Print(r.out, report)
	return report, nil
}
