package immowelt

import (
	"context"
	"time"

	"immo-tracker/models"
	"immo-tracker/utils"
)

// Enricher fetches detail pages for listings on a bounded worker pool.
type Enricher struct {
	fetcher    PageFetcher
	extractor  *Extractor
	logger     *utils.Logger
	maxWorkers int
	interval   time.Duration
}

// NewEnricher creates an Enricher that runs at most maxWorkers detail
// fetches at once, starting them at least interval apart.
func NewEnricher(fetcher PageFetcher, extractor *Extractor, logger *utils.Logger, maxWorkers int, interval time.Duration) *Enricher {
	return &Enricher{
		fetcher:    fetcher,
		extractor:  extractor,
		logger:     logger,
		maxWorkers: maxWorkers,
		interval:   interval,
	}
}

// Enrich applies detail-page data to the given listings and returns how many
// were enriched. Closed listings are skipped. A listing whose detail page
// cannot be fetched keeps its card data.
//
// Workers only write their own result slot; listings are mutated here, after
// every worker has finished.
func (e *Enricher) Enrich(ctx context.Context, listings []*models.Listing) int {
	if len(listings) == 0 {
		return 0
	}
	e.logger.Info("[enricher] Fetching %d detail pages with %d workers", len(listings), e.maxWorkers)

	results := make([]*models.DetailInfo, len(listings))
	pool := utils.NewWorkerPool(e.maxWorkers, e.interval)

	for i, l := range listings {
		if l == nil || !l.Active() {
			continue
		}
		i, link := i, l.Link
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			html, err := e.fetcher.Fetch(ctx, link)
			if err != nil {
				e.logger.Warn("[enricher] No detail data for %s: %v", link, err)
				return
			}
			results[i] = e.extractor.ParseDetailPage(html)
		})
	}
	pool.Wait()

	enriched := 0
	for i, info := range results {
		if info == nil {
			continue
		}
		listings[i].Enrich(info)
		enriched++
	}
	e.logger.Info("[enricher] Enriched %d/%d listings", enriched, len(listings))
	return enriched
}
