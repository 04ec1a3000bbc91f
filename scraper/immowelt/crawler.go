package immowelt

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"immo-tracker/models"
	"immo-tracker/utils"
)

// CrawlResult is the outcome of walking every result page.
type CrawlResult struct {
	Listings   []*models.RawListing
	Pages      int // pages that produced listings
	TotalPages int // as announced by the first page

	// Truncated is set when the walk stopped before TotalPages, so the
	// listings are not the complete live set.
	Truncated bool
}

// Crawler walks the paginated search results.
type Crawler struct {
	fetcher   PageFetcher
	extractor *Extractor
	logger    *utils.Logger
}

// NewCrawler creates a Crawler.
func NewCrawler(fetcher PageFetcher, extractor *Extractor, logger *utils.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, extractor: extractor, logger: logger}
}

// CrawlAll fetches page 1, reads the page count from it and walks the
// remaining pages in order. It stops at the first page that cannot be
// fetched or has no cards. Listings are returned in page order then card
// order, without deduplication.
func (c *Crawler) CrawlAll(ctx context.Context, startURL string) CrawlResult {
	var res CrawlResult

	c.logger.Info("[immowelt] Starting crawl: %s", startURL)
	first, err := c.fetcher.Fetch(ctx, startURL)
	if err != nil {
		c.logger.Error("[immowelt] First page failed: %v", err)
		res.Truncated = true
		return res
	}

	res.TotalPages = c.extractor.TotalPageCount(first)
	c.logger.Info("[immowelt] Found %d pages to crawl", res.TotalPages)

	html := first
	for page := 1; page <= res.TotalPages; page++ {
		if page > 1 {
			if ctx.Err() != nil {
				c.logger.Warn("[immowelt] Crawl interrupted before page %d", page)
				break
			}
			pageURL, err := PageURL(startURL, page)
			if err != nil {
				c.logger.Error("[immowelt] Cannot build URL for page %d: %v", page, err)
				break
			}
			html, err = c.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				c.logger.Error("[immowelt] Page %d/%d failed, stopping: %v", page, res.TotalPages, err)
				break
			}
		}

		cards := c.extractor.ParseSearchPage(html)
		if len(cards) == 0 {
			c.logger.Warn("[immowelt] No listings found on page %d, stopping", page)
			break
		}
		res.Listings = append(res.Listings, cards...)
		res.Pages = page
		c.logger.Info("[immowelt] Page %d/%d: %d listings", page, res.TotalPages, len(cards))
	}

	res.Truncated = res.Pages < res.TotalPages
	c.logger.Info("[immowelt] Crawl finished: %d listings from %d/%d pages", len(res.Listings), res.Pages, res.TotalPages)
	return res
}

// PageURL returns the URL of result page n of the search at base. The rest of
// the query is kept byte for byte; only the page parameter is replaced or
// appended.
func PageURL(base string, n int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if n <= 1 {
		return base, nil
	}
	var params []string
	if u.RawQuery != "" {
		for _, p := range strings.Split(u.RawQuery, "&") {
			if key, _, _ := strings.Cut(p, "="); key == "page" {
				continue
			}
			params = append(params, p)
		}
	}
	params = append(params, "page="+strconv.Itoa(n))
	u.RawQuery = strings.Join(params, "&")
	return u.String(), nil
}
