package services

import (
	"sort"
	"strings"

	"immo-tracker/models"
	"immo-tracker/utils"
)

// Cleaner transforms raw card data into canonical listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Normalize converts a crawl batch into canonical listings. Rows without a
// usable link cannot be keyed and are dropped, as are repeated links (the
// first occurrence wins). Every other row survives; unparseable fields are nil.
func (c *Cleaner) Normalize(raw []*models.RawListing) []*models.Listing {
	seen := make(map[string]struct{}, len(raw))
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		link := strings.TrimSpace(r.Link)
		if link == "" || link == models.NoInfo {
			c.logger.Warn("[cleaner] Dropping listing without link (price %q, address %q)", r.Price, r.Address)
			continue
		}
		if _, dup := seen[link]; dup {
			c.logger.Debug("[cleaner] Duplicate link skipped: %s", link)
			continue
		}
		seen[link] = struct{}{}

		l := &models.Listing{
			Link:           link,
			RawPrice:       r.Price,
			RawDescription: r.Description,
			RawDetails:     r.Details,
			RawAddress:     r.Address,
			PreviewImage:   r.PreviewImage,
		}
		ApplyParsedFields(l)
		result = append(result, l)
	}

	c.logger.Info("[cleaner] Normalized %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// ApplyParsedFields re-derives the numeric fields from the raw text.
func ApplyParsedFields(l *models.Listing) {
	l.PriceValue = CleanPrice(l.RawPrice)
	l.LivingAreaSqm = ExtractLivingArea(l.RawDetails)
	l.PlotAreaSqm = ExtractPlotArea(l.RawDetails)
	l.RoomCount = ExtractRoomCount(l.RawDetails)
}

// Fix repairs a stored table: parsed fields are recomputed from raw text,
// duplicate links collapse onto the row observed earliest, missing creation
// dates become today and image lists are deduplicated. Closure dates are kept.
func (c *Cleaner) Fix(rows []*models.Listing, today models.Date) []*models.Listing {
	byLink := make(map[string]*models.Listing, len(rows))
	order := make([]string, 0, len(rows))
	dropped, merged, backfilled := 0, 0, 0

	for _, row := range rows {
		if row == nil {
			continue
		}
		l := row.Clone()
		l.Link = strings.TrimSpace(l.Link)
		if l.Link == "" || l.Link == models.NoInfo {
			dropped++
			continue
		}
		ApplyParsedFields(l)
		l.ImageURLs = utils.Dedupe(l.ImageURLs)
		if l.CreatedDate == nil {
			l.CreatedDate = today.Ptr()
			backfilled++
		}

		prev, ok := byLink[l.Link]
		if !ok {
			byLink[l.Link] = l
			order = append(order, l.Link)
			continue
		}
		merged++
		byLink[l.Link] = pickEarliest(prev, l)
	}

	result := make([]*models.Listing, 0, len(order))
	for _, link := range order {
		result = append(result, byLink[link])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedDate.Before(*result[j].CreatedDate)
	})

	c.logger.Info("[cleaner] Fixed %d rows → %d (dropped %d, merged %d duplicates, backfilled %d creation dates)",
		len(rows), len(result), dropped, merged, backfilled)
	return result
}

// pickEarliest keeps the row created first and the earliest known closure.
// Enrichment missing on the kept row is taken from the other one.
func pickEarliest(a, b *models.Listing) *models.Listing {
	keep, other := a, b
	if b.CreatedDate.Before(*a.CreatedDate) {
		keep, other = b, a
	}
	if other.ClosedDate != nil && (keep.ClosedDate == nil || other.ClosedDate.Before(*keep.ClosedDate)) {
		keep.ClosedDate = other.ClosedDate
	}
	if !keep.Enriched() && other.Enriched() {
		keep.Enrich(&models.DetailInfo{
			Features:    other.Features,
			FullAddress: other.FullAddress,
			Latitude:    other.Latitude,
			Longitude:   other.Longitude,
			ImageURLs:   other.ImageURLs,
		})
	}
	return keep
}
