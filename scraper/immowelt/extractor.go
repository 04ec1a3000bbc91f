package immowelt

import (
	"net/url"
	"strconv"
	"strings"

	"immo-tracker/models"
	"immo-tracker/scraper/dom"
)

// DefaultSiteBaseURL resolves relative listing links.
const DefaultSiteBaseURL = "https://www.immowelt.de"

const (
	selCard        = `div[data-testid="serp-core-classified-card-testid"]`
	selPrice       = `div[data-testid="cardmfe-price-testid"]`
	selDescription = `div.css-1cbj9xw`
	selDetails     = `div[data-testid="cardmfe-keyfacts-testid"]`
	selAddress     = `div[data-testid="cardmfe-description-box-address"]`
	selLink        = `a[data-testid="card-mfe-covering-link-testid"]`

	selFeature       = `section[data-testid="aviv.CDP.Sections.Features"] div[data-testid="aviv.CDP.Sections.Features.Feature"] span.css-1az3ztj`
	selDetailAddress = `div[data-testid="aviv.CDP.Location.Address"]`
	selMapImage      = `button[aria-label="Adresse auf Karte ansehen"] img`

	selPagination = `nav[aria-label="pagination navigation"]`
	pageLabel     = "zu seite"
)

// Extractor turns search and detail page markup into listing data.
type Extractor struct {
	base *url.URL
}

// NewExtractor resolves card links against siteBaseURL. An empty or invalid
// value falls back to DefaultSiteBaseURL.
func NewExtractor(siteBaseURL string) *Extractor {
	base, err := url.Parse(siteBaseURL)
	if siteBaseURL == "" || err != nil || base.Host == "" {
		base, _ = url.Parse(DefaultSiteBaseURL)
	}
	return &Extractor{base: base}
}

// ParseSearchPage returns one RawListing per card in document order.
// A card field that is missing is captured as models.NoInfo.
func (e *Extractor) ParseSearchPage(html string) []*models.RawListing {
	doc, err := dom.Parse(html)
	if err != nil {
		return nil
	}

	cards := doc.FindAll(selCard)
	out := make([]*models.RawListing, 0, len(cards))
	for _, card := range cards {
		out = append(out, &models.RawListing{
			Link:         e.cardLink(card),
			Price:        dom.FindText(card, selPrice, models.NoInfo),
			Description:  dom.FindText(card, selDescription, models.NoInfo),
			Details:      dom.FindText(card, selDetails, models.NoInfo),
			Address:      dom.FindText(card, selAddress, models.NoInfo),
			PreviewImage: previewImage(card),
		})
	}
	return out
}

func (e *Extractor) cardLink(card dom.Node) string {
	a, ok := card.Find(selLink)
	if !ok {
		return models.NoInfo
	}
	href, ok := a.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.NoInfo
	}
	ref, err := url.Parse(href)
	if err != nil {
		return models.NoInfo
	}
	abs := e.base.ResolveReference(ref)
	abs.RawQuery = ""
	abs.Fragment = ""
	return abs.String()
}

// previewImage prefers the first srcset candidate of the card's picture and
// falls back to the img src.
func previewImage(card dom.Node) string {
	pic, ok := card.Find("picture")
	if !ok {
		return ""
	}
	if src, ok := pic.Find("source"); ok {
		if set, ok := src.Attr("srcset"); ok {
			if u := firstSrcsetURL(set); u != "" {
				return u
			}
		}
	}
	if img, ok := pic.Find("img"); ok {
		if src, ok := img.Attr("src"); ok {
			return strings.TrimSpace(src)
		}
	}
	return ""
}

// ParseDetailPage extracts enrichment data. It never fails; anything not
// found is left empty or nil.
func (e *Extractor) ParseDetailPage(html string) *models.DetailInfo {
	info := &models.DetailInfo{}
	doc, err := dom.Parse(html)
	if err != nil {
		return info
	}

	for _, f := range doc.FindAll(selFeature) {
		if t := f.Text(); t != "" {
			info.Features = append(info.Features, t)
		}
	}

	if addr := dom.FindText(doc, selDetailAddress, ""); addr != "" {
		info.FullAddress = &addr
	}

	info.ImageURLs = ExtractImages(doc)

	if c, ok := extractCoordinates(doc); ok {
		info.Latitude, info.Longitude = &c.lat, &c.lon
	}
	return info
}

// TotalPageCount reads the highest numbered page button of the pagination
// bar. It returns 1 when there is none.
func (e *Extractor) TotalPageCount(html string) int {
	doc, err := dom.Parse(html)
	if err != nil {
		return 1
	}
	nav, ok := doc.Find(selPagination)
	if !ok {
		return 1
	}

	total := 1
	for _, b := range nav.FindAll("button") {
		label, _ := b.Attr("aria-label")
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), pageLabel) {
			continue
		}
		n, err := strconv.Atoi(b.Text())
		if err != nil {
			continue
		}
		if n > total {
			total = n
		}
	}
	return total
}
