package models

// NoInfo is the placeholder captured when a card field is missing.
const NoInfo = "Keine Info"

// RawListing holds the unprocessed text of one search-result card.
// Every field is captured independently; a missing one is NoInfo.
type RawListing struct {
	Link         string
	Price        string
	Description  string
	Details      string
	Address      string
	PreviewImage string
}

// DetailInfo is the enrichment data taken from a listing's detail page.
type DetailInfo struct {
	Features    []string
	FullAddress *string
	Latitude    *float64
	Longitude   *float64
	ImageURLs   []string
}

// Listing is the canonical persisted record. Link is the primary key.
type Listing struct {
	Link           string
	RawPrice       string
	RawDescription string
	RawDetails     string
	RawAddress     string

	Features    []string
	FullAddress *string
	Latitude    *float64
	Longitude   *float64

	CreatedDate *Date
	ClosedDate  *Date

	PriceValue    *float64
	LivingAreaSqm *float64
	PlotAreaSqm   *float64
	RoomCount     *float64

	ImageURLs    []string
	PreviewImage string
}

// PricePerSqm derives the price per square metre of living area. It is nil
// unless both inputs are present and the area is positive.
func (l *Listing) PricePerSqm() *float64 {
	if l.PriceValue == nil || l.LivingAreaSqm == nil || *l.LivingAreaSqm <= 0 {
		return nil
	}
	v := *l.PriceValue / *l.LivingAreaSqm
	return &v
}

// Active reports whether the listing has not been closed.
func (l *Listing) Active() bool {
	return l.ClosedDate == nil
}

// Enriched reports whether detail-page data has been applied.
func (l *Listing) Enriched() bool {
	return l.FullAddress != nil || l.Latitude != nil || len(l.Features) > 0 || len(l.ImageURLs) > 0
}

// Enrich copies detail-page data onto the listing. Coordinates are only
// taken as a complete pair.
func (l *Listing) Enrich(d *DetailInfo) {
	if d == nil {
		return
	}
	l.Features = append([]string(nil), d.Features...)
	if d.FullAddress != nil {
		addr := *d.FullAddress
		l.FullAddress = &addr
	}
	if d.Latitude != nil && d.Longitude != nil {
		lat, lon := *d.Latitude, *d.Longitude
		l.Latitude, l.Longitude = &lat, &lon
	}
	l.ImageURLs = append([]string(nil), d.ImageURLs...)
}

// Clone returns a deep copy.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Features = append([]string(nil), l.Features...)
	c.ImageURLs = append([]string(nil), l.ImageURLs...)
	c.FullAddress = cloneString(l.FullAddress)
	c.Latitude = cloneFloat(l.Latitude)
	c.Longitude = cloneFloat(l.Longitude)
	c.PriceValue = cloneFloat(l.PriceValue)
	c.LivingAreaSqm = cloneFloat(l.LivingAreaSqm)
	c.PlotAreaSqm = cloneFloat(l.PlotAreaSqm)
	c.RoomCount = cloneFloat(l.RoomCount)
	if l.CreatedDate != nil {
		c.CreatedDate = l.CreatedDate.Ptr()
	}
	if l.ClosedDate != nil {
		c.ClosedDate = l.ClosedDate.Ptr()
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// FieldStats summarises one numeric column over the rows where it is set.
type FieldStats struct {
	Name   string
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// InsightReport holds the aggregate statistics printed after a run.
type InsightReport struct {
	Date          Date
	Total         int
	Active        int
	Closed        int
	NewToday      int
	ClosedToday   int
	Fields        []FieldStats
	ActiveByPlace map[string]int
}
