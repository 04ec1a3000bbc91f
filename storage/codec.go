package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"immo-tracker/models"
)

// Columns is the canonical column order of the listing table.
var Columns = []string{
	"link",
	"raw_price",
	"raw_description",
	"raw_details",
	"raw_address",
	"features",
	"full_address",
	"latitude",
	"longitude",
	"created_date",
	"closed_date",
	"price_value",
	"living_area_sqm",
	"plot_area_sqm",
	"room_count",
	"price_per_sqm",
	"image_urls",
	"preview_image",
}

// listingRow is the flat form of a listing shared by every backend.
// Empty text and NULL both mean "absent".
type listingRow struct {
	Link           string          `db:"link"`
	RawPrice       sql.NullString  `db:"raw_price"`
	RawDescription sql.NullString  `db:"raw_description"`
	RawDetails     sql.NullString  `db:"raw_details"`
	RawAddress     sql.NullString  `db:"raw_address"`
	Features       sql.NullString  `db:"features"`
	FullAddress    sql.NullString  `db:"full_address"`
	Latitude       sql.NullFloat64 `db:"latitude"`
	Longitude      sql.NullFloat64 `db:"longitude"`
	CreatedDate    sql.NullString  `db:"created_date"`
	ClosedDate     sql.NullString  `db:"closed_date"`
	PriceValue     sql.NullFloat64 `db:"price_value"`
	LivingAreaSqm  sql.NullFloat64 `db:"living_area_sqm"`
	PlotAreaSqm    sql.NullFloat64 `db:"plot_area_sqm"`
	RoomCount      sql.NullFloat64 `db:"room_count"`
	PricePerSqm    sql.NullFloat64 `db:"price_per_sqm"`
	ImageURLs      sql.NullString  `db:"image_urls"`
	PreviewImage   sql.NullString  `db:"preview_image"`
}

func toRow(l *models.Listing) listingRow {
	return listingRow{
		Link:           l.Link,
		RawPrice:       nullString(l.RawPrice),
		RawDescription: nullString(l.RawDescription),
		RawDetails:     nullString(l.RawDetails),
		RawAddress:     nullString(l.RawAddress),
		Features:       jsonList(l.Features),
		FullAddress:    nullStringPtr(l.FullAddress),
		Latitude:       nullFloat(l.Latitude),
		Longitude:      nullFloat(l.Longitude),
		CreatedDate:    nullDate(l.CreatedDate),
		ClosedDate:     nullDate(l.ClosedDate),
		PriceValue:     nullFloat(l.PriceValue),
		LivingAreaSqm:  nullFloat(l.LivingAreaSqm),
		PlotAreaSqm:    nullFloat(l.PlotAreaSqm),
		RoomCount:      nullFloat(l.RoomCount),
		PricePerSqm:    nullFloat(l.PricePerSqm()),
		ImageURLs:      jsonList(l.ImageURLs),
		PreviewImage:   nullString(l.PreviewImage),
	}
}

// listing converts the row back. The stored price per m² is ignored; it is
// always derived from price and living area.
func (r listingRow) listing() *models.Listing {
	l := &models.Listing{
		Link:           strings.TrimSpace(r.Link),
		RawPrice:       r.RawPrice.String,
		RawDescription: r.RawDescription.String,
		RawDetails:     r.RawDetails.String,
		RawAddress:     r.RawAddress.String,
		Features:       parseList(r.Features.String),
		Latitude:       floatPtr(r.Latitude),
		Longitude:      floatPtr(r.Longitude),
		CreatedDate:    models.ParseDate(r.CreatedDate.String),
		ClosedDate:     models.ParseDate(r.ClosedDate.String),
		PriceValue:     floatPtr(r.PriceValue),
		LivingAreaSqm:  floatPtr(r.LivingAreaSqm),
		PlotAreaSqm:    floatPtr(r.PlotAreaSqm),
		RoomCount:      floatPtr(r.RoomCount),
		ImageURLs:      parseList(r.ImageURLs.String),
		PreviewImage:   r.PreviewImage.String,
	}
	if r.FullAddress.Valid && r.FullAddress.String != "" {
		addr := r.FullAddress.String
		l.FullAddress = &addr
	}
	if l.Latitude == nil || l.Longitude == nil {
		l.Latitude, l.Longitude = nil, nil
	}
	return l
}

// args returns the row's values in Columns order.
func (r listingRow) args() []any {
	return []any{
		r.Link, r.RawPrice, r.RawDescription, r.RawDetails, r.RawAddress,
		r.Features, r.FullAddress, r.Latitude, r.Longitude,
		r.CreatedDate, r.ClosedDate,
		r.PriceValue, r.LivingAreaSqm, r.PlotAreaSqm, r.RoomCount, r.PricePerSqm,
		r.ImageURLs, r.PreviewImage,
	}
}

// record renders the row as CSV cells in Columns order.
func (r listingRow) record() []string {
	return []string{
		r.Link,
		r.RawPrice.String,
		r.RawDescription.String,
		r.RawDetails.String,
		r.RawAddress.String,
		r.Features.String,
		r.FullAddress.String,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		r.CreatedDate.String,
		r.ClosedDate.String,
		formatFloat(r.PriceValue),
		formatFloat(r.LivingAreaSqm),
		formatFloat(r.PlotAreaSqm),
		formatFloat(r.RoomCount),
		formatFloat(r.PricePerSqm),
		r.ImageURLs.String,
		r.PreviewImage.String,
	}
}

// WriteCSV writes a header and one record per listing.
func WriteCSV(w io.Writer, listings []*models.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, l := range listings {
		if err := cw.Write(toRow(l).record()); err != nil {
			return fmt.Errorf("csv: write row %s: %w", l.Link, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a listing table. Columns are matched by header name, so
// files missing newer columns still load; absent columns become empty. A
// table without a link column is rejected.
func ReadCSV(r io.Reader) ([]*models.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := index["link"]; !ok {
		return nil, fmt.Errorf("csv: missing link column in header %v", header)
	}

	var listings []*models.Listing
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		row := listingRow{
			Link:           cell("link"),
			RawPrice:       nullString(cell("raw_price")),
			RawDescription: nullString(cell("raw_description")),
			RawDetails:     nullString(cell("raw_details")),
			RawAddress:     nullString(cell("raw_address")),
			Features:       nullString(cell("features")),
			FullAddress:    nullString(cell("full_address")),
			Latitude:       parseFloat(cell("latitude")),
			Longitude:      parseFloat(cell("longitude")),
			CreatedDate:    nullString(cell("created_date")),
			ClosedDate:     nullString(cell("closed_date")),
			PriceValue:     parseFloat(cell("price_value")),
			LivingAreaSqm:  parseFloat(cell("living_area_sqm")),
			PlotAreaSqm:    parseFloat(cell("plot_area_sqm")),
			RoomCount:      parseFloat(cell("room_count")),
			ImageURLs:      nullString(cell("image_urls")),
			PreviewImage:   nullString(cell("preview_image")),
		}
		listings = append(listings, row.listing())
	}
	return listings, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullDate(d *models.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func formatFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

func parseFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func jsonList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// parseList reads a JSON string array. Anything else yields nil.
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
