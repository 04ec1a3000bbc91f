package services

import (
	"bytes"
	"testing"

	"immo-tracker/models"
)

func sampleListings(t *testing.T) []*models.Listing {
	today := day(t, "2026-10-15").Ptr()
	old := day(t, "2026-09-01").Ptr()
	return []*models.Listing{
		{Link: "1", RawAddress: "Heiligkreuz, Trier (54295)", PriceValue: ptr(300000), LivingAreaSqm: ptr(100), RoomCount: ptr(4), CreatedDate: old},
		{Link: "2", RawAddress: "Trier (54290)", PriceValue: ptr(200000), LivingAreaSqm: ptr(80), CreatedDate: today},
		{Link: "3", RawAddress: "Konz (54329)", PriceValue: ptr(500000), CreatedDate: old, ClosedDate: today},
		{Link: "4", RawAddress: models.NoInfo, CreatedDate: old, ClosedDate: old},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings(t), day(t, "2026-10-15"))

	if r.Total != 4 {
		t.Errorf("Total: got %d, want 4", r.Total)
	}
	if r.Active != 2 || r.Closed != 2 {
		t.Errorf("Active/Closed: got %d/%d, want 2/2", r.Active, r.Closed)
	}
	if r.NewToday != 1 {
		t.Errorf("NewToday: got %d, want 1", r.NewToday)
	}
	if r.ClosedToday != 1 {
		t.Errorf("ClosedToday: got %d, want 1", r.ClosedToday)
	}
}

func TestInsightFieldStats(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings(t), day(t, "2026-10-15"))

	stats := map[string]models.FieldStats{}
	for _, f := range r.Fields {
		stats[f.Name] = f
	}

	price := stats["Price (€)"]
	if price.Count != 3 || price.Mean != 1000000.0/3 || price.Median != 300000 {
		t.Errorf("price stats: got %+v", price)
	}
	if price.Min != 200000 || price.Max != 500000 {
		t.Errorf("price min/max: got %.0f/%.0f", price.Min, price.Max)
	}

	pps := stats["Price per m² (€)"]
	if pps.Count != 2 || pps.Median != 2750 {
		t.Errorf("price per sqm stats: got %+v", pps)
	}

	plot := stats["Plot area (m²)"]
	if plot.Count != 0 {
		t.Errorf("plot area should have no values, got %d", plot.Count)
	}
}

func TestInsightActiveByPlace(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings(t), day(t, "2026-10-15"))

	if r.ActiveByPlace["Trier"] != 2 {
		t.Errorf("Trier count: got %d, want 2", r.ActiveByPlace["Trier"])
	}
	if _, ok := r.ActiveByPlace["Konz"]; ok {
		t.Error("closed listings must not count towards active places")
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil, day(t, "2026-10-15"))
	if r.Total != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}

	var buf bytes.Buffer
	svc.Print(&buf, r)
	if !bytes.Contains(buf.Bytes(), []byte("Total listings")) {
		t.Errorf("printed report missing overview:\n%s", buf.String())
	}
}
