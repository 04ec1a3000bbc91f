package services

import (
	"testing"

	"immo-tracker/models"
	"immo-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func TestCleanerNormalizeParsesFields(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{{
		Link:    "https://www.immowelt.de/expose/abc",
		Price:   "450.000 €",
		Details: "5 Zimmer · 150 m² · 600 m² Grundstück",
		Address: "Trier (54290)",
	}}

	got := c.Normalize(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(got))
	}
	l := got[0]
	if l.PriceValue == nil || *l.PriceValue != 450000 {
		t.Errorf("PriceValue: got %v, want 450000", l.PriceValue)
	}
	if l.LivingAreaSqm == nil || *l.LivingAreaSqm != 150 {
		t.Errorf("LivingAreaSqm: got %v, want 150", l.LivingAreaSqm)
	}
	if l.PlotAreaSqm == nil || *l.PlotAreaSqm != 600 {
		t.Errorf("PlotAreaSqm: got %v, want 600", l.PlotAreaSqm)
	}
	if l.RoomCount == nil || *l.RoomCount != 5 {
		t.Errorf("RoomCount: got %v, want 5", l.RoomCount)
	}
	if pps := l.PricePerSqm(); pps == nil || *pps != 3000 {
		t.Errorf("PricePerSqm: got %v, want 3000", pps)
	}
	if l.CreatedDate != nil || l.ClosedDate != nil {
		t.Error("fresh listings must not carry lifecycle dates")
	}
}

func TestCleanerKeepsRowsWithUnparseableFields(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{{
		Link:    "https://www.immowelt.de/expose/x",
		Price:   "Preis auf Anfrage",
		Details: models.NoInfo,
	}}

	got := c.Normalize(raw)
	if len(got) != 1 {
		t.Fatalf("expected row to survive, got %d rows", len(got))
	}
	if got[0].PriceValue != nil || got[0].LivingAreaSqm != nil || got[0].PricePerSqm() != nil {
		t.Error("unparseable fields should be nil")
	}
}

func TestCleanerDropsMissingLink(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Link: models.NoInfo, Price: "100 €"},
		{Link: "", Price: "100 €"},
		{Link: "https://www.immowelt.de/expose/1", Price: "200 €"},
	}

	cleaned := c.Normalize(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 listing after dropping missing links, got %d", len(cleaned))
	}
}

func TestCleanerDeduplicatesLink(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Link: "https://www.immowelt.de/expose/1", Price: "100 €"},
		{Link: "https://www.immowelt.de/expose/1", Price: "999 €"},
	}

	cleaned := c.Normalize(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 listing after deduplication, got %d", len(cleaned))
	}
	if *cleaned[0].PriceValue != 100 {
		t.Errorf("first occurrence should win, got price %v", *cleaned[0].PriceValue)
	}
}

func TestCleanerFix(t *testing.T) {
	c := NewCleaner(newTestLogger())
	today := models.NewDate(mustTime(t, "2026-10-15"))
	early := models.NewDate(mustTime(t, "2026-01-02"))
	later := models.NewDate(mustTime(t, "2026-03-04"))
	stalePrice := 1.0
	addr := "Hauptstraße 1, Trier"

	rows := []*models.Listing{
		{Link: "https://x/1", RawPrice: "200.000 €", RawDetails: "100 m²", PriceValue: &stalePrice, CreatedDate: later.Ptr()},
		{Link: "https://x/1", RawPrice: "200.000 €", CreatedDate: early.Ptr(), FullAddress: &addr, ImageURLs: []string{"a", "a", "b"}},
		{Link: "https://x/2", RawPrice: "Keine Info"},
		{Link: ""},
	}

	fixed := c.Fix(rows, today)
	if len(fixed) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(fixed))
	}

	first := fixed[0]
	if first.Link != "https://x/1" || !first.CreatedDate.Equal(early) {
		t.Errorf("duplicate should collapse onto the earliest row, got %s created %v", first.Link, first.CreatedDate)
	}
	if first.PriceValue == nil || *first.PriceValue != 200000 {
		t.Errorf("price should be re-derived from raw text, got %v", first.PriceValue)
	}
	if len(first.ImageURLs) != 2 {
		t.Errorf("image urls should be deduplicated, got %v", first.ImageURLs)
	}
	if fixed[1].CreatedDate == nil || !fixed[1].CreatedDate.Equal(today) {
		t.Errorf("missing created date should be backfilled with today")
	}
	if rows[0].PriceValue != &stalePrice {
		t.Error("Fix must not modify its input")
	}
}
