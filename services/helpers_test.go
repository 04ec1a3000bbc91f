package services

import (
	"testing"
	"time"

	"immo-tracker/models"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(models.DateLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func day(t *testing.T, s string) models.Date {
	t.Helper()
	return models.NewDate(mustTime(t, s))
}

func listing(link string) *models.Listing {
	return &models.Listing{Link: link, RawPrice: models.NoInfo, RawDetails: models.NoInfo}
}

func indexByLink(rows []*models.Listing) map[string]*models.Listing {
	m := make(map[string]*models.Listing, len(rows))
	for _, r := range rows {
		m[r.Link] = r
	}
	return m
}
