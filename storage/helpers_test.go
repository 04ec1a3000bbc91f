package storage

import (
	"time"

	"immo-tracker/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func f64(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func date(s string) *models.Date { return models.ParseDate(s) }

func sampleListings() []*models.Listing {
	return []*models.Listing{
		{
			Link:           "https://www.immowelt.de/expose/a",
			RawPrice:       "349.000 €",
			RawDescription: "Haus, \"renoviert\"\nmit Garten",
			RawDetails:     "4 Zimmer · 120 m² · 500 m² Grundstück",
			RawAddress:     "Heiligkreuz, Trier (54295)",
			Features:       []string{"Balkon", "Garten"},
			FullAddress:    str("Musterstraße 1, 54295 Trier"),
			Latitude:       f64(49.749),
			Longitude:      f64(6.6412),
			CreatedDate:    date("2024-03-01"),
			PriceValue:     f64(349000),
			LivingAreaSqm:  f64(120),
			PlotAreaSqm:    f64(500),
			RoomCount:      f64(4),
			ImageURLs:      []string{"https://img.example/a.jpg?ci_seal=abc", "https://img.example/b.jpg"},
			PreviewImage:   "https://img.example/p.jpg",
		},
		{
			Link:           "https://www.immowelt.de/expose/b",
			RawPrice:       "Preis auf Anfrage",
			RawDescription: models.NoInfo,
			RawDetails:     "3,5 Zimmer",
			RawAddress:     "Pfalzel, Trier (54293)",
			CreatedDate:    date("2024-02-10"),
			ClosedDate:     date("2024-03-10"),
			RoomCount:      f64(3.5),
		},
		{
			Link:          "https://www.immowelt.de/expose/c",
			RawPrice:      "1.250.000 €",
			RawDetails:    "6 Zimmer · 210,5 m²",
			RawAddress:    "Olewig, Trier (54295)",
			CreatedDate:   date("2024-03-15"),
			PriceValue:    f64(1250000),
			LivingAreaSqm: f64(210.5),
			RoomCount:     f64(6),
		},
	}
}
