package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"immo-tracker/models"
	"immo-tracker/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

type numericField struct {
	name  string
	value func(*models.Listing) *float64
}

var reportFields = []numericField{
	{"Price (€)", func(l *models.Listing) *float64 { return l.PriceValue }},
	{"Living area (m²)", func(l *models.Listing) *float64 { return l.LivingAreaSqm }},
	{"Plot area (m²)", func(l *models.Listing) *float64 { return l.PlotAreaSqm }},
	{"Rooms", func(l *models.Listing) *float64 { return l.RoomCount }},
	{"Price per m² (€)", (*models.Listing).PricePerSqm},
}

// Generate computes lifecycle counts and numeric summaries over listings.
func (s *InsightService) Generate(listings []*models.Listing, today models.Date) *models.InsightReport {
	report := &models.InsightReport{
		Date:          today,
		ActiveByPlace: make(map[string]int),
	}

	for _, l := range listings {
		report.Total++
		if l.Active() {
			report.Active++
			if place := placeOf(l.RawAddress); place != "" {
				report.ActiveByPlace[place]++
			}
		} else {
			report.Closed++
			if l.ClosedDate.Equal(today) {
				report.ClosedToday++
			}
		}
		if l.CreatedDate != nil && l.CreatedDate.Equal(today) {
			report.NewToday++
		}
	}

	for _, f := range reportFields {
		var values []float64
		for _, l := range listings {
			if v := f.value(l); v != nil {
				values = append(values, *v)
			}
		}
		report.Fields = append(report.Fields, summarize(f.name, values))
	}

	s.logger.Debug("[insights] %d total, %d active, %d closed", report.Total, report.Active, report.Closed)
	return report
}

func summarize(name string, values []float64) models.FieldStats {
	fs := models.FieldStats{Name: name, Count: len(values)}
	if len(values) == 0 {
		return fs
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	fs.Mean = total / float64(len(sorted))
	fs.Min = sorted[0]
	fs.Max = sorted[len(sorted)-1]
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		fs.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		fs.Median = sorted[mid]
	}
	return fs
}

// placeOf takes the locality from a card address such as
// "Heiligkreuz, Trier (54295)".
func placeOf(address string) string {
	address = strings.TrimSpace(address)
	if address == "" || address == models.NoInfo {
		return ""
	}
	parts := strings.Split(address, ",")
	place := strings.TrimSpace(parts[len(parts)-1])
	if i := strings.Index(place, "("); i > 0 {
		place = strings.TrimSpace(place[:i])
	}
	return place
}

// Print renders the report as tables on w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetStyle(table.StyleLight)
	overview.SetTitle("Listing statistics " + r.Date.String())
	overview.AppendRows([]table.Row{
		{"Total listings", r.Total},
		{"Active listings", r.Active},
		{"Closed listings", r.Closed},
		{"New listings today", r.NewToday},
		{"Listings closed today", r.ClosedToday},
	})
	overview.Render()

	fields := table.NewWriter()
	fields.SetOutputMirror(w)
	fields.SetStyle(table.StyleLight)
	fields.AppendHeader(table.Row{"Field", "Count", "Mean", "Median", "Min", "Max"})
	fields.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for _, f := range r.Fields {
		if f.Count == 0 {
			fields.AppendRow(table.Row{f.Name, 0, "-", "-", "-", "-"})
			continue
		}
		fields.AppendRow(table.Row{f.Name, f.Count, num(f.Mean), num(f.Median), num(f.Min), num(f.Max)})
	}
	fields.Render()

	if len(r.ActiveByPlace) == 0 {
		return
	}
	type placeCount struct {
		place string
		count int
	}
	var places []placeCount
	for p, c := range r.ActiveByPlace {
		places = append(places, placeCount{p, c})
	}
	sort.Slice(places, func(i, j int) bool {
		if places[i].count != places[j].count {
			return places[i].count > places[j].count
		}
		return places[i].place < places[j].place
	})
	if len(places) > 10 {
		places = places[:10]
	}

	byPlace := table.NewWriter()
	byPlace.SetOutputMirror(w)
	byPlace.SetStyle(table.StyleLight)
	byPlace.AppendHeader(table.Row{"Place", "Active"})
	for _, pc := range places {
		byPlace.AppendRow(table.Row{truncate(pc.place, 28), pc.count})
	}
	byPlace.Render()
}

// Log writes the report through the logger, one line per figure.
func (s *InsightService) Log(r *models.InsightReport) {
	s.logger.Info("Final statistics: total=%d active=%d closed=%d new_today=%d closed_today=%d",
		r.Total, r.Active, r.Closed, r.NewToday, r.ClosedToday)
	for _, f := range r.Fields {
		if f.Count == 0 {
			continue
		}
		s.logger.Info("%s: mean %.2f, median %.2f (n=%d)", f.Name, f.Mean, f.Median, f.Count)
	}
}

func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
