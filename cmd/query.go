package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"immo-tracker/models"
	"immo-tracker/storage"
)

type queryFlags struct {
	status        string
	minPrice      float64
	maxPrice      float64
	minRooms      float64
	minLivingArea float64
	since         string
	address       string
	limit         int
}

func newQueryCommand(v *viper.Viper) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List stored listings matching filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cond, err := qf.conditions(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			store, err := a.openStore(ctx, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			listings, err := store.Query(ctx, cond, qf.limit)
			if err != nil {
				return err
			}
			renderListings(cmd.OutOrStdout(), listings)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&qf.status, "status", "all", "active, closed or all")
	f.Float64Var(&qf.minPrice, "min-price", 0, "minimum price in €")
	f.Float64Var(&qf.maxPrice, "max-price", 0, "maximum price in €")
	f.Float64Var(&qf.minRooms, "min-rooms", 0, "minimum number of rooms")
	f.Float64Var(&qf.minLivingArea, "min-area", 0, "minimum living area in m²")
	f.StringVar(&qf.since, "since", "", "only listings created on or after this date (YYYY-MM-DD)")
	f.StringVar(&qf.address, "address", "", "case-insensitive address substring")
	f.IntVar(&qf.limit, "limit", 20, "maximum rows, 0 for all")
	return cmd
}

// conditions turns the flags that were set into storage conditions.
func (qf *queryFlags) conditions(cmd *cobra.Command) (storage.Conditions, error) {
	var c storage.Conditions

	switch strings.ToLower(qf.status) {
	case "", "all":
		c.Status = storage.StatusAll
	case "active":
		c.Status = storage.StatusActive
	case "closed":
		c.Status = storage.StatusClosed
	default:
		return c, fmt.Errorf("invalid --status %q: want active, closed or all", qf.status)
	}

	set := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	c.MinPrice = set("min-price", qf.minPrice)
	c.MaxPrice = set("max-price", qf.maxPrice)
	c.MinRooms = set("min-rooms", qf.minRooms)
	c.MinLivingArea = set("min-area", qf.minLivingArea)

	if qf.since != "" {
		c.CreatedSince = models.ParseDate(qf.since)
		if c.CreatedSince == nil {
			return c, fmt.Errorf("invalid --since %q: want YYYY-MM-DD", qf.since)
		}
	}
	c.AddressContains = strings.TrimSpace(qf.address)
	return c, nil
}

func renderListings(w io.Writer, listings []*models.Listing) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Created", "Closed", "Price (€)", "m²", "Rooms", "€/m²", "Address", "Link"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, WidthMax: 40},
	})

	for _, l := range listings {
		t.AppendRow(table.Row{
			dateCell(l.CreatedDate),
			dateCell(l.ClosedDate),
			numCell(l.PriceValue, 0),
			numCell(l.LivingAreaSqm, 1),
			numCell(l.RoomCount, 1),
			numCell(l.PricePerSqm(), 0),
			l.RawAddress,
			l.Link,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Rows", len(listings)})
	t.Render()
}

func dateCell(d *models.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func numCell(f *float64, decimals int) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *f)
}
