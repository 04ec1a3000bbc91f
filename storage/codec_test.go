package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	want := sampleListings()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, want))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteCSVCanonicalHeaderAndDerivedColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleListings()[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Contains(t, buf.String(), ",2908.3333333333335,", "price per m² is written from the derived value")
	assert.Contains(t, buf.String(), `"[""Balkon"",""Garten""]"`)
}

func TestReadCSVIgnoresStoredPricePerSqm(t *testing.T) {
	in := "link,price_value,living_area_sqm,price_per_sqm\n" +
		"https://x.test/1,300000,100,1\n" +
		"https://x.test/2,,100,999\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].PricePerSqm())
	assert.InDelta(t, 3000, *got[0].PricePerSqm(), 1e-9)
	assert.Nil(t, got[1].PricePerSqm())
}

func TestReadCSVLegacyColumnsAndCoercion(t *testing.T) {
	in := "Link,raw_price,created_date,closed_date,latitude,longitude,features,room_count\n" +
		"https://x.test/1,349.000 €,2024-01-05 00:00:00,not-a-date,49.7,,not json,abc\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)

	l := got[0]
	assert.Equal(t, "https://x.test/1", l.Link)
	assert.Equal(t, "349.000 €", l.RawPrice)
	require.NotNil(t, l.CreatedDate)
	assert.Equal(t, "2024-01-05", l.CreatedDate.String())
	assert.Nil(t, l.ClosedDate, "unparseable dates become null")
	assert.Nil(t, l.Latitude, "coordinates only as a pair")
	assert.Nil(t, l.Longitude)
	assert.Nil(t, l.Features)
	assert.Nil(t, l.RoomCount)
	assert.Nil(t, l.FullAddress)
}

func TestReadCSVWithoutLinkColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("price,address\n1,2\n"))
	assert.Error(t, err)
}

func TestReadCSVEmptyInput(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadCSVMalformedQuote(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("link,raw_price\n\"https://x.test/1,\"oops\n"))
	assert.Error(t, err)
}
