package immowelt

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"immo-tracker/scraper/dom"
)

var (
	geojsonRegexp    = regexp.MustCompile(`geojson\((.*?)\)`)
	pathCoordsRegexp = regexp.MustCompile(`/(-?\d+\.\d+),(-?\d+\.\d+),`)
	scriptPairRegexp = regexp.MustCompile(`\[\s*(-?\d{1,3}\.\d+)\s*,\s*(-?\d{1,2}\.\d+)\s*\]`)
)

type coordinates struct {
	lat, lon float64
}

func (c coordinates) valid() bool {
	return c.lat >= -90 && c.lat <= 90 && c.lon >= -180 && c.lon <= 180
}

type geoFeature struct {
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// extractCoordinates tries the map preview image first, then coordinate
// pairs embedded in script blocks. A result always carries both values.
func extractCoordinates(doc dom.Node) (coordinates, bool) {
	if img, ok := doc.Find(selMapImage); ok {
		if src, ok := img.Attr("src"); ok {
			if c, ok := coordinatesFromMapURL(src); ok {
				return c, true
			}
		}
	}
	for _, script := range doc.FindAll("script") {
		if c, ok := coordinatesFromScript(script.Text()); ok {
			return c, true
		}
	}
	return coordinates{}, false
}

// coordinatesFromMapURL reads a static map URL. URLs with a GeoJSON overlay
// carry a Point or a Polygon (whose vertex mean is used); others encode
// "/lon,lat," in the path.
func coordinatesFromMapURL(src string) (coordinates, bool) {
	if strings.Contains(src, "geojson") {
		m := geojsonRegexp.FindStringSubmatch(src)
		if len(m) < 2 || m[1] == "" {
			return coordinates{}, false
		}
		return coordinatesFromGeoJSON(m[1])
	}

	m := pathCoordsRegexp.FindStringSubmatch(src)
	if len(m) < 3 {
		return coordinates{}, false
	}
	return parsePair(m[1], m[2])
}

func coordinatesFromGeoJSON(encoded string) (coordinates, bool) {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return coordinates{}, false
	}
	var f geoFeature
	if err := json.Unmarshal([]byte(decoded), &f); err != nil {
		return coordinates{}, false
	}

	switch f.Geometry.Type {
	case "Point":
		var p []float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &p); err != nil || len(p) < 2 {
			return coordinates{}, false
		}
		c := coordinates{lon: p[0], lat: p[1]}
		return c, c.valid()
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &rings); err != nil || len(rings) == 0 {
			return coordinates{}, false
		}
		return centroid(rings[0])
	}
	return coordinates{}, false
}

// centroid is the arithmetic mean of the ring's vertices.
func centroid(ring [][]float64) (coordinates, bool) {
	var sumLon, sumLat float64
	n := 0
	for _, pt := range ring {
		if len(pt) < 2 {
			continue
		}
		sumLon += pt[0]
		sumLat += pt[1]
		n++
	}
	if n == 0 {
		return coordinates{}, false
	}
	c := coordinates{lon: sumLon / float64(n), lat: sumLat / float64(n)}
	return c, c.valid()
}

// coordinatesFromScript takes the first bracketed "[lon, lat]" pair that
// lies within coordinate ranges.
func coordinatesFromScript(text string) (coordinates, bool) {
	for _, m := range scriptPairRegexp.FindAllStringSubmatch(text, -1) {
		if c, ok := parsePair(m[1], m[2]); ok {
			return c, true
		}
	}
	return coordinates{}, false
}

func parsePair(lonText, latText string) (coordinates, bool) {
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return coordinates{}, false
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return coordinates{}, false
	}
	c := coordinates{lat: lat, lon: lon}
	return c, c.valid()
}
