package services

import (
	"regexp"
	"strconv"
	"strings"

	"immo-tracker/models"
)

var (
	// digitsRegexp captures the first run of digits in a price.
	digitsRegexp = regexp.MustCompile(`\d+`)
	// areaRegexp captures "147", "147,5" or "147.5" followed by m².
	areaRegexp = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m²`)
	// plotRegexp only matches an area qualified as plot ("500 m² Grundstück").
	plotRegexp = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m²\s*Grundstück`)
	// roomsRegexp captures "4 Zimmer", "4,5 Zimmer", "3 Zi." style counts.
	roomsRegexp = regexp.MustCompile(`(\d+(?:,\d+)?)\s*(?:Zimmer|Zi\.?)`)
	// plotSuffixRegexp recognises the plot keyword right after an area match.
	plotSuffixRegexp = regexp.MustCompile(`^\s*Grundstück`)
)

const currencyMarker = "€"

// sentinels are placeholder strings that carry no numeric information.
var sentinels = map[string]struct{}{
	"":                  {},
	models.NoInfo:       {},
	"Preis auf Anfrage": {},
	"EG":                {},
}

func isSentinel(s string) bool {
	_, ok := sentinels[strings.TrimSpace(s)]
	return ok
}

// CleanPrice turns "1.250.000 €" into 1250000. Sentinels and anything
// without a euro amount yield nil.
func CleanPrice(text string) *float64 {
	if isSentinel(text) {
		return nil
	}
	idx := strings.Index(text, currencyMarker)
	if idx < 0 {
		return nil
	}
	amount := strings.ReplaceAll(strings.TrimSpace(text[:idx]), ".", "")
	digits := digitsRegexp.FindString(amount)
	if digits == "" {
		return nil
	}
	return parseNumber(digits)
}

// ExtractLivingArea returns the first area in details that is not qualified
// as plot size.
func ExtractLivingArea(details string) *float64 {
	if isSentinel(details) {
		return nil
	}
	for _, m := range areaRegexp.FindAllStringSubmatchIndex(details, -1) {
		if plotSuffixRegexp.MatchString(details[m[1]:]) {
			continue
		}
		return parseNumber(details[m[2]:m[3]])
	}
	return nil
}

// ExtractPlotArea returns the area qualified by the plot keyword, or nil when
// the keyword is absent.
func ExtractPlotArea(details string) *float64 {
	if isSentinel(details) {
		return nil
	}
	m := plotRegexp.FindStringSubmatch(details)
	if len(m) < 2 {
		return nil
	}
	return parseNumber(m[1])
}

// ExtractRoomCount returns the first room count in details.
func ExtractRoomCount(details string) *float64 {
	if isSentinel(details) {
		return nil
	}
	m := roomsRegexp.FindStringSubmatch(details)
	if len(m) < 2 {
		return nil
	}
	return parseNumber(m[1])
}

// parseNumber accepts either "." or "," as decimal separator.
func parseNumber(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
