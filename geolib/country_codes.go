package geolib

import (
	"strings"

	"github.com/pariz/gountries"
)

var (
	countryCodeQuery = gountries.New()

	// codes which are used by legacy databases but are not real
	// countries.
	pseudoCountries = map[string]struct {
		name      string
		continent string
	}{
		"AP": {name: "Asia/Pacific Region", continent: "AS"},
		"EU": {name: "Europe", continent: "EU"},
		"A1": {name: "Anonymous Proxy"},
		"A2": {name: "Satellite Provider"},
		"O1": {name: "Other"},
	}

	regionsToContinentCodes = map[string]string{
		"africa":     "AF",
		"antarctic":  "AN",
		"antarctica": "AN",
		"asia":       "AS",
		"europe":     "EU",
		"oceania":    "OC",
	}
)

// NormalizeAlpha2Code returns a normalized 2-letter ISO3166 code.
// Normalized code is uppercased with some additional mapping. Some
// legacy databases still map Serbia to YU or United Kingdom to UK. This
// function maps them to actual codes.
func NormalizeAlpha2Code(alpha2 string) string {
	alpha2 = strings.ToUpper(strings.TrimSpace(alpha2))

	if len(alpha2) != 2 {
		return ""
	}

	switch alpha2 {
	case "--", "ZZ":
		return ""
	case "YU":
		return "CS"
	case "FX":
		return "FR"
	case "UK":
		return "GB"
	default:
		return alpha2
	}
}

// CountryName returns a common name of the country. Returns false if
// code is unknown.
func CountryName(alpha2 string) (string, bool) {
	alpha2 = NormalizeAlpha2Code(alpha2)

	if pseudo, ok := pseudoCountries[alpha2]; ok {
		return pseudo.name, true
	}

	country, err := countryCodeQuery.FindCountryByAlpha(alpha2)
	if err != nil {
		return "", false
	}

	return country.Name.Common, true
}

// ContinentCode returns a 2-letter continent code (AF, AN, AS, EU, NA,
// OC, SA) of the country. Returns empty string if continent is unknown.
func ContinentCode(alpha2 string) string {
	alpha2 = NormalizeAlpha2Code(alpha2)

	if pseudo, ok := pseudoCountries[alpha2]; ok {
		return pseudo.continent
	}

	country, err := countryCodeQuery.FindCountryByAlpha(alpha2)
	if err != nil {
		return ""
	}

	region := strings.ToLower(country.Region)

	if region == "americas" {
		if strings.ToLower(country.SubRegion) == "south america" {
			return "SA"
		}

		return "NA"
	}

	return regionsToContinentCodes[region]
}
