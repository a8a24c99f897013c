// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// countryAliases maps common abbreviations and variants to canonical names.
// Filter comparisons downstream are exact-match, so everything must funnel
// through one spelling.
var countryAliases = map[string]string{
	"usa":                      "United States",
	"us":                       "United States",
	"u.s.":                     "United States",
	"u.s.a.":                   "United States",
	"united states of america": "United States",
	"america":                  "United States",
	"uk":                       "United Kingdom",
	"u.k.":                     "United Kingdom",
	"great britain":            "United Kingdom",
	"england":                  "United Kingdom",
	"uae":                      "United Arab Emirates",
	"south korea":              "South Korea",
	"republic of korea":        "South Korea",
	"korea":                    "South Korea",
	"holland":                  "Netherlands",
	"the netherlands":          "Netherlands",
	"new zealand":              "New Zealand",
	"czechia":                  "Czech Republic",
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeCountry returns the canonical country name for raw input:
// a known alias target, or the trimmed input title-cased.
func NormalizeCountry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := countryAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return titleCaser.String(strings.ToLower(trimmed))
}

// usdRates converts one unit of each currency to USD. The table is fixed:
// tuition comparisons need stability across builds, not market accuracy.
var usdRates = map[string]float64{
	"USD": 1.0,
	"CAD": 0.74,
	"GBP": 1.27,
	"EUR": 1.08,
	"AUD": 0.66,
	"NZD": 0.61,
	"CHF": 1.13,
	"SEK": 0.095,
	"DKK": 0.145,
	"NOK": 0.093,
	"SGD": 0.74,
	"JPY": 0.0067,
	"KRW": 0.00075,
	"INR": 0.012,
	"CNY": 0.14,
}

// ToUSD converts an amount in the given currency to US dollars. Unknown
// currencies are a semantic type error in the catalog.
func ToUSD(amount float64, currency string) (float64, error) {
	rate, ok := usdRates[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("unknown currency %q", currency)
	}
	return amount * rate, nil
}
