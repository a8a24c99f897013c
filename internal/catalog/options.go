// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"sort"
	"strings"

	"github.com/pdiddy/unimatch/pkg/types"
)

// Options holds the distinct values available for each filterable field,
// derived from a catalog snapshot. Served to UI dropdowns.
type Options struct {
	Programs         []string `json:"programs" yaml:"programs"`
	Countries        []string `json:"countries" yaml:"countries"`
	Levels           []string `json:"levels" yaml:"levels"`
	InstitutionTypes []string `json:"institution_types" yaml:"institution_types"`
	PreviousDegrees  []string `json:"previous_degrees" yaml:"previous_degrees"`
	PreviousCourses  []string `json:"previous_courses" yaml:"previous_courses"`
}

// popularPrograms are surfaced first in the programs dropdown.
var popularPrograms = []string{
	"Computer Science", "Business Administration", "Engineering",
	"Medicine", "Law", "Psychology", "Economics", "Mathematics",
	"Physics", "Chemistry", "Biology", "History", "English",
	"Political Science", "Sociology", "Art", "Music", "Education",
}

// popularCountries are surfaced first in the countries dropdown.
var popularCountries = []string{
	"United States", "Canada", "United Kingdom", "Australia",
	"Germany", "France", "Netherlands", "Sweden", "Switzerland",
	"Singapore", "Japan", "South Korea", "New Zealand", "Ireland",
	"Denmark", "Norway", "Finland", "Belgium", "Austria",
}

// previousDegrees is the static list of prior-credential types offered in
// the intake form.
var previousDegrees = []string{
	"Bachelor's Degree", "Master's Degree", "PhD/Doctorate",
	"Associate's Degree", "Diploma", "High School Diploma",
	"Certificate", "Foundation Year", "A-Levels", "IB Diploma",
}

// previousCourses is the static list of common prior fields of study.
var previousCourses = []string{
	"Computer Science", "Information Technology", "Business Administration",
	"Engineering", "Mathematics", "Physics", "Chemistry", "Biology",
	"Economics", "Psychology", "Sociology", "History", "English Literature",
	"Political Science", "International Relations", "Medicine", "Law",
	"Education", "Arts", "Music", "Design", "Architecture", "Accounting",
	"Finance", "Marketing", "Human Resources", "Nursing", "Pharmacy",
	"Agriculture", "Environmental Science",
}

// maxOtherPrograms caps the non-popular tail of the programs list so the
// dropdown stays usable.
const maxOtherPrograms = 50

// DeriveOptions computes the distinct option lists from records. Popular
// programs and countries sort first; the rest follow alphabetically.
func DeriveOptions(records []types.CatalogRecord) Options {
	return Options{
		Programs:         popularFirst(distinct(records, func(r types.CatalogRecord) string { return r.Program }), matchesPopularProgram, maxOtherPrograms),
		Countries:        popularFirst(distinct(records, func(r types.CatalogRecord) string { return r.Country }), matchesPopularCountry, 0),
		Levels:           sorted(distinct(records, func(r types.CatalogRecord) string { return r.Level })),
		InstitutionTypes: sorted(distinct(records, func(r types.CatalogRecord) string { return r.InstitutionType })),
		PreviousDegrees:  append([]string(nil), previousDegrees...),
		PreviousCourses:  append([]string(nil), previousCourses...),
	}
}

func distinct(records []types.CatalogRecord, field func(types.CatalogRecord) string) []string {
	seen := make(map[string]bool, len(records))
	var out []string
	for _, r := range records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func sorted(values []string) []string {
	sort.Strings(values)
	return values
}

func matchesPopularProgram(program string) bool {
	lower := strings.ToLower(program)
	for _, p := range popularPrograms {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func matchesPopularCountry(country string) bool {
	for _, c := range popularCountries {
		if country == c {
			return true
		}
	}
	return false
}

// popularFirst splits values into popular and other groups, sorts each, and
// concatenates them. maxOther > 0 truncates the other group.
func popularFirst(values []string, popular func(string) bool, maxOther int) []string {
	var pop, other []string
	for _, v := range values {
		if popular(v) {
			pop = append(pop, v)
		} else {
			other = append(other, v)
		}
	}
	sort.Strings(pop)
	sort.Strings(other)
	if maxOther > 0 && len(other) > maxOther {
		other = other[:maxOther]
	}
	return append(pop, other...)
}
