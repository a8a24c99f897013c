// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/unimatch/pkg/types"
)

const sampleJSON = `[
  {
    "university_id": "u1",
    "university_course_id": "c1",
    "university_name": "Example University",
    "university_course_name": "MSc Computer Science",
    "parent_course_name": "Computer Science",
    "program_level": "Master's",
    "university_courses_credential": "MSc",
    "location_name": "Toronto",
    "country_name": "canada",
    "country_currency": "CAD",
    "university_global_rank": 120,
    "university_course_tuition": 20000,
    "university_type": "Public",
    "description": "A research-focused program."
  },
  {
    "university_course_id": "c2",
    "university_name": "Other University",
    "university_course_name": "MBA",
    "course_program_label": "Business Administration",
    "program_type": "Master's",
    "country_name": "USA",
    "university_course_tuition_usd": "35000"
  }
]`

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeCatalog(t, "catalog.json", sampleJSON)

	records, version, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if len(version) != 12 {
		t.Errorf("len(version) = %d, want 12", len(version))
	}

	r := records[0]
	if r.ID != "c1" {
		t.Errorf("ID = %q, want %q", r.ID, "c1")
	}
	if r.Country != "Canada" {
		t.Errorf("Country = %q, want %q (normalized)", r.Country, "Canada")
	}
	// 20000 CAD at the fixed 0.74 rate.
	if r.TuitionUSD != 14800 {
		t.Errorf("TuitionUSD = %v, want 14800", r.TuitionUSD)
	}
	if r.GlobalRank != 120 {
		t.Errorf("GlobalRank = %d, want 120", r.GlobalRank)
	}

	r = records[1]
	if r.Country != "United States" {
		t.Errorf("Country = %q, want %q", r.Country, "United States")
	}
	// parent_course_name absent, course_program_label fills in.
	if r.Program != "Business Administration" {
		t.Errorf("Program = %q, want %q", r.Program, "Business Administration")
	}
	// program_level absent, program_type fills in.
	if r.Level != "Master's" {
		t.Errorf("Level = %q, want %q", r.Level, "Master's")
	}
	// Published USD tuition as a numeric string.
	if r.TuitionUSD != 35000 {
		t.Errorf("TuitionUSD = %v, want 35000", r.TuitionUSD)
	}
	if r.GlobalRank != 0 {
		t.Errorf("GlobalRank = %d, want 0 for unranked", r.GlobalRank)
	}
}

func TestLoadYAML(t *testing.T) {
	content := `
- university_course_id: c1
  university_name: Example University
  university_course_name: BSc Physics
  parent_course_name: Physics
  country_name: Germany
  country_currency: EUR
  university_course_tuition: 1000
`
	path := writeCatalog(t, "catalog.yaml", content)

	records, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].TuitionUSD != 1080 {
		t.Errorf("TuitionUSD = %v, want 1080", records[0].TuitionUSD)
	}
}

func TestLoadVersionDeterministic(t *testing.T) {
	path := writeCatalog(t, "catalog.json", sampleJSON)

	_, v1, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, v2, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v1 != v2 {
		t.Errorf("version changed across loads: %q vs %q", v1, v2)
	}

	other := writeCatalog(t, "other.json", strings.Replace(sampleJSON, "Toronto", "Ottawa", 1))
	_, v3, err := Load(other)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v1 == v3 {
		t.Errorf("version should change when source bytes change")
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	content := `[{"university_name": "X", "university_course_name": "Y", "country_name": "Z"}]`
	path := writeCatalog(t, "catalog.json", content)

	_, _, err := Load(path)
	var merr *types.MalformedCatalogError
	if !errors.As(err, &merr) {
		t.Fatalf("Load error = %v, want MalformedCatalogError", err)
	}
	if merr.Row != 0 {
		t.Errorf("Row = %d, want 0", merr.Row)
	}
	if !strings.Contains(merr.Reason, "university_course_id") {
		t.Errorf("Reason = %q, want mention of university_course_id", merr.Reason)
	}
}

func TestLoadNonNumericTuition(t *testing.T) {
	content := `[{
  "university_course_id": "c1",
  "university_name": "X",
  "university_course_name": "Y",
  "parent_course_name": "P",
  "country_name": "Canada",
  "university_course_tuition_usd": "twenty thousand"
}]`
	path := writeCatalog(t, "catalog.json", content)

	_, _, err := Load(path)
	var merr *types.MalformedCatalogError
	if !errors.As(err, &merr) {
		t.Fatalf("Load error = %v, want MalformedCatalogError", err)
	}
	if !strings.Contains(err.Error(), "non-numeric") {
		t.Errorf("error = %v, want non-numeric mention", err)
	}
}

func TestLoadNumericPrefixTuition(t *testing.T) {
	// A numeric prefix with trailing garbage must be rejected outright, not
	// parsed as the prefix value.
	content := `[{
  "university_course_id": "c1",
  "university_name": "X",
  "university_course_name": "Y",
  "parent_course_name": "P",
  "country_name": "Canada",
  "university_course_tuition_usd": "12abc"
}]`
	path := writeCatalog(t, "catalog.json", content)

	_, _, err := Load(path)
	var merr *types.MalformedCatalogError
	if !errors.As(err, &merr) {
		t.Fatalf("Load error = %v, want MalformedCatalogError", err)
	}
	if !strings.Contains(err.Error(), "12abc") {
		t.Errorf("error = %v, want the offending value quoted", err)
	}

	yamlContent := `
- university_course_id: c1
  university_name: X
  university_course_name: Y
  parent_course_name: P
  country_name: Canada
  university_course_tuition_usd: 12abc
`
	yamlPath := writeCatalog(t, "catalog.yaml", yamlContent)
	if _, _, err := Load(yamlPath); !errors.As(err, &merr) {
		t.Fatalf("Load (yaml) error = %v, want MalformedCatalogError", err)
	}
}

func TestLoadUnknownCurrency(t *testing.T) {
	content := `[{
  "university_course_id": "c1",
  "university_name": "X",
  "university_course_name": "Y",
  "parent_course_name": "P",
  "country_name": "Narnia",
  "country_currency": "NRN",
  "university_course_tuition": 5000
}]`
	path := writeCatalog(t, "catalog.json", content)

	_, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown currency") {
		t.Errorf("Load error = %v, want unknown currency", err)
	}
}

func TestLoadNegativeTuition(t *testing.T) {
	content := `[{
  "university_course_id": "c1",
  "university_name": "X",
  "university_course_name": "Y",
  "parent_course_name": "P",
  "country_name": "Canada",
  "university_course_tuition_usd": -100
}]`
	path := writeCatalog(t, "catalog.json", content)

	if _, _, err := Load(path); err == nil {
		t.Error("Load should reject negative tuition")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestNormalizeCountry(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"USA", "United States"},
		{"u.s.", "United States"},
		{"uk", "United Kingdom"},
		{"England", "United Kingdom"},
		{"holland", "Netherlands"},
		{"korea", "South Korea"},
		{"  canada ", "Canada"},
		{"new zealand", "New Zealand"},
		{"FRANCE", "France"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCountry(tc.in); got != tc.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToUSD(t *testing.T) {
	got, err := ToUSD(100, "gbp")
	if err != nil {
		t.Fatalf("ToUSD: %v", err)
	}
	if got != 127 {
		t.Errorf("ToUSD(100, gbp) = %v, want 127", got)
	}

	if _, err := ToUSD(1, "XXX"); err == nil {
		t.Error("ToUSD should reject an unknown currency")
	}
}
