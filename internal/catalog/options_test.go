// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"testing"

	"github.com/pdiddy/unimatch/pkg/types"
)

func optionRecords() []types.CatalogRecord {
	return []types.CatalogRecord{
		{ID: "1", Program: "Zymurgy", Country: "Latvia", Level: "Bachelor's", InstitutionType: "Public"},
		{ID: "2", Program: "Computer Science", Country: "Canada", Level: "Master's", InstitutionType: "Private"},
		{ID: "3", Program: "Computer Science", Country: "Canada", Level: "Master's", InstitutionType: "Private"},
		{ID: "4", Program: "Applied Economics", Country: "Estonia", Level: "PhD"},
	}
}

func TestDeriveOptionsPopularFirst(t *testing.T) {
	opts := DeriveOptions(optionRecords())

	// Popular entries lead; the rest follow alphabetically.
	want := []string{"Applied Economics", "Computer Science", "Zymurgy"}
	if len(opts.Programs) != len(want) {
		t.Fatalf("len(Programs) = %d, want %d", len(opts.Programs), len(want))
	}
	// "Applied Economics" contains popular "Economics", "Computer Science" is
	// popular outright; "Zymurgy" trails.
	if opts.Programs[len(opts.Programs)-1] != "Zymurgy" {
		t.Errorf("Programs = %v, want Zymurgy last", opts.Programs)
	}

	if opts.Countries[0] != "Canada" {
		t.Errorf("Countries = %v, want popular Canada first", opts.Countries)
	}
}

func TestDeriveOptionsDeduplicates(t *testing.T) {
	opts := DeriveOptions(optionRecords())

	counts := map[string]int{}
	for _, p := range opts.Programs {
		counts[p]++
	}
	if counts["Computer Science"] != 1 {
		t.Errorf("Computer Science appears %d times, want 1", counts["Computer Science"])
	}

	if len(opts.Levels) != 3 {
		t.Errorf("Levels = %v, want 3 distinct", opts.Levels)
	}
	if len(opts.InstitutionTypes) != 2 {
		t.Errorf("InstitutionTypes = %v, want 2 distinct (empty skipped)", opts.InstitutionTypes)
	}
}

func TestDeriveOptionsStaticLists(t *testing.T) {
	opts := DeriveOptions(nil)

	if len(opts.PreviousDegrees) == 0 {
		t.Error("PreviousDegrees should be served even for an empty catalog")
	}
	if len(opts.PreviousCourses) == 0 {
		t.Error("PreviousCourses should be served even for an empty catalog")
	}
	if opts.PreviousDegrees[0] != "Bachelor's Degree" {
		t.Errorf("PreviousDegrees[0] = %q, want %q", opts.PreviousDegrees[0], "Bachelor's Degree")
	}
}

func TestDeriveOptionsDeterministic(t *testing.T) {
	a := DeriveOptions(optionRecords())
	b := DeriveOptions(optionRecords())

	for i := range a.Programs {
		if a.Programs[i] != b.Programs[i] {
			t.Fatalf("Programs[%d] differs across calls: %q vs %q", i, a.Programs[i], b.Programs[i])
		}
	}
}
