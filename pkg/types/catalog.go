// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the unimatch matching core:
// catalog records, queries, recommendation results, cache metadata, and the
// configuration structs consumed by every stage.
package types

// CatalogRecord is one program offering at one institution. Records are
// immutable once loaded; the catalog loader owns them during load and every
// other component reads them through shared slices.
type CatalogRecord struct {
	// ID is the stable identifier of the program offering.
	ID string `json:"course_id" yaml:"course_id"`

	// Program is the canonical program name (e.g. "Computer Science").
	Program string `json:"parent_course_name" yaml:"parent_course_name"`

	// CourseName is the institution's own name for the offering
	// (e.g. "MSc Advanced Computer Science").
	CourseName string `json:"course_name" yaml:"course_name"`

	// Institution is the university or college name.
	Institution string `json:"university_name" yaml:"university_name"`

	// InstitutionType is "Public" or "Private" when known.
	InstitutionType string `json:"university_type" yaml:"university_type"`

	// Country is the canonicalized country name (see catalog.NormalizeCountry).
	Country string `json:"country_name" yaml:"country_name"`

	// City is the campus location within the country.
	City string `json:"location_name" yaml:"location_name"`

	// Level is the program level (e.g. "Bachelor's", "Master's", "PhD").
	Level string `json:"program_level" yaml:"program_level"`

	// Credential is the awarded credential (e.g. "Master of Science").
	Credential string `json:"credential" yaml:"credential"`

	// TuitionUSD is the annual tuition normalized to US dollars.
	TuitionUSD float64 `json:"tuition_usd" yaml:"tuition_usd"`

	// Currency is the source currency the tuition was published in.
	Currency string `json:"currency" yaml:"currency"`

	// GlobalRank is the institution's global rank; 0 means unranked.
	GlobalRank int `json:"global_rank" yaml:"global_rank"`

	// Description is auxiliary descriptive text folded into the embedding.
	Description string `json:"description" yaml:"description"`
}

// Ranked reports whether the record carries a global rank.
func (r CatalogRecord) Ranked() bool { return r.GlobalRank > 0 }
