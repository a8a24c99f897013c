// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads and normalizes the raw program/university records
// into their canonical in-memory form. Loading is deterministic: the same
// source bytes produce identical ordering, values, and version hash.
package catalog

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unimatch/pkg/types"
)

// rawRecord mirrors the upstream dataset field names. Tuition fields stay
// raw here so we can distinguish "missing" from "zero" and reject
// non-numeric values with a precise error.
type rawRecord struct {
	UniversityID string  `json:"university_id" yaml:"university_id"`
	CourseID     string  `json:"university_course_id" yaml:"university_course_id"`
	University   string  `json:"university_name" yaml:"university_name"`
	CourseName   string  `json:"university_course_name" yaml:"university_course_name"`
	Program      string  `json:"parent_course_name" yaml:"parent_course_name"`
	ProgramLabel string  `json:"course_program_label" yaml:"course_program_label"`
	Level        string  `json:"program_level" yaml:"program_level"`
	ProgramType  string  `json:"program_type" yaml:"program_type"`
	Credential   string  `json:"university_courses_credential" yaml:"university_courses_credential"`
	Location     string  `json:"location_name" yaml:"location_name"`
	Country      string  `json:"country_name" yaml:"country_name"`
	Currency     string  `json:"country_currency" yaml:"country_currency"`
	GlobalRank   *int    `json:"university_global_rank" yaml:"university_global_rank"`
	TuitionUSD   *number `json:"university_course_tuition_usd" yaml:"university_course_tuition_usd"`
	Tuition      *number `json:"university_course_tuition" yaml:"university_course_tuition"`
	Type         string  `json:"university_type" yaml:"university_type"`
	Description  string  `json:"description" yaml:"description"`
}

// number accepts JSON/YAML numbers or numeric strings. Anything else is a
// type error surfaced as MalformedCatalogError by the loader.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("non-numeric value %q", s)
	}
	*n = number(f)
	return nil
}

func (n *number) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" || s == "~" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("non-numeric value %q", s)
	}
	*n = number(f)
	return nil
}

// Load reads the catalog file at path and returns the ordered canonical
// records plus the catalog version (a content hash of the source bytes).
// JSON and YAML sources are supported, selected by file extension.
func Load(path string) ([]types.CatalogRecord, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var raw []rawRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, "", &types.MalformedCatalogError{Source: path, Row: -1, Reason: err.Error()}
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, "", &types.MalformedCatalogError{Source: path, Row: -1, Reason: err.Error()}
		}
	}

	records := make([]types.CatalogRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := canonicalize(r)
		if err != nil {
			return nil, "", &types.MalformedCatalogError{Source: path, Row: i, Reason: err.Error()}
		}
		records = append(records, rec)
	}

	return records, Version(data), nil
}

// Version returns the catalog version for the given source bytes: the first
// 12 hex characters of SHA-256. Stored in CacheMetadata so a changed catalog
// cannot silently serve a stale index.
func Version(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:12]
}

// canonicalize validates a raw record and maps it to the canonical form.
func canonicalize(r rawRecord) (types.CatalogRecord, error) {
	switch {
	case r.CourseID == "":
		return types.CatalogRecord{}, fmt.Errorf("missing university_course_id")
	case r.University == "":
		return types.CatalogRecord{}, fmt.Errorf("missing university_name")
	case r.CourseName == "":
		return types.CatalogRecord{}, fmt.Errorf("missing university_course_name")
	case r.Country == "":
		return types.CatalogRecord{}, fmt.Errorf("missing country_name")
	}

	program := r.Program
	if program == "" {
		program = r.ProgramLabel
	}
	if program == "" {
		return types.CatalogRecord{}, fmt.Errorf("missing parent_course_name")
	}

	level := r.Level
	if level == "" {
		level = r.ProgramType
	}

	tuition, currency, err := normalizeTuition(r)
	if err != nil {
		return types.CatalogRecord{}, err
	}

	rank := 0
	if r.GlobalRank != nil {
		if *r.GlobalRank < 0 {
			return types.CatalogRecord{}, fmt.Errorf("negative university_global_rank %d", *r.GlobalRank)
		}
		rank = *r.GlobalRank
	}

	return types.CatalogRecord{
		ID:              r.CourseID,
		Program:         strings.TrimSpace(program),
		CourseName:      strings.TrimSpace(r.CourseName),
		Institution:     strings.TrimSpace(r.University),
		InstitutionType: strings.TrimSpace(r.Type),
		Country:         NormalizeCountry(r.Country),
		City:            strings.TrimSpace(r.Location),
		Level:           strings.TrimSpace(level),
		Credential:      strings.TrimSpace(r.Credential),
		TuitionUSD:      tuition,
		Currency:        currency,
		GlobalRank:      rank,
		Description:     strings.TrimSpace(r.Description),
	}, nil
}

// normalizeTuition picks the USD tuition when published, otherwise converts
// the native-currency tuition with the fixed rate table. Records with no
// tuition at all are allowed; the composer treats zero as unknown.
func normalizeTuition(r rawRecord) (float64, string, error) {
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = "USD"
	}

	if r.TuitionUSD != nil {
		v := float64(*r.TuitionUSD)
		if v < 0 {
			return 0, "", fmt.Errorf("negative tuition %v", v)
		}
		return v, currency, nil
	}

	if r.Tuition == nil {
		return 0, currency, nil
	}

	v := float64(*r.Tuition)
	if v < 0 {
		return 0, "", fmt.Errorf("negative tuition %v", v)
	}
	usd, err := ToUSD(v, currency)
	if err != nil {
		return 0, "", err
	}
	return usd, currency, nil
}
