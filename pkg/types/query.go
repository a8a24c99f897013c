// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Query is a student's structured study preferences. It is constructed per
// request, validated at the API boundary, and never persisted by this core.
type Query struct {
	// DesiredProgram is the program the student wants to study. Records with
	// no program-name overlap at all are excluded from results.
	DesiredProgram string `json:"desired_program" yaml:"desired_program" validate:"required,min=2"`

	// ProgramLevel is the desired level (e.g. "Master's").
	ProgramLevel string `json:"program_level" yaml:"program_level"`

	// PreferredCountries is a hard filter when non-empty: only records whose
	// country is in this set are returned.
	PreferredCountries []string `json:"preferred_countries" yaml:"preferred_countries"`

	// InstitutionTypes soft-biases ranking toward matching institution types.
	InstitutionTypes []string `json:"institution_types" yaml:"institution_types"`

	// MaxBudgetUSD is a hard tuition ceiling in USD; 0 means no ceiling.
	MaxBudgetUSD float64 `json:"max_budget_usd" yaml:"max_budget_usd" validate:"gte=0"`

	// MinGlobalRank is the worst acceptable global rank for the rank bonus;
	// 0 disables the rank factor.
	MinGlobalRank int `json:"min_global_rank" yaml:"min_global_rank" validate:"gte=0"`

	// GPA is the student's grade point average on a 4.0 scale, if supplied.
	GPA float64 `json:"gpa" yaml:"gpa" validate:"gte=0,lte=4.33"`

	// FreeText carries additional preferences in the student's own words.
	FreeText string `json:"additional_preferences" yaml:"additional_preferences"`
}

// WantsCountry reports whether country is acceptable under the hard
// country filter. An empty preference set accepts every country.
func (q Query) WantsCountry(country string) bool {
	if len(q.PreferredCountries) == 0 {
		return true
	}
	for _, c := range q.PreferredCountries {
		if c == country {
			return true
		}
	}
	return false
}

// WithinBudget reports whether tuition satisfies the hard budget filter.
// A zero budget means no ceiling; a zero tuition is treated as unknown and
// passes (the rule score handles unknown tuition separately).
func (q Query) WithinBudget(tuitionUSD float64) bool {
	if q.MaxBudgetUSD <= 0 || tuitionUSD <= 0 {
		return true
	}
	return tuitionUSD <= q.MaxBudgetUSD
}
