// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RecommendationResult is one user-facing recommendation. Candidates that
// violate a hard filter are excluded from output entirely rather than
// returned with a flag, so every result here satisfies the query's hard
// constraints.
type RecommendationResult struct {
	// RecordID identifies the catalog record.
	RecordID string `json:"record_id" yaml:"record_id"`

	// Program, CourseName, Institution, Country, City, Level, Credential and
	// InstitutionType are copied from the record so a consumer can render the
	// result without a catalog lookup.
	Program         string `json:"program" yaml:"program"`
	CourseName      string `json:"course_name" yaml:"course_name"`
	Institution     string `json:"university_name" yaml:"university_name"`
	Country         string `json:"country" yaml:"country"`
	City            string `json:"location" yaml:"location"`
	Level           string `json:"program_level" yaml:"program_level"`
	Credential      string `json:"credential" yaml:"credential"`
	InstitutionType string `json:"university_type" yaml:"university_type"`

	// TuitionUSD is the normalized tuition; GlobalRank is 0 when unranked.
	TuitionUSD float64 `json:"tuition_usd" yaml:"tuition_usd"`
	GlobalRank int     `json:"global_rank" yaml:"global_rank"`

	// Similarity is the raw vector similarity in [0, 1].
	Similarity float64 `json:"similarity_score" yaml:"similarity_score"`

	// MatchPercentage combines similarity with rule-based fit in [0, 100].
	MatchPercentage float64 `json:"match_percentage" yaml:"match_percentage"`

	// Reasoning is the natural-language justification; when the reasoning
	// provider fails or times out this holds the deterministic fallback text
	// and is never empty.
	Reasoning string `json:"llm_reasoning" yaml:"llm_reasoning"`
}
