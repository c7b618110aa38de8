package dto

// AssignRequest payload. Exactly one of profile_id or vendor_id is set.
type AssignRequest struct {
	ProfileID string `json:"profile_id"`
	VendorID  string `json:"vendor_id"`
	Strategy  string `json:"strategy"`
}

// CandidateResponse is one scored roster entry.
type CandidateResponse struct {
	ProfileID       string          `json:"profile_id"`
	Name            string          `json:"name"`
	CurrentWorkload int             `json:"current_workload"`
	MaxWorkload     int             `json:"max_workload"`
	SkillLevel      int             `json:"skill_level"`
	Score           float64         `json:"score"`
	Factors         FactorsResponse `json:"factors"`
}

// FactorsResponse breaks the composite score into its inputs.
type FactorsResponse struct {
	SkillMatch   float64 `json:"skill_match"`
	Workload     float64 `json:"workload"`
	Availability float64 `json:"availability"`
}

// RecommendationResponse is the ranked candidate list.
type RecommendationResponse struct {
	Strategy      string              `json:"strategy"`
	RecommendedID *string             `json:"recommended_id"`
	Candidates    []CandidateResponse `json:"candidates"`
}
