package response

import "time"

type SubmitVerifyResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CandidateID string `json:"candidate_id"`
}

// LeadStatusResponse is a DTO for lead status, mirroring entity.LeadStatus
type LeadStatusResponse struct {
	Phone         string     `json:"phone"`
	CurrentStatus string     `json:"current_status"` // "verified", "pending", "not_found"
	Outcome       string     `json:"outcome,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

// NicheStatsResponse is one row of the per-niche aggregate report.
type NicheStatsResponse struct {
	Niche      string `json:"niche"`
	Source     string `json:"source"`
	Total      int    `json:"total"`
	Valid      int    `json:"valid"`
	Invalid    int    `json:"invalid"`
	Unverified int    `json:"unverified"`
	WithEmail  int    `json:"with_email"`
}
