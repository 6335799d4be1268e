package entity

import "time"

// LeadStatus is the API view of where a phone number stands in the
// verification pipeline.
type LeadStatus struct {
	Phone         string     `json:"phone"`
	CurrentStatus string     `json:"current_status"` // "verified", "pending", "not_found"
	Outcome       Status     `json:"outcome,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}
