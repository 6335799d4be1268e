package entity

import "time"

// Status classifies the result of one reachability check.
type Status string

const (
	StatusValid     Status = "valid"     // definitive: the number has an account
	StatusInvalid   Status = "invalid"   // definitive: the number has no account
	StatusAmbiguous Status = "ambiguous" // unclassifiable response (rate limit, CAPTCHA, odd UI)
	StatusError     Status = "error"     // transport failure, timeout, session loss
)

// Terminal reports whether the status is final. Terminal candidates are
// never re-checked on later runs; ambiguous and error ones may be.
func (s Status) Terminal() bool {
	return s == StatusValid || s == StatusInvalid
}

// VerificationOutcome is the immutable result of checking one candidate.
// A re-check supersedes the previous outcome, it never mutates it.
type VerificationOutcome struct {
	CandidateID string    `json:"candidate_id"`
	Status      Status    `json:"status"`
	CheckedAt   time.Time `json:"checked_at"`
	Reason      string    `json:"reason,omitempty"`
}

// VerifiedLead is one entry of the durable result set: the outcome joined
// with the lead metadata it belongs to. Merged append/overwrite-by-id.
type VerifiedLead struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	Lead      Lead      `json:"lead"`
}
