package request

// SubmitVerifyRequest queues one lead for verification. Only the phone
// is required; the rest is carried through to the result set.
type SubmitVerifyRequest struct {
	Phone       string `json:"phone"`
	Company     string `json:"company,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Niche       string `json:"niche,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
	Force       bool   `json:"force"`
}
