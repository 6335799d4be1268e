package entity

// Lead mirrors the `leads` PostgreSQL table schema. All fields except the
// phone are opaque to the verification engine and pass through unchanged.
type Lead struct {
	Company     string `json:"company,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
	Role        string `json:"role,omitempty"`
	Phone       string `json:"phone,omitempty"` // raw form, as scraped
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Locality    string `json:"locality,omitempty"`
	District    string `json:"district,omitempty"`
	Niche       string `json:"niche,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
	Source      string `json:"source,omitempty"`
	ExtractedAt string `json:"extracted_at,omitempty"` // YYYY-MM-DD
}

// Completeness counts the populated contact fields. Deduplication keeps
// the most complete record when two leads share a phone number.
func (l *Lead) Completeness() int {
	score := 0
	for _, f := range []string{
		l.Company, l.Phone, l.Email, l.ContactName,
		l.Role, l.Website, l.Locality, l.District,
	} {
		if f != "" {
			score++
		}
	}
	return score
}
