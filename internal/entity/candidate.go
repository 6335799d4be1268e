package entity

// Candidate is an unverified lead handed to the verification engine.
// ID is the phone number normalized to a canonical digit string; the
// lead metadata is carried through unchanged.
type Candidate struct {
	ID   string `json:"id"`
	Lead Lead   `json:"lead"`
}

// Malformed reports whether the candidate carries no usable identifier.
// Such candidates are recorded with an error outcome instead of being
// rejected from the batch.
func (c *Candidate) Malformed() bool {
	return c.ID == ""
}
