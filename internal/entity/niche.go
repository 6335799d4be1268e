package entity

// Niche is one directory search the collector works through.
type Niche struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	URL       string `json:"url"`
	Specialty string `json:"specialty,omitempty"`
}
