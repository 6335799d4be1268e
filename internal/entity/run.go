package entity

import "time"

// RunSummary tallies one verification run. It is reported at run end
// whether or not the full candidate list was completed.
type RunSummary struct {
	Total       int       `json:"total"`
	Skipped     int       `json:"skipped"` // already terminal in the checkpoint
	Valid       int       `json:"valid"`
	Invalid     int       `json:"invalid"`
	Ambiguous   int       `json:"ambiguous"`
	Error       int       `json:"error"`
	Interrupted bool      `json:"interrupted"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Count registers one outcome.
func (s *RunSummary) Count(st Status) {
	switch st {
	case StatusValid:
		s.Valid++
	case StatusInvalid:
		s.Invalid++
	case StatusAmbiguous:
		s.Ambiguous++
	case StatusError:
		s.Error++
	}
}

// Processed is the number of candidates actually checked this run.
func (s *RunSummary) Processed() int {
	return s.Valid + s.Invalid + s.Ambiguous + s.Error
}

// RunRecord mirrors the `runs` PostgreSQL audit table, one row per
// collection, verification, import or export run.
type RunRecord struct {
	ID          int64
	Kind        string // collection | verification | import | export
	Niche       string
	File        string
	Processed   int
	Inserted    int
	Errors      int
	DurationSec float64
	CreatedAt   time.Time
	Notes       string
}
