package entity

// Checkpoint is the engine's durable progress record: the latest outcome
// per candidate id plus a monotonic cursor into the candidate list.
type Checkpoint struct {
	Cursor   int                            `json:"cursor"`
	Outcomes map[string]VerificationOutcome `json:"outcomes"`
}

// NewCheckpoint returns an empty checkpoint.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{Outcomes: make(map[string]VerificationOutcome)}
}

// Done reports whether the candidate already has a terminal outcome.
// Error and ambiguous outcomes stay retryable across runs.
func (c *Checkpoint) Done(id string) bool {
	out, ok := c.Outcomes[id]
	return ok && out.Status.Terminal()
}
