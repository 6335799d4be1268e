package repository

import (
	"context"
	"time"
)

// SubmittedRepository deduplicates candidates submitted through the API:
// a number already waiting in the queue is not queued again.
type SubmittedRepository interface {
	// MarkSubmitted marks a candidate id as submitted with an expiry.
	MarkSubmitted(ctx context.Context, id string, expiry time.Duration) error
	// IsSubmitted checks if a candidate id was submitted recently.
	IsSubmitted(ctx context.Context, id string) (bool, error)
	// RemoveSubmitted drops the marker, used for force re-verification.
	RemoveSubmitted(ctx context.Context, id string) error
}
