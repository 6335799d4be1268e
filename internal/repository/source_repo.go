package repository

import (
	"context"
	"errors"

	"github.com/user/leadverify-service/internal/entity"
)

// ErrQueueEmpty means there is no queued candidate right now.
var ErrQueueEmpty = errors.New("candidate queue is empty")

// ErrUnreadableInput means the candidate list cannot be read at all.
// This is fatal to the run, unlike per-candidate failures.
var ErrUnreadableInput = errors.New("candidate list is unreadable")

// CandidateSource supplies the ordered batch of candidates for one run.
type CandidateSource interface {
	// Load reads the full candidate list in input order. Malformed
	// entries are kept (with an empty id), not dropped.
	Load(ctx context.Context) ([]*entity.Candidate, error)
}

// QueueRepository is a FIFO queue of candidates for continuous mode.
type QueueRepository interface {
	// Push adds a candidate to the end of the queue.
	Push(ctx context.Context, candidate *entity.Candidate) error
	// Pop removes and returns the candidate at the front of the queue,
	// or ErrQueueEmpty.
	Pop(ctx context.Context) (*entity.Candidate, error)
	// Size returns the current queue depth.
	Size(ctx context.Context) (int64, error)
}
