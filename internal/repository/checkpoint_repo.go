package repository

import (
	"context"
	"errors"

	"github.com/user/leadverify-service/internal/entity"
)

// ErrCorruptCheckpoint means the persisted checkpoint is unreadable or
// malformed. The store never discards it on its own; the caller decides
// between a fresh start and an abort.
var ErrCorruptCheckpoint = errors.New("checkpoint is corrupt")

// CheckpointRepository is the engine's durable progress record. Its
// crash-safety contract: Record must be flushed to stable storage before
// returning, and recording the same (id, outcome) twice is a no-op.
type CheckpointRepository interface {
	// Load reads the persisted checkpoint, returning an empty one when
	// none exists and ErrCorruptCheckpoint when it cannot be parsed.
	Load(ctx context.Context) (*entity.Checkpoint, error)
	// Record durably stores the candidate's latest outcome and advances
	// the cursor to at least position+1.
	Record(ctx context.Context, position int, outcome *entity.VerificationOutcome) error
	// IsDone reports whether the candidate's latest outcome is terminal.
	// Unseen, error and ambiguous candidates are not done.
	IsDone(ctx context.Context, candidateID string) (bool, error)
	// Clear removes the checkpoint once the full candidate list has been
	// processed.
	Clear(ctx context.Context) error
}
