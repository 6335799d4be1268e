package repository

import (
	"context"
	"errors"

	"github.com/user/leadverify-service/internal/entity"
)

// ErrResultNotFound means no outcome has been merged for the id.
var ErrResultNotFound = errors.New("no result for candidate")

// ResultRepository is the engine's durable output artifact: an
// append/overwrite-by-id collection of verified leads. Latest outcome
// wins, which makes repeated runs over overlapping lists an idempotent
// union.
type ResultRepository interface {
	// Save merges one verified lead into the set, overwriting any earlier
	// outcome for the same id.
	Save(ctx context.Context, lead *entity.VerifiedLead) error
	// Flush persists the merged set to stable storage.
	Flush(ctx context.Context) error
	// FindByID retrieves the latest outcome for a candidate id, or
	// ErrResultNotFound.
	FindByID(ctx context.Context, id string) (*entity.VerifiedLead, error)
	// All returns the merged set, ordered by id.
	All(ctx context.Context) ([]*entity.VerifiedLead, error)
}
