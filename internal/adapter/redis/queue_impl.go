package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

const candidateQueueKey = "leadverify:queue"

// QueueRepoImpl provides a concrete implementation for the
// QueueRepository interface using a Redis list. Candidates are stored
// JSON-encoded so queued entries keep their lead metadata.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a candidate to the left side of the list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, candidate *entity.Candidate) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, candidateQueueKey, raw).Err()
}

// Pop removes and returns a candidate from the right side of the list,
// or ErrQueueEmpty when nothing is queued.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.Candidate, error) {
	raw, err := r.client.RPop(ctx, candidateQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}

	var candidate entity.Candidate
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, fmt.Errorf("failed to decode queued candidate: %w", err)
	}
	return &candidate, nil
}

// Size returns the current number of queued candidates.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, candidateQueueKey).Result()
}
