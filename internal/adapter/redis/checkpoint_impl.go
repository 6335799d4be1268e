package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

// CheckpointRepoImpl provides a concrete implementation for the
// CheckpointRepository interface using Redis: one hash of per-candidate
// outcomes plus a cursor key. Durability depends on the Redis
// persistence configuration (AOF recommended for this store).
type CheckpointRepoImpl struct {
	client *redis.Client
	name   string

	mu sync.Mutex
	cp *entity.Checkpoint
}

// NewCheckpointRepo creates a Redis-backed checkpoint store scoped by
// name, so independent engine instances keep independent checkpoints.
func NewCheckpointRepo(client *redis.Client, name string) *CheckpointRepoImpl {
	return &CheckpointRepoImpl{client: client, name: name}
}

func (r *CheckpointRepoImpl) outcomesKey() string {
	return fmt.Sprintf("leadverify:checkpoint:%s:outcomes", r.name)
}

func (r *CheckpointRepoImpl) cursorKey() string {
	return fmt.Sprintf("leadverify:checkpoint:%s:cursor", r.name)
}

// Load reads the persisted checkpoint from Redis.
func (r *CheckpointRepoImpl) Load(ctx context.Context) (*entity.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fields, err := r.client.HGetAll(ctx, r.outcomesKey()).Result()
	if err != nil {
		return nil, err
	}

	cp := entity.NewCheckpoint()
	for id, raw := range fields {
		var out entity.VerificationOutcome
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("%w: outcome for %s: %v", repository.ErrCorruptCheckpoint, id, err)
		}
		cp.Outcomes[id] = out
	}

	rawCursor, err := r.client.Get(ctx, r.cursorKey()).Result()
	switch {
	case err == redis.Nil:
		// no cursor yet
	case err != nil:
		return nil, err
	default:
		cursor, convErr := strconv.Atoi(rawCursor)
		if convErr != nil || cursor < 0 {
			return nil, fmt.Errorf("%w: cursor %q", repository.ErrCorruptCheckpoint, rawCursor)
		}
		cp.Cursor = cursor
	}

	r.cp = cp
	return cp, nil
}

// Record stores the candidate's latest outcome and advances the cursor.
func (r *CheckpointRepoImpl) Record(ctx context.Context, position int, outcome *entity.VerificationOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cp == nil {
		r.cp = entity.NewCheckpoint()
	}

	raw, err := json.Marshal(outcome)
	if err != nil {
		return err
	}

	r.cp.Outcomes[outcome.CandidateID] = *outcome
	if position+1 > r.cp.Cursor {
		r.cp.Cursor = position + 1
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.outcomesKey(), outcome.CandidateID, raw)
	pipe.Set(ctx, r.cursorKey(), r.cp.Cursor, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// IsDone reports whether the candidate's latest outcome is terminal.
func (r *CheckpointRepoImpl) IsDone(ctx context.Context, candidateID string) (bool, error) {
	r.mu.Lock()
	if r.cp != nil {
		done := r.cp.Done(candidateID)
		r.mu.Unlock()
		return done, nil
	}
	r.mu.Unlock()

	raw, err := r.client.HGet(ctx, r.outcomesKey(), candidateID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var out entity.VerificationOutcome
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return false, fmt.Errorf("%w: outcome for %s: %v", repository.ErrCorruptCheckpoint, candidateID, err)
	}
	return out.Status.Terminal(), nil
}

// Clear removes the checkpoint keys after a fully completed run.
func (r *CheckpointRepoImpl) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cp = entity.NewCheckpoint()
	return r.client.Del(ctx, r.outcomesKey(), r.cursorKey()).Err()
}
