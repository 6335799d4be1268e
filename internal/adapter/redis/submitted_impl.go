package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const submittedPrefix = "leadverify:submitted:"

// SubmittedRepoImpl provides a concrete implementation for the
// SubmittedRepository interface using Redis.
type SubmittedRepoImpl struct {
	client *redis.Client
}

// NewSubmittedRepo creates a new instance of SubmittedRepoImpl.
func NewSubmittedRepo(client *redis.Client) *SubmittedRepoImpl {
	return &SubmittedRepoImpl{client: client}
}

func (r *SubmittedRepoImpl) generateKey(id string) string {
	return fmt.Sprintf("%s%s", submittedPrefix, id)
}

// MarkSubmitted marks a candidate id as submitted by setting a key with
// an expiry. SET with EX is atomic.
func (r *SubmittedRepoImpl) MarkSubmitted(ctx context.Context, id string, expiry time.Duration) error {
	return r.client.Set(ctx, r.generateKey(id), "1", expiry).Err()
}

// IsSubmitted checks for the existence of the submission marker.
func (r *SubmittedRepoImpl) IsSubmitted(ctx context.Context, id string) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(id)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// RemoveSubmitted drops the marker so the candidate can be queued again.
func (r *SubmittedRepoImpl) RemoveSubmitted(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.generateKey(id)).Err()
}
