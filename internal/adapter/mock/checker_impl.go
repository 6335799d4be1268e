// Package mock simulates the messaging platform so the pipeline can be
// exercised without opening a browser or touching a real account.
package mock

import (
	"context"
	"math/rand"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

// SessionRepoImpl is a no-op session manager: the mock platform needs no
// authentication.
type SessionRepoImpl struct{}

// NewSessionRepo creates the mock session manager.
func NewSessionRepo() *SessionRepoImpl { return &SessionRepoImpl{} }

type sessionHandle struct{}

func (sessionHandle) ID() string { return "mock" }

// Acquire always succeeds.
func (s *SessionRepoImpl) Acquire(ctx context.Context) (repository.SessionHandle, error) {
	return sessionHandle{}, nil
}

// Invalidate is a no-op.
func (s *SessionRepoImpl) Invalidate(ctx context.Context, sess repository.SessionHandle) error {
	return nil
}

// Close is a no-op.
func (s *SessionRepoImpl) Close(ctx context.Context) error { return nil }

// CheckerRepoImpl simulates checks deterministically: numbers ending in
// an even digit are reachable (roughly the hit rate seen in production).
type CheckerRepoImpl struct {
	minLatency time.Duration
	maxLatency time.Duration
	rng        *rand.Rand
}

// NewCheckerRepo creates the mock checker.
func NewCheckerRepo() *CheckerRepoImpl {
	return &CheckerRepoImpl{
		minLatency: 100 * time.Millisecond,
		maxLatency: 300 * time.Millisecond,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Check resolves by the last digit of the candidate id.
func (c *CheckerRepoImpl) Check(ctx context.Context, sess repository.SessionHandle, candidate *entity.Candidate) *entity.VerificationOutcome {
	outcome := &entity.VerificationOutcome{
		CandidateID: candidate.ID,
		CheckedAt:   time.Now(),
	}

	if candidate.Malformed() {
		outcome.Status = entity.StatusError
		outcome.Reason = "unparsable phone number"
		return outcome
	}

	latency := c.minLatency + time.Duration(c.rng.Int63n(int64(c.maxLatency-c.minLatency)))
	select {
	case <-ctx.Done():
		outcome.Status = entity.StatusError
		outcome.Reason = "check aborted"
		return outcome
	case <-time.After(latency):
	}

	last := candidate.ID[len(candidate.ID)-1]
	if (last-'0')%2 == 0 {
		outcome.Status = entity.StatusValid
		outcome.Reason = "simulated account found"
	} else {
		outcome.Status = entity.StatusInvalid
		outcome.Reason = "simulated no account"
	}
	return outcome
}
