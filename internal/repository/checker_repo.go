package repository

import (
	"context"

	"github.com/user/leadverify-service/internal/entity"
)

// CheckerRepository performs one reachability check against the messaging
// platform, using an active session.
type CheckerRepository interface {
	// Check classifies the platform's response for the candidate into
	// exactly one outcome status. It never lets a fault escape: timeouts,
	// disconnects and unexpected UI states all resolve to a status value,
	// so the orchestrator always gets one outcome per attempt.
	Check(ctx context.Context, sess SessionHandle, candidate *entity.Candidate) *entity.VerificationOutcome
}
