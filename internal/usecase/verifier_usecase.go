package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/ratelimit"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/metrics"
)

const queuePollInterval = 5 * time.Second

// Verifier drives the per-candidate verification state machine.
type Verifier interface {
	// RunBatch processes the candidate source front to back. The summary
	// is returned on every exit path, interruption included.
	RunBatch(ctx context.Context) (*entity.RunSummary, error)
	// RunQueue drains the candidate queue indefinitely (continuous mode).
	RunQueue(ctx context.Context) (*entity.RunSummary, error)
}

// VerifierOptions tune one run of the engine.
type VerifierOptions struct {
	// RetryLimit bounds in-run re-attempts per candidate beyond the
	// first; a candidate is checked at most RetryLimit+1 times per run.
	RetryLimit int
	// Resume honors an existing checkpoint instead of starting fresh.
	Resume bool
	// ForceRecheck re-contacts candidates even with a terminal outcome.
	ForceRecheck bool
	// FlushEvery controls how often the merged result set is persisted.
	FlushEvery int
	// AmbiguousBackoff is the extra pause after a throttle-flavored
	// outcome, on top of the regular rate gating.
	AmbiguousBackoff time.Duration
	// CheckerName labels check metrics (whatsapp, mock).
	CheckerName string
}

type verifierUseCase struct {
	source     repository.CandidateSource
	queue      repository.QueueRepository // nil outside continuous mode
	sessions   repository.SessionRepository
	checker    repository.CheckerRepository
	checkpoint repository.CheckpointRepository
	results    repository.ResultRepository
	limiter    *ratelimit.Limiter
	opts       VerifierOptions
}

// NewVerifier creates a new instance of the verification orchestrator.
func NewVerifier(
	source repository.CandidateSource,
	queue repository.QueueRepository,
	sessions repository.SessionRepository,
	checker repository.CheckerRepository,
	checkpoint repository.CheckpointRepository,
	results repository.ResultRepository,
	limiter *ratelimit.Limiter,
	opts VerifierOptions,
) Verifier {
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = 10
	}
	if opts.AmbiguousBackoff <= 0 {
		opts.AmbiguousBackoff = 2 * time.Minute
	}
	if opts.CheckerName == "" {
		opts.CheckerName = "whatsapp"
	}
	return &verifierUseCase{
		source:     source,
		queue:      queue,
		sessions:   sessions,
		checker:    checker,
		checkpoint: checkpoint,
		results:    results,
		limiter:    limiter,
		opts:       opts,
	}
}

// RunBatch loads the candidate list and the checkpoint, skips candidates
// that are already terminal, and processes the rest strictly in input
// order through the rate gate. A stop signal is honored between
// candidates, never mid-check, and an in-flight outcome is always
// checkpointed before the run exits.
func (uc *verifierUseCase) RunBatch(ctx context.Context) (*entity.RunSummary, error) {
	summary := &entity.RunSummary{StartedAt: time.Now()}
	defer uc.report(summary)
	defer func() { summary.FinishedAt = time.Now() }()

	candidates, err := uc.source.Load(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = len(candidates)

	cp, err := uc.prepareCheckpoint(ctx)
	if err != nil {
		return summary, err
	}

	slog.Info("Verification run starting",
		"candidates", len(candidates), "resume", uc.opts.Resume, "checkpointed", len(cp.Outcomes))

	defer uc.flush(summary)

	sinceFlush := 0
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return summary, ctx.Err()
		}

		if skipped, err := uc.skipDone(ctx, candidate, cp); err != nil {
			return summary, err
		} else if skipped {
			summary.Skipped++
			continue
		}

		outcome, err := uc.processCandidate(ctx, i, candidate)
		if err != nil {
			summary.Interrupted = errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			return summary, err
		}
		summary.Count(outcome.Status)

		sinceFlush++
		if sinceFlush >= uc.opts.FlushEvery {
			uc.flush(summary)
			sinceFlush = 0
		}
	}

	// Full list processed: the checkpoint has served its purpose.
	if err := uc.checkpoint.Clear(ctx); err != nil {
		slog.Warn("Failed to clear checkpoint after completed run", "error", err)
	}
	return summary, nil
}

// RunQueue pops candidates off the queue until the context is cancelled.
// Outcomes go through the same gate, checkpoint and result merge as a
// batch run.
func (uc *verifierUseCase) RunQueue(ctx context.Context) (*entity.RunSummary, error) {
	if uc.queue == nil {
		return nil, errors.New("continuous mode requires a candidate queue")
	}

	summary := &entity.RunSummary{StartedAt: time.Now()}
	defer uc.report(summary)
	defer func() { summary.FinishedAt = time.Now() }()
	defer uc.flush(summary)

	cp, err := uc.prepareCheckpoint(ctx)
	if err != nil {
		return summary, err
	}
	position := cp.Cursor

	sinceFlush := 0
	for {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return summary, ctx.Err()
		}

		candidate, err := uc.queue.Pop(ctx)
		if errors.Is(err, repository.ErrQueueEmpty) {
			if err := sleepContext(ctx, queuePollInterval); err != nil {
				summary.Interrupted = true
				return summary, err
			}
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("failed to pop candidate from queue: %w", err)
		}
		uc.observeQueueDepth(ctx)
		summary.Total++

		if skipped, err := uc.skipDone(ctx, candidate, cp); err != nil {
			return summary, err
		} else if skipped {
			summary.Skipped++
			continue
		}

		outcome, err := uc.processCandidate(ctx, position, candidate)
		if err != nil {
			summary.Interrupted = errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			return summary, err
		}
		summary.Count(outcome.Status)
		position++

		sinceFlush++
		if sinceFlush >= uc.opts.FlushEvery {
			uc.flush(summary)
			sinceFlush = 0
		}
	}
}

// prepareCheckpoint loads or resets the checkpoint per the resume policy.
// Corruption is surfaced as-is: the operator decides between a fresh
// start and an abort, never this code.
func (uc *verifierUseCase) prepareCheckpoint(ctx context.Context) (*entity.Checkpoint, error) {
	if !uc.opts.Resume {
		if err := uc.checkpoint.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset checkpoint: %w", err)
		}
	}
	cp, err := uc.checkpoint.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// skipDone checks terminal stability: candidates with a terminal outcome
// are never re-contacted (absent force-recheck), but their checkpointed
// outcome is still merged into the result set so an interrupted earlier
// run loses nothing.
func (uc *verifierUseCase) skipDone(ctx context.Context, candidate *entity.Candidate, cp *entity.Checkpoint) (bool, error) {
	if uc.opts.ForceRecheck || candidate.Malformed() {
		return false, nil
	}
	done, err := uc.checkpoint.IsDone(ctx, candidate.ID)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}

	if prior, ok := cp.Outcomes[candidate.ID]; ok {
		if err := uc.results.Save(ctx, &entity.VerifiedLead{
			ID:        candidate.ID,
			Status:    prior.Status,
			CheckedAt: prior.CheckedAt,
			Lead:      candidate.Lead,
		}); err != nil {
			return false, err
		}
	}
	slog.Debug("Skipping candidate with terminal outcome", "candidate", candidate.ID)
	return true, nil
}

// processCandidate runs the state machine for one candidate: rate gate,
// session, check, durable record, bounded retry. Per-candidate failures
// become a status value; the returned error is reserved for process-level
// conditions (cancellation, auth, checkpoint write failure).
func (uc *verifierUseCase) processCandidate(ctx context.Context, position int, candidate *entity.Candidate) (*entity.VerificationOutcome, error) {
	if candidate.Malformed() {
		// No usable id: no platform contact, no rate gating, and
		// nothing stable to key a checkpoint entry on. The candidate
		// still shows up in the summary as an error.
		slog.Warn("Candidate has no usable phone number",
			"company", candidate.Lead.Company, "raw_phone", candidate.Lead.Phone)
		metrics.ChecksTotal.WithLabelValues(string(entity.StatusError)).Inc()
		return &entity.VerificationOutcome{
			Status:    entity.StatusError,
			CheckedAt: time.Now(),
			Reason:    "unparsable phone number",
		}, nil
	}

	var outcome *entity.VerificationOutcome
	for attempt := 1; ; attempt++ {
		waitStart := time.Now()
		if err := uc.limiter.Admit(ctx); err != nil {
			// Interrupted before the attempt started: nothing to record.
			return nil, err
		}
		metrics.RateLimitWait.Observe(time.Since(waitStart).Seconds())

		sess, err := uc.sessions.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		checkStart := time.Now()
		outcome = uc.checker.Check(ctx, sess, candidate)
		metrics.CheckDuration.WithLabelValues(uc.opts.CheckerName).Observe(time.Since(checkStart).Seconds())
		metrics.ChecksTotal.WithLabelValues(string(outcome.Status)).Inc()

		if outcome.Status == entity.StatusError {
			// Assume the session is what broke; the next acquire
			// rebuilds it from persisted credentials.
			if invErr := uc.sessions.Invalidate(ctx, sess); invErr != nil {
				slog.Warn("Failed to invalidate session", "error", invErr)
			}
		}

		// Record durably before the candidate counts as handled, so a
		// crash at any point resumes at the right place.
		if err := uc.commit(ctx, position, candidate, outcome); err != nil {
			return nil, err
		}

		if outcome.Status.Terminal() || attempt > uc.opts.RetryLimit {
			break
		}
		slog.Info("Retrying candidate",
			"candidate", candidate.ID, "status", outcome.Status, "attempt", attempt)

		if outcome.Status == entity.StatusAmbiguous {
			// The platform pushed back; give it extra room before the
			// next attempt.
			if err := sleepContext(ctx, uc.opts.AmbiguousBackoff); err != nil {
				return outcome, nil
			}
		}
	}

	used, ceiling := uc.limiter.Snapshot()
	slog.Info("Candidate processed",
		"candidate", candidate.ID, "status", outcome.Status, "rate", fmt.Sprintf("%d/%d", used, ceiling))
	return outcome, nil
}

// commit applies the write-then-advance ordering: the checkpoint write
// is durable before the result merge, and both happen before the
// candidate is considered handled.
func (uc *verifierUseCase) commit(ctx context.Context, position int, candidate *entity.Candidate, outcome *entity.VerificationOutcome) error {
	if err := uc.checkpoint.Record(ctx, position, outcome); err != nil {
		return fmt.Errorf("failed to checkpoint outcome for %s: %w", candidate.ID, err)
	}
	if err := uc.results.Save(ctx, &entity.VerifiedLead{
		ID:        outcome.CandidateID,
		Status:    outcome.Status,
		CheckedAt: outcome.CheckedAt,
		Lead:      candidate.Lead,
	}); err != nil {
		return fmt.Errorf("failed to merge result for %s: %w", candidate.ID, err)
	}
	return nil
}

func (uc *verifierUseCase) flush(summary *entity.RunSummary) {
	// Flushing must survive cancellation: partial credit is never
	// discarded, so use a fresh context.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := uc.results.Flush(flushCtx); err != nil {
		slog.Error("Failed to flush result set", "error", err)
	}
}

func (uc *verifierUseCase) report(s *entity.RunSummary) {
	slog.Info("Verification run finished",
		"total", s.Total,
		"skipped", s.Skipped,
		"valid", s.Valid,
		"invalid", s.Invalid,
		"ambiguous", s.Ambiguous,
		"error", s.Error,
		"interrupted", s.Interrupted,
		"duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Second).String(),
	)
}

func (uc *verifierUseCase) observeQueueDepth(ctx context.Context) {
	if size, err := uc.queue.Size(ctx); err == nil {
		metrics.CandidatesInQueue.Set(float64(size))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
