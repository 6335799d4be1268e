package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/leadverify-service/internal/adapter/jsonfile"
	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/ratelimit"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

// fakeSource serves a fixed candidate list.
type fakeSource struct {
	candidates []*entity.Candidate
	err        error
}

func (s *fakeSource) Load(ctx context.Context) ([]*entity.Candidate, error) {
	return s.candidates, s.err
}

// fakeSessions hands out one handle and counts lifecycle calls.
type fakeSessions struct {
	acquireErr  error
	acquires    int
	invalidates int
}

type fakeHandle struct{}

func (fakeHandle) ID() string { return "fake" }

func (s *fakeSessions) Acquire(ctx context.Context) (repository.SessionHandle, error) {
	s.acquires++
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return fakeHandle{}, nil
}

func (s *fakeSessions) Invalidate(ctx context.Context, sess repository.SessionHandle) error {
	s.invalidates++
	return nil
}

func (s *fakeSessions) Close(ctx context.Context) error { return nil }

// scriptedChecker returns per-id statuses and records every invocation.
// An id missing from the script resolves to valid.
type scriptedChecker struct {
	script map[string]entity.Status
	calls  []string
	onCall func(id string)
}

func (c *scriptedChecker) Check(ctx context.Context, sess repository.SessionHandle, candidate *entity.Candidate) *entity.VerificationOutcome {
	c.calls = append(c.calls, candidate.ID)
	if c.onCall != nil {
		c.onCall(candidate.ID)
	}
	status, ok := c.script[candidate.ID]
	if !ok {
		status = entity.StatusValid
	}
	return &entity.VerificationOutcome{
		CandidateID: candidate.ID,
		Status:      status,
		CheckedAt:   time.Now(),
	}
}

func (c *scriptedChecker) called(id string) int {
	n := 0
	for _, call := range c.calls {
		if call == id {
			n++
		}
	}
	return n
}

type verifierFixture struct {
	source     *fakeSource
	sessions   *fakeSessions
	checker    *scriptedChecker
	checkpoint *jsonfile.CheckpointRepoImpl
	results    *jsonfile.ResultRepoImpl

	checkpointPath string
	resultPath     string
}

func candidates(ids ...string) []*entity.Candidate {
	out := make([]*entity.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, &entity.Candidate{ID: id, Lead: entity.Lead{Phone: id}})
	}
	return out
}

func newFixture(t *testing.T, cands []*entity.Candidate, script map[string]entity.Status) *verifierFixture {
	t.Helper()
	dir := t.TempDir()
	f := &verifierFixture{
		source:         &fakeSource{candidates: cands},
		sessions:       &fakeSessions{},
		checker:        &scriptedChecker{script: script},
		checkpointPath: filepath.Join(dir, "checkpoint.json"),
		resultPath:     filepath.Join(dir, "verified.json"),
	}
	f.checkpoint = jsonfile.NewCheckpointRepo(f.checkpointPath)
	f.results = jsonfile.NewResultRepo(f.resultPath)
	return f
}

// reopen simulates a process restart: fresh repository instances over
// the same files.
func (f *verifierFixture) reopen() {
	f.checkpoint = jsonfile.NewCheckpointRepo(f.checkpointPath)
	f.results = jsonfile.NewResultRepo(f.resultPath)
	f.checker.calls = nil
}

func (f *verifierFixture) verifier(opts VerifierOptions) Verifier {
	limiter := ratelimit.New(1000, 0, 0) // wide open; rate gating has its own tests
	return NewVerifier(f.source, nil, f.sessions, f.checker, f.checkpoint, f.results, limiter, opts)
}

func TestRunBatchAllValid(t *testing.T) {
	f := newFixture(t, candidates("521A", "521B", "521C"), nil)
	v := f.verifier(VerifierOptions{Resume: true, CheckerName: "mock"})

	summary, err := v.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.Valid != 3 || summary.Invalid+summary.Ambiguous+summary.Error != 0 {
		t.Errorf("summary = %+v, want 3 valid", summary)
	}

	all, err := f.results.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("result set has %d entries, want 3", len(all))
	}

	// A completed run clears its checkpoint.
	if _, err := os.Stat(f.checkpointPath); !os.IsNotExist(err) {
		t.Error("expected checkpoint to be cleared after a completed run")
	}
}

func TestResumeNeverRecontactsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, candidates("521A", "521B", "521C"), nil)

	// Simulate a run killed right after B was durably recorded.
	for i, id := range []string{"521A", "521B"} {
		if err := f.checkpoint.Record(ctx, i, &entity.VerificationOutcome{
			CandidateID: id, Status: entity.StatusValid, CheckedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	f.reopen()
	v := f.verifier(VerifierOptions{Resume: true, CheckerName: "mock"})
	summary, err := v.RunBatch(ctx)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if f.checker.called("521A") != 0 || f.checker.called("521B") != 0 {
		t.Errorf("terminal candidates were re-contacted: calls = %v", f.checker.calls)
	}
	if f.checker.called("521C") != 1 {
		t.Errorf("521C checked %d times, want 1", f.checker.called("521C"))
	}
	if summary.Skipped != 2 || summary.Valid != 1 {
		t.Errorf("summary = %+v, want 2 skipped 1 valid", summary)
	}

	// Skipped candidates still land in the result set with their
	// checkpointed outcome.
	all, err := f.results.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("result set has %d entries, want 3", len(all))
	}
}

func TestIdempotentRerun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, candidates("521A", "521B"), map[string]entity.Status{
		"521B": entity.StatusInvalid,
	})

	v := f.verifier(VerifierOptions{Resume: true})
	if _, err := v.RunBatch(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := f.results.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Second run over the same list: checkpoint was cleared on
	// completion, but the merged result set must come out identical.
	f.reopen()
	v = f.verifier(VerifierOptions{Resume: true})
	if _, err := v.RunBatch(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := f.results.All(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("result set size changed across reruns: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Status != second[i].Status {
			t.Errorf("entry %d regressed: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRetryBound(t *testing.T) {
	f := newFixture(t, candidates("521D"), map[string]entity.Status{
		"521D": entity.StatusError,
	})
	v := f.verifier(VerifierOptions{Resume: true, RetryLimit: 1})

	summary, err := v.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("a stuck candidate must not fail the batch: %v", err)
	}
	if got := f.checker.called("521D"); got != 2 {
		t.Errorf("521D attempted %d times, want retry_limit+1 = 2", got)
	}
	if summary.Error != 1 {
		t.Errorf("summary.Error = %d, want 1", summary.Error)
	}

	// Error outcomes invalidate the session for the next attempt.
	if f.sessions.invalidates != 2 {
		t.Errorf("invalidates = %d, want 2", f.sessions.invalidates)
	}
}

func TestAuthRequiredAbortsRun(t *testing.T) {
	f := newFixture(t, candidates("521A"), nil)
	f.sessions.acquireErr = repository.ErrAuthRequired
	v := f.verifier(VerifierOptions{Resume: true})

	_, err := v.RunBatch(context.Background())
	if !errors.Is(err, repository.ErrAuthRequired) {
		t.Errorf("RunBatch() error = %v, want ErrAuthRequired", err)
	}
	if len(f.checker.calls) != 0 {
		t.Errorf("checker must not run without a session, calls = %v", f.checker.calls)
	}
}

func TestCorruptCheckpointAborts(t *testing.T) {
	f := newFixture(t, candidates("521A"), nil)
	if err := os.WriteFile(f.checkpointPath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	v := f.verifier(VerifierOptions{Resume: true})

	_, err := v.RunBatch(context.Background())
	if !errors.Is(err, repository.ErrCorruptCheckpoint) {
		t.Errorf("RunBatch() error = %v, want ErrCorruptCheckpoint", err)
	}
	if len(f.checker.calls) != 0 {
		t.Error("no candidate may be contacted with a corrupt checkpoint")
	}
}

func TestFreshStartIgnoresCheckpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, candidates("521A"), nil)
	if err := f.checkpoint.Record(ctx, 0, &entity.VerificationOutcome{
		CandidateID: "521A", Status: entity.StatusValid, CheckedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	f.reopen()
	v := f.verifier(VerifierOptions{Resume: false})
	if _, err := v.RunBatch(ctx); err != nil {
		t.Fatal(err)
	}
	if f.checker.called("521A") != 1 {
		t.Errorf("fresh start must re-check, got %d calls", f.checker.called("521A"))
	}
}

func TestInterruptionPreservesRecordedWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, candidates("521A", "521B", "521C"), nil)
	// Stop signal arrives while B is in flight: B's outcome must still
	// be recorded, C must stay untouched.
	f.checker.onCall = func(id string) {
		if id == "521B" {
			cancel()
		}
	}
	v := f.verifier(VerifierOptions{Resume: true})

	summary, err := v.RunBatch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunBatch() error = %v, want context.Canceled", err)
	}
	if !summary.Interrupted {
		t.Error("summary must be flagged interrupted")
	}
	if f.checker.called("521C") != 0 {
		t.Error("cancellation must be honored between candidates")
	}

	// Resume after the "crash": only C is left.
	f.reopen()
	v = f.verifier(VerifierOptions{Resume: true})
	if _, err := v.RunBatch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.checker.called("521A") != 0 || f.checker.called("521B") != 0 {
		t.Errorf("resume re-contacted terminal candidates: %v", f.checker.calls)
	}
	if f.checker.called("521C") != 1 {
		t.Errorf("521C checked %d times on resume, want 1", f.checker.called("521C"))
	}
}

func TestMalformedCandidateCountedNotContacted(t *testing.T) {
	cands := candidates("521A")
	cands = append(cands, &entity.Candidate{Lead: entity.Lead{Company: "No Phone SA"}})
	f := newFixture(t, cands, nil)
	v := f.verifier(VerifierOptions{Resume: true})

	summary, err := v.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.Error != 1 || summary.Valid != 1 {
		t.Errorf("summary = %+v, want 1 valid 1 error", summary)
	}
	if len(f.checker.calls) != 1 {
		t.Errorf("malformed candidate must not reach the checker, calls = %v", f.checker.calls)
	}
}

func TestForceRecheckOverridesTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, candidates("521A"), nil)
	if err := f.checkpoint.Record(ctx, 0, &entity.VerificationOutcome{
		CandidateID: "521A", Status: entity.StatusValid, CheckedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	f.reopen()
	v := f.verifier(VerifierOptions{Resume: true, ForceRecheck: true})
	if _, err := v.RunBatch(ctx); err != nil {
		t.Fatal(err)
	}
	if f.checker.called("521A") != 1 {
		t.Errorf("force-recheck must re-contact, got %d calls", f.checker.called("521A"))
	}
}
