package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

// CheckpointRepoImpl provides a concrete implementation for the
// CheckpointRepository interface backed by a single JSON file. Every
// Record rewrites the file through a temp-file + fsync + rename cycle so
// a crash can never leave a half-written checkpoint behind.
type CheckpointRepoImpl struct {
	path string

	mu sync.Mutex
	cp *entity.Checkpoint
}

// NewCheckpointRepo creates a file-backed checkpoint store.
func NewCheckpointRepo(path string) *CheckpointRepoImpl {
	return &CheckpointRepoImpl{path: path}
}

// Load reads the persisted checkpoint. A missing file yields an empty
// checkpoint; an unparsable one yields ErrCorruptCheckpoint and the file
// is left untouched for the operator to inspect.
func (r *CheckpointRepoImpl) Load(ctx context.Context) (*entity.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.cp = entity.NewCheckpoint()
		return r.cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorruptCheckpoint, r.path, err)
	}

	var cp entity.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorruptCheckpoint, r.path, err)
	}
	if cp.Outcomes == nil {
		cp.Outcomes = make(map[string]entity.VerificationOutcome)
	}
	if cp.Cursor < 0 {
		return nil, fmt.Errorf("%w: %s: negative cursor", repository.ErrCorruptCheckpoint, r.path)
	}

	r.cp = &cp
	return r.cp, nil
}

// Record stores the candidate's latest outcome and advances the cursor,
// flushing to disk before returning. Recording the same outcome twice is
// observationally a no-op.
func (r *CheckpointRepoImpl) Record(ctx context.Context, position int, outcome *entity.VerificationOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cp == nil {
		r.cp = entity.NewCheckpoint()
	}
	r.cp.Outcomes[outcome.CandidateID] = *outcome
	if position+1 > r.cp.Cursor {
		r.cp.Cursor = position + 1
	}
	return r.persist()
}

// IsDone reports whether the candidate's latest outcome is terminal.
func (r *CheckpointRepoImpl) IsDone(ctx context.Context, candidateID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cp == nil {
		return false, nil
	}
	return r.cp.Done(candidateID), nil
}

// Clear removes the checkpoint file after a fully completed run.
func (r *CheckpointRepoImpl) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cp = entity.NewCheckpoint()
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// persist writes the checkpoint durably: temp file in the same directory,
// fsync, then atomic rename over the old file.
func (r *CheckpointRepoImpl) persist() error {
	raw, err := json.MarshalIndent(r.cp, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(r.path, raw)
}

func writeFileAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
