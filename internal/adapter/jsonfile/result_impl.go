package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

// ResultRepoImpl provides a concrete implementation for the
// ResultRepository interface backed by a JSON file. The set is merged
// latest-wins by candidate id, so repeated runs over overlapping
// candidate lists produce an idempotent union.
type ResultRepoImpl struct {
	path string

	mu      sync.Mutex
	loaded  bool
	results map[string]*entity.VerifiedLead
}

// NewResultRepo creates a file-backed result set.
func NewResultRepo(path string) *ResultRepoImpl {
	return &ResultRepoImpl{path: path, results: make(map[string]*entity.VerifiedLead)}
}

type resultFile struct {
	Metadata resultMetadata         `json:"metadata"`
	Results  []*entity.VerifiedLead `json:"results"`
}

type resultMetadata struct {
	Total       int    `json:"total"`
	Valid       int    `json:"valid"`
	Invalid     int    `json:"invalid"`
	Ambiguous   int    `json:"ambiguous"`
	Error       int    `json:"error"`
	GeneratedAt string `json:"generated_at"`
}

// Save merges one verified lead into the set, overwriting any earlier
// outcome for the same id.
func (r *ResultRepoImpl) Save(ctx context.Context, lead *entity.VerifiedLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}
	cp := *lead
	r.results[lead.ID] = &cp
	return nil
}

// Flush persists the merged set, sorted by id, through an atomic rename.
func (r *ResultRepoImpl) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}

	file := resultFile{Results: make([]*entity.VerifiedLead, 0, len(r.results))}
	for _, v := range r.results {
		file.Results = append(file.Results, v)
	}
	sort.Slice(file.Results, func(i, j int) bool { return file.Results[i].ID < file.Results[j].ID })

	meta := &file.Metadata
	meta.Total = len(file.Results)
	for _, v := range file.Results {
		switch v.Status {
		case entity.StatusValid:
			meta.Valid++
		case entity.StatusInvalid:
			meta.Invalid++
		case entity.StatusAmbiguous:
			meta.Ambiguous++
		case entity.StatusError:
			meta.Error++
		}
	}
	meta.GeneratedAt = time.Now().Format(time.RFC3339)

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(r.path, raw)
}

// FindByID retrieves the latest outcome merged for a candidate id.
func (r *ResultRepoImpl) FindByID(ctx context.Context, id string) (*entity.VerifiedLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}
	v, ok := r.results[id]
	if !ok {
		return nil, repository.ErrResultNotFound
	}
	cp := *v
	return &cp, nil
}

// All returns the merged set ordered by id.
func (r *ResultRepoImpl) All(ctx context.Context) ([]*entity.VerifiedLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]*entity.VerifiedLead, 0, len(r.results))
	for _, v := range r.results {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// load reads the existing result file once, so later runs merge into the
// prior set instead of replacing it.
func (r *ResultRepoImpl) load() error {
	if r.loaded {
		return nil
	}

	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read result set %s: %w", r.path, err)
	}

	var file resultFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse result set %s: %w", r.path, err)
	}
	for _, v := range file.Results {
		r.results[v.ID] = v
	}
	r.loaded = true
	return nil
}
