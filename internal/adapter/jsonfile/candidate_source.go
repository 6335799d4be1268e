package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
	"github.com/user/leadverify-service/pkg/phone"
)

// CandidateSourceImpl reads the raw lead file produced by the collector
// and turns it into the ordered candidate batch for one verification run.
type CandidateSourceImpl struct {
	path       string
	normalizer phone.Normalizer
}

// NewCandidateSource creates a candidate source over a raw lead JSON file.
func NewCandidateSource(path string, normalizer phone.Normalizer) *CandidateSourceImpl {
	return &CandidateSourceImpl{path: path, normalizer: normalizer}
}

// leadFile matches the collector's output: a metadata envelope plus the
// lead list. A bare JSON array is accepted too.
type leadFile struct {
	Metadata map[string]any `json:"metadata"`
	Leads    []entity.Lead  `json:"leads"`
}

// Load reads the candidate list in input order. Leads whose phone cannot
// be normalized become candidates with an empty id; the orchestrator
// records them as error outcomes instead of rejecting the batch.
func (s *CandidateSourceImpl) Load(ctx context.Context) ([]*entity.Candidate, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrUnreadableInput, s.path, err)
	}

	var file leadFile
	if err := json.Unmarshal(raw, &file); err != nil {
		var bare []entity.Lead
		if errBare := json.Unmarshal(raw, &bare); errBare != nil {
			return nil, fmt.Errorf("%w: %s: %v", repository.ErrUnreadableInput, s.path, err)
		}
		file.Leads = bare
	}

	candidates := make([]*entity.Candidate, 0, len(file.Leads))
	for _, lead := range file.Leads {
		id := ""
		if lead.Phone != "" {
			if normalized, err := s.normalizer.Normalize(lead.Phone); err == nil {
				id = normalized
			}
		}
		candidates = append(candidates, &entity.Candidate{ID: id, Lead: lead})
	}
	return candidates, nil
}
