package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/user/leadverify-service/internal/entity"
)

// LeadSinkImpl writes the collector's output file: the same envelope the
// candidate source reads back for verification.
type LeadSinkImpl struct {
	mu   sync.Mutex
	path string
}

// NewLeadSink creates a lead sink writing to the given path.
func NewLeadSink(path string) *LeadSinkImpl {
	return &LeadSinkImpl{path: path}
}

// Store persists the lead batch atomically, replacing any previous file.
func (s *LeadSinkImpl) Store(ctx context.Context, campaignID string, leads []*entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.Lead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, *lead)
	}

	file := leadFile{
		Metadata: map[string]any{
			"campaign_id":  campaignID,
			"generated_at": time.Now().Format(time.RFC3339),
			"total":        len(out),
		},
		Leads: out,
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lead file: %w", err)
	}
	if err := writeFileAtomic(s.path, raw); err != nil {
		return fmt.Errorf("failed to write lead file %s: %w", s.path, err)
	}
	return nil
}
