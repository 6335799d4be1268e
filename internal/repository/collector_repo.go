package repository

import (
	"context"

	"github.com/user/leadverify-service/internal/entity"
)

// CollectorRepository scrapes the business directory for one niche.
type CollectorRepository interface {
	// Collect walks the niche's listing pages and returns the extracted
	// leads in page order. Unparsable cards are skipped, not fatal.
	Collect(ctx context.Context, niche *entity.Niche) ([]*entity.Lead, error)
}

// LeadSink persists a collected lead batch as the input file for a
// verification run.
type LeadSink interface {
	// Store writes the deduplicated lead list with its envelope metadata.
	Store(ctx context.Context, campaignID string, leads []*entity.Lead) error
}
