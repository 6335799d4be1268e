package repository

import (
	"context"

	"github.com/user/leadverify-service/internal/entity"
)

// LeadFilter narrows an export query.
type LeadFilter struct {
	Niche      string
	CampaignID string
	ValidOnly  bool // only leads verified reachable
	Limit      uint64
}

// NicheStats is one row of the per-niche aggregate report.
type NicheStats struct {
	Niche      string
	Source     string
	Total      int
	Valid      int
	Invalid    int
	Unverified int
	WithEmail  int
}

// LeadRepository stores verified leads in the relational store consumed
// by the CRM export.
type LeadRepository interface {
	// Upsert inserts or updates a lead keyed by phone, latest outcome
	// wins. Reports whether a new row was inserted.
	Upsert(ctx context.Context, lead *entity.VerifiedLead) (bool, error)
	// Export retrieves leads matching the filter, ordered by niche and
	// company.
	Export(ctx context.Context, filter LeadFilter) ([]*entity.VerifiedLead, error)
	// Stats aggregates verification counts per niche and source.
	Stats(ctx context.Context) ([]*NicheStats, error)
}

// RunLogRepository is the append-only audit of engine runs.
type RunLogRepository interface {
	// Append records one finished run.
	Append(ctx context.Context, rec *entity.RunRecord) error
	// Recent returns the latest runs, newest first.
	Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error)
}
