// Package postgres persists verified leads and the run audit log. The
// `leads` table is the CRM-facing store; the JSON result file remains
// the engine's source of truth for resumption.
package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/leadverify-service/internal/entity"
	"github.com/user/leadverify-service/internal/repository"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// LeadRepoImpl provides a concrete implementation for the LeadRepository
// interface using PostgreSQL.
type LeadRepoImpl struct {
	db *pgxpool.Pool
}

// NewLeadRepo creates a new instance of LeadRepoImpl.
func NewLeadRepo(db *pgxpool.Pool) *LeadRepoImpl {
	return &LeadRepoImpl{db: db}
}

// Upsert stores or updates a verified lead keyed by phone. The latest
// outcome wins. Reports whether a new row was inserted.
func (r *LeadRepoImpl) Upsert(ctx context.Context, lead *entity.VerifiedLead) (bool, error) {
	query := `
		INSERT INTO leads (phone, status, checked_at, company, contact_name, role, email, website, locality, district, niche, campaign_id, source, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (phone) DO UPDATE SET
			status = EXCLUDED.status,
			checked_at = EXCLUDED.checked_at,
			company = EXCLUDED.company,
			contact_name = EXCLUDED.contact_name,
			role = EXCLUDED.role,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			locality = EXCLUDED.locality,
			district = EXCLUDED.district,
			niche = EXCLUDED.niche,
			campaign_id = EXCLUDED.campaign_id,
			source = EXCLUDED.source,
			extracted_at = EXCLUDED.extracted_at
		RETURNING (xmax = 0);
	`

	var inserted bool
	err := r.db.QueryRow(ctx, query,
		lead.ID,
		lead.Status,
		lead.CheckedAt,
		lead.Lead.Company,
		lead.Lead.ContactName,
		lead.Lead.Role,
		lead.Lead.Email,
		lead.Lead.Website,
		lead.Lead.Locality,
		lead.Lead.District,
		lead.Lead.Niche,
		lead.Lead.CampaignID,
		lead.Lead.Source,
		lead.Lead.ExtractedAt,
	).Scan(&inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// Export retrieves leads matching the filter, ordered by niche and
// company. The filter combinations make this the one query built
// dynamically instead of as a literal.
func (r *LeadRepoImpl) Export(ctx context.Context, filter repository.LeadFilter) ([]*entity.VerifiedLead, error) {
	qb := psql.
		Select("phone", "status", "checked_at", "company", "contact_name", "role", "email", "website", "locality", "district", "niche", "campaign_id", "source", "extracted_at").
		From("leads").
		OrderBy("niche", "company")

	if filter.Niche != "" {
		qb = qb.Where(sq.Eq{"niche": filter.Niche})
	}
	if filter.CampaignID != "" {
		qb = qb.Where(sq.Eq{"campaign_id": filter.CampaignID})
	}
	if filter.ValidOnly {
		qb = qb.Where(sq.Eq{"status": entity.StatusValid})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.VerifiedLead
	for rows.Next() {
		var v entity.VerifiedLead
		if err := rows.Scan(
			&v.ID,
			&v.Status,
			&v.CheckedAt,
			&v.Lead.Company,
			&v.Lead.ContactName,
			&v.Lead.Role,
			&v.Lead.Email,
			&v.Lead.Website,
			&v.Lead.Locality,
			&v.Lead.District,
			&v.Lead.Niche,
			&v.Lead.CampaignID,
			&v.Lead.Source,
			&v.Lead.ExtractedAt,
		); err != nil {
			return nil, err
		}
		v.Lead.Phone = v.ID
		leads = append(leads, &v)
	}
	return leads, rows.Err()
}

// Stats aggregates verification counts per niche and source.
func (r *LeadRepoImpl) Stats(ctx context.Context) ([]*repository.NicheStats, error) {
	query := `
		SELECT niche, source,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'valid') AS valid,
			COUNT(*) FILTER (WHERE status = 'invalid') AS invalid,
			COUNT(*) FILTER (WHERE status NOT IN ('valid', 'invalid')) AS unverified,
			COUNT(*) FILTER (WHERE email <> '') AS with_email
		FROM leads
		GROUP BY niche, source
		ORDER BY niche, source;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*repository.NicheStats
	for rows.Next() {
		var s repository.NicheStats
		if err := rows.Scan(&s.Niche, &s.Source, &s.Total, &s.Valid, &s.Invalid, &s.Unverified, &s.WithEmail); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
