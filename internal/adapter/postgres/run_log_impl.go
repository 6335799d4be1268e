package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/leadverify-service/internal/entity"
)

// RunLogRepoImpl provides a concrete implementation for the
// RunLogRepository interface using PostgreSQL.
type RunLogRepoImpl struct {
	db *pgxpool.Pool
}

// NewRunLogRepo creates a new instance of RunLogRepoImpl.
func NewRunLogRepo(db *pgxpool.Pool) *RunLogRepoImpl {
	return &RunLogRepoImpl{db: db}
}

// Append records one finished run in the audit table.
func (r *RunLogRepoImpl) Append(ctx context.Context, rec *entity.RunRecord) error {
	query := `
		INSERT INTO runs (kind, niche, file, processed, inserted, errors, duration_sec, created_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		rec.Kind,
		rec.Niche,
		rec.File,
		rec.Processed,
		rec.Inserted,
		rec.Errors,
		rec.DurationSec,
		rec.CreatedAt,
		rec.Notes,
	)
	return err
}

// Recent returns the latest runs, newest first.
func (r *RunLogRepoImpl) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	query := `
		SELECT id, kind, niche, file, processed, inserted, errors, duration_sec, created_at, notes
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entity.RunRecord
	for rows.Next() {
		var rec entity.RunRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Kind,
			&rec.Niche,
			&rec.File,
			&rec.Processed,
			&rec.Inserted,
			&rec.Errors,
			&rec.DurationSec,
			&rec.CreatedAt,
			&rec.Notes,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
