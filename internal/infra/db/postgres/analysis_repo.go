package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Repository = (*AnalysisRepository)(nil)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// List returns every analysis ordered by creation time
func (r *AnalysisRepository) List(ctx context.Context) ([]domain.Analysis, error) {
	const q = `
SELECT id::text, device, damage_type, analysis, category, severity
FROM analyses
ORDER BY created_at ASC, id ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	out := []domain.Analysis{}
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(&a.ID, &a.Device, &a.DamageType, &a.Analysis, &a.Category, &a.Severity); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a new analysis, id generated here
func (r *AnalysisRepository) Create(ctx context.Context, f domain.Fields) error {
	const q = `
INSERT INTO analyses
  (id, device, damage_type, analysis, category, severity, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7);
`
	ts := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, q,
		uuid.NewString(),
		strings.TrimSpace(f.Device),
		strings.TrimSpace(f.DamageType),
		strings.TrimSpace(f.Analysis),
		string(f.Category),
		string(f.Severity),
		ts,
	)
	return err
}

// Update full replace of the non-id columns
func (r *AnalysisRepository) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	if _, err := uuid.Parse(string(id)); err != nil {
		// not a uuid, cannot match any row
		return nil
	}
	const q = `
UPDATE analyses
SET device = $1,
    damage_type = $2,
    analysis = $3,
    category = $4,
    severity = $5,
    updated_at = $6
WHERE id = $7;`
	_, err := r.db.ExecContext(ctx, q,
		strings.TrimSpace(f.Device),
		strings.TrimSpace(f.DamageType),
		strings.TrimSpace(f.Analysis),
		string(f.Category),
		string(f.Severity),
		time.Now().UTC(),
		string(id),
	)
	return err
}

// Delete is idempotent; absent or malformed ids affect no rows
func (r *AnalysisRepository) Delete(ctx context.Context, id domain.ID) error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = $1;`, string(id))
	return err
}
