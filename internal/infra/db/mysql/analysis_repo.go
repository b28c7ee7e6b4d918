package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Repository = (*AnalysisRepository)(nil)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// List returns every analysis in insertion order
func (r *AnalysisRepository) List(ctx context.Context) ([]domain.Analysis, error) {
	const q = `
SELECT id, device, damage_type, analysis, category, severity
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

// Create inserts a new analysis with a fresh id
func (r *AnalysisRepository) Create(ctx context.Context, f domain.Fields) error {
	const q = `
INSERT INTO analyses
  (id, device, damage_type, analysis, category, severity, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?);
`
	f = trimmed(f)
	ts := now()
	_, err := r.db.ExecContext(ctx, q, newID(), f.Device, f.DamageType, f.Analysis, f.Category, f.Severity, ts, ts)
	return err
}

// Update replaces every field except id
func (r *AnalysisRepository) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	const q = `
UPDATE analyses
SET device = ?,
    damage_type = ?,
    analysis = ?,
    category = ?,
    severity = ?,
    updated_at = ?
WHERE id = ?;`
	f = trimmed(f)
	_, err := r.db.ExecContext(ctx, q, f.Device, f.DamageType, f.Analysis, f.Category, f.Severity, now(), id)
	return err
}

// Delete removes the analysis; zero affected rows is not an error
func (r *AnalysisRepository) Delete(ctx context.Context, id domain.ID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?;`, id)
	return err
}
