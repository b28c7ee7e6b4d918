// Package sqlite is an embedded Repository for local use and tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Repository = (*AnalysisRepository)(nil)

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(ctx context.Context, path string) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ensureDirectory(path); err != nil {
		return nil, err
	}
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&Analysis{}); err != nil {
		return nil, fmt.Errorf("migrate analyses: %w", err)
	}
	return db, nil
}

func ensureDirectory(dsn string) error {
	candidate := strings.TrimSpace(dsn)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = strings.TrimPrefix(candidate, "file:")
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite directory %q: %w", dir, err)
	}
	return nil
}

type AnalysisRepository struct {
	db *gorm.DB
	// mu serialises seq allocation on create
	mu sync.Mutex
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) List(ctx context.Context) ([]domain.Analysis, error) {
	var rows []Analysis
	if err := r.db.WithContext(ctx).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	out := make([]domain.Analysis, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out, nil
}

func (r *AnalysisRepository) Create(ctx context.Context, f domain.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&Analysis{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
		row := fromDomain(f)
		row.ID = uuid.NewString()
		row.Seq = maxSeq + 1
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
		return nil
	})
}

func (r *AnalysisRepository) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	row := fromDomain(f)
	err := r.db.WithContext(ctx).Model(&Analysis{}).Where("id = ?", string(id)).Updates(map[string]any{
		"device":      row.Device,
		"damage_type": row.DamageType,
		"analysis":    row.Analysis,
		"category":    row.Category,
		"severity":    row.Severity,
		"updated_at":  time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("update analysis %s: %w", id, err)
	}
	return nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id domain.ID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&Analysis{}).Error; err != nil {
		return fmt.Errorf("delete analysis %s: %w", id, err)
	}
	return nil
}

func toDomain(row Analysis) domain.Analysis {
	return domain.Analysis{
		ID: domain.ID(row.ID),
		Fields: domain.Fields{
			Device:     row.Device,
			DamageType: row.DamageType,
			Analysis:   row.Analysis,
			Category:   domain.Category(row.Category),
			Severity:   domain.Severity(row.Severity),
		},
	}
}

func fromDomain(f domain.Fields) Analysis {
	return Analysis{
		Device:     strings.TrimSpace(f.Device),
		DamageType: strings.TrimSpace(f.DamageType),
		Analysis:   strings.TrimSpace(f.Analysis),
		Category:   string(f.Category),
		Severity:   string(f.Severity),
	}
}
