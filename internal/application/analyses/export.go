package analyses

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// Snapshot is the archived form of the record store
type Snapshot struct {
	ExportedAt time.Time               `json:"exported_at"`
	Count      int                     `json:"count"`
	Counts     map[domain.Category]int `json:"counts"`
	Records    []domain.Analysis       `json:"records"`
}

// Export uploads the current store contents as JSON and returns the object URL.
// It reads the confirmed store; nothing is listed again.
func (c *Controller) Export(ctx context.Context) (string, error) {
	if c.archive == nil {
		return "", fmt.Errorf("archive: %w", ErrNotConfigured)
	}
	if c.store.IsLoading() {
		return "", fmt.Errorf("export while loading: %w", domain.ErrInvalidTransition)
	}

	now := c.clock.Now()
	records := c.store.Records()
	snap := Snapshot{
		ExportedAt: now,
		Count:      len(records),
		Counts:     CountByCategory(records),
		Records:    records,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/analyses-%s.json", now.Format("2006-01-02"), now.Format("150405"))
	url, err := c.archive.PutJSON(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	c.log.Info("snapshot exported", zap.String("url", url), zap.Int("count", len(records)))
	return url, nil
}
