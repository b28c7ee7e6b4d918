package mysql

import (
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// newID plays the backend role of assigning ids on create
func newID() domain.ID { return domain.ID(uuid.NewString()) }

func now() time.Time { return time.Now().UTC() }

// trimmed keeps stored text free of surrounding whitespace
func trimmed(f domain.Fields) domain.Fields {
	f.Device = strings.TrimSpace(f.Device)
	f.DamageType = strings.TrimSpace(f.DamageType)
	f.Analysis = strings.TrimSpace(f.Analysis)
	return f
}
