package sqlite

import "time"

// Analysis row
type Analysis struct {
	ID         string    `gorm:"column:id;primaryKey;type:text"`
	Device     string    `gorm:"column:device;type:text;not null"`
	DamageType string    `gorm:"column:damage_type;type:text;not null;default:''"`
	Analysis   string    `gorm:"column:analysis;type:text;not null"`
	Category   string    `gorm:"column:category;type:text;not null;index"`
	Severity   string    `gorm:"column:severity;type:text;not null"`
	Seq        int64     `gorm:"column:seq;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (Analysis) TableName() string {
	return "analyses"
}
