package analyses

import "strings"

// ID identifier assigned by the backend on create
type ID string

// Category enum, also the tab a record is listed under
type Category string

const (
	CategoryLogical    Category = "logical"
	CategoryPhysical   Category = "physical"
	CategoryElectronic Category = "electronic"
)

// Categories in tab order.
var Categories = []Category{CategoryLogical, CategoryPhysical, CategoryElectronic}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLogical, CategoryPhysical, CategoryElectronic:
		return true
	}
	return false
}

// Label returns the tab label shown to users.
func (c Category) Label() string {
	switch c {
	case CategoryLogical:
		return "Lógico"
	case CategoryPhysical:
		return "Físico"
	case CategoryElectronic:
		return "Eletrônico"
	default:
		return string(c)
	}
}

// Severity enum
type Severity string

const (
	SeveritySimple   Severity = "simple"
	SeverityModerate Severity = "moderate"
	SeverityComplex  Severity = "complex"
)

func (s Severity) Valid() bool {
	switch s {
	case SeveritySimple, SeverityModerate, SeverityComplex:
		return true
	}
	return false
}

// Fields is every column of an Analysis except the id.
// Create and Update always carry the full set (no partial patch).
type Fields struct {
	Device     string   `json:"device"`
	DamageType string   `json:"damage_type"`
	Analysis   string   `json:"analysis"`
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
}

// Analysis is one technical repair analysis record
type Analysis struct {
	ID ID `json:"id"`
	Fields
}

// BlankFields returns the defaults of a fresh form.
func BlankFields() Fields {
	return Fields{
		Category: CategoryLogical,
		Severity: SeveritySimple,
	}
}

// Validate checks the fields required before a create/update reaches the repository.
func (f Fields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Device) == "" {
		missing = append(missing, FieldDevice)
	}
	if strings.TrimSpace(f.Analysis) == "" {
		missing = append(missing, FieldAnalysis)
	}
	if !f.Category.Valid() {
		missing = append(missing, FieldCategory)
	}
	if !f.Severity.Valid() {
		missing = append(missing, FieldSeverity)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Field names as they appear on the wire and in draft updates.
const (
	FieldDevice     = "device"
	FieldDamageType = "damage_type"
	FieldAnalysis   = "analysis"
	FieldCategory   = "category"
	FieldSeverity   = "severity"
)

// With returns a copy of f with one field replaced. Values are stored as given;
// nothing is validated until submission.
func (f Fields) With(field, value string) (Fields, error) {
	switch field {
	case FieldDevice:
		f.Device = value
	case FieldDamageType:
		f.DamageType = value
	case FieldAnalysis:
		f.Analysis = value
	case FieldCategory:
		f.Category = Category(value)
	case FieldSeverity:
		f.Severity = Severity(value)
	default:
		return f, &UnknownFieldError{Field: field}
	}
	return f, nil
}
