package normalize

import (
	"career-compass/internal/models"

	"github.com/samber/lo"
)

// Rule selects how a raw input value is coerced.
type Rule int

const (
	// RuleText trims strings; empty becomes absent.
	RuleText Rule = iota
	// RuleNumber coerces to a whole number; empty becomes absent.
	RuleNumber
	// RulePassthrough keeps the value untouched; empty becomes absent.
	RulePassthrough
	// RuleDate takes the due date validation result.
	RuleDate
)

type Field struct {
	Name string
	Rule Rule
}

// Registry is the ordered set of editable columns.
type Registry []Field

// DefaultRegistry lists every editable column of an application.
var DefaultRegistry = Registry{
	{Name: models.FieldCompany, Rule: RuleText},
	{Name: models.FieldRole, Rule: RuleText},
	{Name: models.FieldStatus, Rule: RulePassthrough},
	{Name: models.FieldIndustry, Rule: RuleText},
	{Name: models.FieldFunction, Rule: RuleText},
	{Name: models.FieldNextAction, Rule: RuleText},
	{Name: models.FieldDueDate, Rule: RuleDate},
	{Name: models.FieldPriority, Rule: RuleNumber},
	{Name: models.FieldInterestRating, Rule: RuleNumber},
	{Name: models.FieldEnergyRating, Rule: RuleNumber},
	{Name: models.FieldResponseDays, Rule: RuleNumber},
	{Name: models.FieldLocation, Rule: RuleText},
	{Name: models.FieldNotes, Rule: RuleText},
	{Name: models.FieldSource, Rule: RuleText},
	{Name: models.FieldOutcome, Rule: RuleText},
}

func (r Registry) Lookup(name string) (Field, bool) {
	return lo.Find(r, func(f Field) bool { return f.Name == name })
}

// Names returns the column names in registry order.
func (r Registry) Names() []string {
	return lo.Map(r, func(f Field, _ int) string { return f.Name })
}
