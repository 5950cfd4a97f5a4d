package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// column names of the applications table
const (
	FieldID             = "app_uuid"
	FieldCompany        = "company"
	FieldRole           = "role"
	FieldStatus         = "status"
	FieldIndustry       = "industry"
	FieldFunction       = "function"
	FieldNextAction     = "next_action"
	FieldDueDate        = "due_date"
	FieldPriority       = "priority"
	FieldInterestRating = "interest_rating"
	FieldEnergyRating   = "energy_rating"
	FieldResponseDays   = "response_days"
	FieldLocation       = "location"
	FieldNotes          = "notes"
	FieldSource         = "source"
	FieldOutcome        = "outcome"
	FieldLastTouch      = "last_touch"
	FieldCreatedAt      = "created_at"
)

const ApplicationsTable = "applications"

type Application struct {
	ID             string     `db:"app_uuid" json:"app_uuid"`
	Company        *string    `db:"company" json:"company"`
	Role           *string    `db:"role" json:"role"`
	Status         *string    `db:"status" json:"status"`
	Industry       *string    `db:"industry" json:"industry"`
	Function       *string    `db:"function" json:"function"`
	NextAction     *string    `db:"next_action" json:"next_action"`
	DueDate        *Day       `db:"due_date" json:"due_date"`
	Priority       *int64     `db:"priority" json:"priority"`
	InterestRating *int64     `db:"interest_rating" json:"interest_rating"`
	EnergyRating   *int64     `db:"energy_rating" json:"energy_rating"`
	ResponseDays   *int64     `db:"response_days" json:"response_days"`
	Location       *string    `db:"location" json:"location"`
	Notes          *string    `db:"notes" json:"notes"`
	Source         *string    `db:"source" json:"source"`
	Outcome        *string    `db:"outcome" json:"outcome"`
	LastTouch      *time.Time `db:"last_touch" json:"last_touch"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// DisplayName returns "Company · Role" with fallbacks for missing parts.
func (a *Application) DisplayName() string {
	company, role := deref(a.Company), deref(a.Role)
	switch {
	case company != "" && role != "":
		return company + " · " + role
	case company != "":
		return company
	case role != "":
		return role
	default:
		return "Untitled application"
	}
}

// Set writes a single column value. A nil value clears the column.
func (a *Application) Set(column string, value any) error {
	if ptr, ok := a.textColumn(column); ok {
		s, err := asText(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", column, err)
		}
		*ptr = s
		return nil
	}

	if ptr, ok := a.numberColumn(column); ok {
		n, err := asNumber(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", column, err)
		}
		*ptr = n
		return nil
	}

	switch column {
	case FieldID:
		s, ok := value.(string)
		if !ok || s == "" {
			return fmt.Errorf("set %s: identifier must be a non-empty string", column)
		}
		a.ID = s
	case FieldDueDate:
		s, err := asText(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", column, err)
		}
		if s == nil {
			a.DueDate = nil
		} else {
			d := Day(*s)
			a.DueDate = &d
		}
	case FieldLastTouch:
		switch v := value.(type) {
		case nil:
			a.LastTouch = nil
		case time.Time:
			a.LastTouch = &v
		default:
			return fmt.Errorf("set %s: unsupported value %T", column, value)
		}
	case FieldCreatedAt:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("set %s: unsupported value %T", column, value)
		}
		a.CreatedAt = v
	default:
		return fmt.Errorf("unknown column %q", column)
	}

	return nil
}

func (a *Application) textColumn(column string) (**string, bool) {
	switch column {
	case FieldCompany:
		return &a.Company, true
	case FieldRole:
		return &a.Role, true
	case FieldStatus:
		return &a.Status, true
	case FieldIndustry:
		return &a.Industry, true
	case FieldFunction:
		return &a.Function, true
	case FieldNextAction:
		return &a.NextAction, true
	case FieldLocation:
		return &a.Location, true
	case FieldNotes:
		return &a.Notes, true
	case FieldSource:
		return &a.Source, true
	case FieldOutcome:
		return &a.Outcome, true
	}
	return nil, false
}

func (a *Application) numberColumn(column string) (**int64, bool) {
	switch column {
	case FieldPriority:
		return &a.Priority, true
	case FieldInterestRating:
		return &a.InterestRating, true
	case FieldEnergyRating:
		return &a.EnergyRating, true
	case FieldResponseDays:
		return &a.ResponseDays, true
	}
	return nil, false
}

// Text returns the value of a text column, empty when unset.
func (a *Application) Text(column string) string {
	if ptr, ok := a.textColumn(column); ok {
		return deref(*ptr)
	}
	if column == FieldDueDate && a.DueDate != nil {
		return string(*a.DueDate)
	}
	return ""
}

func asText(value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", value)
	}
}

func asNumber(value any) (*int64, error) {
	var n int64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int64:
		n = v
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case float64:
		n = int64(v)
	default:
		return nil, fmt.Errorf("unsupported value %T", value)
	}
	return &n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Day is a calendar day stored as YYYY-MM-DD.
type Day string

func (d Day) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func (d *Day) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Day(v.UTC().Format("2006-01-02"))
	case []byte:
		*d = Day(truncateDay(string(v)))
	case string:
		*d = Day(truncateDay(v))
	default:
		return fmt.Errorf("scan day: unsupported type %T", value)
	}
	return nil
}

func (d Day) Time() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", string(d), time.UTC)
}

func truncateDay(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// FormatInt renders an optional number, empty when unset.
func FormatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
