package models

import (
	"fmt"
	"time"
)

// Proximity buckets an application by days until its due date.
type Proximity string

const (
	ProximityNone      Proximity = "none"
	ProximityOverdue   Proximity = "overdue"
	ProximityToday     Proximity = "today"
	ProximitySoon      Proximity = "soon"
	ProximityScheduled Proximity = "scheduled"
)

// DueSoonDays is the upper bound (inclusive) of the "soon" bucket.
const DueSoonDays = 7

// DaysUntil returns whole UTC days from now until due.
func DaysUntil(due Day, now time.Time) (int, bool) {
	t, err := due.Time()
	if err != nil {
		return 0, false
	}
	n := now.UTC()
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(today).Hours() / 24), true
}

func ClassifyDue(due *Day, now time.Time) (Proximity, int) {
	if due == nil || *due == "" {
		return ProximityNone, 0
	}

	days, ok := DaysUntil(*due, now)
	if !ok {
		return ProximityNone, 0
	}

	switch {
	case days < 0:
		return ProximityOverdue, days
	case days == 0:
		return ProximityToday, days
	case days <= DueSoonDays:
		return ProximitySoon, days
	default:
		return ProximityScheduled, days
	}
}

// DueLabel renders the short badge text for a due date.
func DueLabel(due *Day, now time.Time) string {
	p, days := ClassifyDue(due, now)
	switch p {
	case ProximityOverdue:
		return "Overdue"
	case ProximityToday:
		return "Due today"
	case ProximitySoon:
		return fmt.Sprintf("Due in %dd", days)
	case ProximityScheduled:
		return "Scheduled"
	default:
		return "No due date"
	}
}

// DueItem pairs an application with its due classification.
type DueItem struct {
	Application Application `json:"application"`
	Proximity   Proximity   `json:"proximity"`
	Days        int         `json:"days"`
}
