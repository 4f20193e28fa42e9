package core

import (
	"fmt"
	"time"
)

// Status is the display classification of an obligation relative to now.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusDueSoon   Status = "due_soon"
	StatusScheduled Status = "scheduled"
	StatusUnknown   Status = "unknown"
)

// DueSoonDays is the window within which an unpaid bill is flagged as due soon.
const DueSoonDays = 3

// StatusAt classifies o at now. Paid wins over everything else; unpaid bills
// with an unparsable due date are StatusUnknown.
func StatusAt(o Obligation, now time.Time) Status {
	if o.IsPaid {
		return StatusPaid
	}
	if !o.DueDate.Valid {
		return StatusUnknown
	}
	due := o.DueDate.Time.In(now.Location())
	if due.Before(now) {
		return StatusOverdue
	}
	if due.Before(StartOfDay(now).AddDate(0, 0, DueSoonDays+1)) {
		return StatusDueSoon
	}
	return StatusScheduled
}

// DaysUntil counts calendar days from now's day to due's day in now's
// location. Negative values mean overdue.
func DaysUntil(due, now time.Time) int {
	dy, dm, dd := due.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	// compare civil dates in UTC so DST shifts do not skew the count
	a := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// DueBadge is the short label shown next to an unpaid bill.
func DueBadge(due, now time.Time) string {
	switch days := DaysUntil(due, now); {
	case days < 0:
		return fmt.Sprintf("Overdue %dd", -days)
	case days == 0:
		return "Due Today"
	case days == 1:
		return "Due Tomorrow"
	default:
		return fmt.Sprintf("Due in %dd", days)
	}
}
