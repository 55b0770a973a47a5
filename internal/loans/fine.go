package loans

import "time"

const (
	// DefaultLoanDays is the loan period used when the caller passes none.
	DefaultLoanDays = 14
	// FineRatePerDay is charged per whole calendar day past the due date.
	FineRatePerDay = 10.00
)

// dateOf truncates to midnight UTC. All fine arithmetic works on calendar
// dates, never on time of day.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DueDate is the calendar date `days` days after from.
func DueDate(from time.Time, days int) time.Time {
	return dateOf(from).AddDate(0, 0, days)
}

// DaysLate counts whole calendar days between the due date and at.
// Returning at any time on the due date itself is 0.
func DaysLate(dueOn, at time.Time) int {
	d := int(dateOf(at).Sub(dateOf(dueOn)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// FineFor is the step-function fine for returning at time at.
func FineFor(dueOn, at time.Time) float64 {
	return float64(DaysLate(dueOn, at)) * FineRatePerDay
}

// IsOverdue reports whether an outstanding loan's due date lies strictly
// before at's calendar date.
func IsOverdue(dueOn, at time.Time) bool {
	return dateOf(dueOn).Before(dateOf(at))
}
