package reminderservice

import (
	"time"

	"github.com/starford/raido/internal/models"
)

// Status classifies how soon a reminder needs attention.
type Status string

const (
	StatusOverdue     Status = "overdue"
	StatusDueToday    Status = "due_today"
	StatusDueTomorrow Status = "due_tomorrow"
	StatusUpcoming    Status = "upcoming"
	StatusFuture      Status = "future"
)

// startOfDay normalises a timestamp to its calendar date. Dates from
// different locations compare correctly because only the Y/M/D components
// survive.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of whole calendar days from today until
// remindAt. Negative for past dates.
func DaysUntil(remindAt, today time.Time) int {
	return int(startOfDay(remindAt).Sub(startOfDay(today)).Hours() / 24)
}

// Classify determines the status of a reminder relative to today.
// Completed reminders always classify as future; time-of-day is ignored.
func Classify(r *models.Reminder, today time.Time) Status {
	if r.CompletedAt != nil {
		return StatusFuture
	}
	switch d := DaysUntil(r.RemindAt, today); {
	case d < 0:
		return StatusOverdue
	case d == 0:
		return StatusDueToday
	case d == 1:
		return StatusDueTomorrow
	case d <= 7:
		return StatusUpcoming
	default:
		return StatusFuture
	}
}

// IsDue reports whether a reminder counts toward the due badge: active and
// dated today or earlier.
func IsDue(r *models.Reminder, today time.Time) bool {
	s := Classify(r, today)
	return s == StatusOverdue || s == StatusDueToday
}
