package reminderservice

import (
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func TestClassify_Boundaries(t *testing.T) {
	today, _ := time.Parse(time.DateOnly, "2026-08-30")

	cases := []struct {
		name string
		days int
		want Status
	}{
		{"yesterday", -1, StatusOverdue},
		{"week ago", -7, StatusOverdue},
		{"today", 0, StatusDueToday},
		{"tomorrow", 1, StatusDueTomorrow},
		{"in two days", 2, StatusUpcoming},
		{"in seven days", 7, StatusUpcoming},
		{"in eight days", 8, StatusFuture},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &models.Reminder{RemindAt: today.AddDate(0, 0, tc.days)}
			if got := Classify(r, today); got != tc.want {
				t.Errorf("Classify(today%+d) = %s, want %s", tc.days, got, tc.want)
			}
		})
	}
}

func TestClassify_CompletedIsNeverDue(t *testing.T) {
	today, _ := time.Parse(time.DateOnly, "2026-08-30")
	done := time.Now()
	r := &models.Reminder{RemindAt: today.AddDate(0, 0, -30), CompletedAt: &done}

	if got := Classify(r, today); got != StatusFuture {
		t.Errorf("completed reminder classifies as %s, want future", got)
	}
	if IsDue(r, today) {
		t.Error("completed reminder should never be due")
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	// Late evening "today" vs early morning remind date: still due today.
	today := time.Date(2026, 8, 30, 23, 45, 0, 0, time.Local)
	r := &models.Reminder{RemindAt: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}

	if got := Classify(r, today); got != StatusDueToday {
		t.Errorf("Classify = %s, want due_today regardless of time-of-day", got)
	}
}

func TestIsDue(t *testing.T) {
	today, _ := time.Parse(time.DateOnly, "2026-08-30")

	if !IsDue(&models.Reminder{RemindAt: today.AddDate(0, 0, -3)}, today) {
		t.Error("overdue reminder should be due")
	}
	if !IsDue(&models.Reminder{RemindAt: today}, today) {
		t.Error("today's reminder should be due")
	}
	if IsDue(&models.Reminder{RemindAt: today.AddDate(0, 0, 1)}, today) {
		t.Error("tomorrow's reminder should not be due")
	}
}

func TestDaysUntil(t *testing.T) {
	today, _ := time.Parse(time.DateOnly, "2026-08-30")
	if d := DaysUntil(today.AddDate(0, 0, 5), today); d != 5 {
		t.Errorf("DaysUntil = %d, want 5", d)
	}
	if d := DaysUntil(today.AddDate(0, 0, -2), today); d != -2 {
		t.Errorf("DaysUntil = %d, want -2", d)
	}
}
