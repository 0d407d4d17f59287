// Package reminderservice owns the reminder state machine: creation,
// completion with rescheduling, snoozing, cancellation, and the archive
// side of the entry lifecycle.
package reminderservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/models"
)

// Number of days a completed reminder is rescheduled out. The cadence is
// fixed regardless of how overdue the completed reminder was.
const rescheduleDays = 7

// Service enforces the invariant that an entry has at most one active
// reminder at any time. It is the only writer of reminder rows.
type Service struct {
	cat    catalog.Store
	logger *slog.Logger
}

// New creates a reminder lifecycle service.
func New(cat catalog.Store, logger *slog.Logger) *Service {
	return &Service{cat: cat, logger: logger}
}

// Create adds a new active reminder for an entry. It fails with
// ErrConflict while the entry already has an active reminder; callers must
// complete or cancel that one first.
func (s *Service) Create(ctx context.Context, entryID string, remindAt time.Time, isFirst bool) (*models.Reminder, error) {
	if _, err := s.cat.GetEntry(ctx, entryID); err != nil {
		return nil, err
	}
	active, err := s.cat.ActiveReminderByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, fmt.Errorf("%w: entry %s already has an active reminder", apperr.ErrConflict, entryID)
	}
	r, err := s.cat.CreateReminder(ctx, catalog.ReminderInput{
		EntryID:  entryID,
		RemindAt: remindAt,
		IsFirst:  isFirst,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reminder: created",
		slog.String("entry_id", entryID),
		slog.String("remind_at", remindAt.Format(time.DateOnly)))
	return r, nil
}

// MarkDone completes the entry's active reminder and unconditionally
// schedules a follow-up one week out. The caller supplies the id of the
// currently active reminder.
func (s *Service) MarkDone(ctx context.Context, reminderID, entryID string) error {
	if err := s.cat.CompleteReminder(ctx, reminderID, time.Now()); err != nil {
		return err
	}
	next := time.Now().AddDate(0, 0, rescheduleDays)
	if _, err := s.cat.CreateReminder(ctx, catalog.ReminderInput{
		EntryID:  entryID,
		RemindAt: next,
		IsFirst:  false,
	}); err != nil {
		return err
	}
	s.logger.Debug("reminder: completed",
		slog.String("reminder_id", reminderID),
		slog.String("next_remind_at", next.Format(time.DateOnly)))
	return nil
}

// Snooze pushes an existing reminder's date to today plus days. Completion
// state and the is-first marker are untouched.
func (s *Service) Snooze(ctx context.Context, reminderID string, days int) error {
	if days < 0 {
		return fmt.Errorf("%w: snooze days must not be negative, got %d", apperr.ErrInvalidArgument, days)
	}
	if _, err := s.cat.GetReminder(ctx, reminderID); err != nil {
		return err
	}
	return s.cat.SetReminderDate(ctx, reminderID, time.Now().AddDate(0, 0, days))
}

// Cancel deletes a reminder outright. Cancelled reminders leave no
// history, unlike completed ones.
func (s *Service) Cancel(ctx context.Context, reminderID string) error {
	return s.cat.DeleteReminder(ctx, reminderID)
}

// ActiveReminder returns the entry's active reminder, or nil when the
// entry has none.
func (s *Service) ActiveReminder(ctx context.Context, entryID string) (*models.Reminder, error) {
	return s.cat.ActiveReminderByEntry(ctx, entryID)
}

// Archive hides an entry from the default listing. An active reminder is
// cancelled first so an archived entry can never show up as due.
func (s *Service) Archive(ctx context.Context, entryID string) error {
	active, err := s.cat.ActiveReminderByEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if active != nil {
		if err := s.cat.DeleteReminder(ctx, active.ID); err != nil {
			return err
		}
	}
	return s.cat.SetEntryArchived(ctx, entryID, true)
}

// Restore brings an archived entry back. The reminder cancelled by Archive
// is not recreated.
func (s *Service) Restore(ctx context.Context, entryID string) error {
	return s.cat.SetEntryArchived(ctx, entryID, false)
}

// ListEntries returns entries joined with their active reminders, ordered
// for display: reminded entries first by ascending remind date, then the
// rest by title.
func (s *Service) ListEntries(ctx context.Context, includeArchived bool) ([]models.EntryWithReminder, error) {
	return s.cat.ListEntries(ctx, includeArchived)
}

// CountDue returns the number of active reminders due on or before today.
func (s *Service) CountDue(ctx context.Context) (int, error) {
	return s.cat.CountDue(ctx, time.Now())
}
