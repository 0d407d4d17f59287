package api

import (
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reminderservice"
)

// SyncRequest optionally overrides the configured vault path for one run.
type SyncRequest struct {
	VaultPath string `json:"vault_path,omitempty"`
}

// SyncResponse reports what a reconciliation pass changed.
type SyncResponse struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// CreateReminderRequest is the request body for attaching a reminder.
type CreateReminderRequest struct {
	RemindAt string `json:"remind_at"`
	IsFirst  *bool  `json:"is_first,omitempty"`
}

// MarkDoneRequest names the entry a completed reminder belongs to.
type MarkDoneRequest struct {
	EntryID string `json:"entry_id"`
}

// SnoozeRequest is the request body for pushing a reminder out.
type SnoozeRequest struct {
	Days int `json:"days"`
}

// OpenRequest selects between opening the document and revealing it.
type OpenRequest struct {
	Reveal bool `json:"reveal,omitempty"`
}

// VaultSettingsRequest sets the vault path.
type VaultSettingsRequest struct {
	Path string `json:"path"`
}

// SettingsResponse reports the persisted settings.
type SettingsResponse struct {
	VaultPath  string `json:"vault_path"`
	LastSyncAt string `json:"last_sync_at,omitempty"`
}

// ReminderItem is a reminder in an API response, enriched with its
// due-status classification.
type ReminderItem struct {
	ID          string     `json:"id"`
	EntryID     string     `json:"entry_id"`
	RemindAt    string     `json:"remind_at"`
	IsFirst     bool       `json:"is_first"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string     `json:"status"`
}

// EntryItem is an entry in a list response with its active reminder.
type EntryItem struct {
	ID           string        `json:"id"`
	Path         string        `json:"path"`
	Title        string        `json:"title"`
	RelativePath string        `json:"relative_path"`
	Archived     bool          `json:"archived"`
	CreatedAt    time.Time     `json:"created_at"`
	Reminder     *ReminderItem `json:"reminder,omitempty"`
}

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []EntryItem `json:"entries"`
	Total   int         `json:"total"`
}

// DueCountResponse wraps the due-count aggregate.
type DueCountResponse struct {
	Count int `json:"count"`
}

func toReminderItem(r *models.Reminder, today time.Time) *ReminderItem {
	if r == nil {
		return nil
	}
	return &ReminderItem{
		ID:          r.ID,
		EntryID:     r.EntryID,
		RemindAt:    r.RemindAt.Format(time.DateOnly),
		IsFirst:     r.IsFirst,
		CompletedAt: r.CompletedAt,
		Status:      string(reminderservice.Classify(r, today)),
	}
}

func toEntryItem(e models.EntryWithReminder, today time.Time) EntryItem {
	return EntryItem{
		ID:           e.ID,
		Path:         e.Path,
		Title:        e.Title,
		RelativePath: e.RelativePath,
		Archived:     e.Archived,
		CreatedAt:    e.CreatedAt,
		Reminder:     toReminderItem(e.Reminder, today),
	}
}
