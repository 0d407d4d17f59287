// Package models defines the domain types for Raido.
package models

import "time"

// Entry represents one tracked note in the catalog.
type Entry struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	RelativePath string    `json:"relative_path"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reminder represents a scheduled follow-up for one entry.
// RemindAt is a calendar date; its time-of-day is always midnight UTC.
// A nil CompletedAt means the reminder is active.
type Reminder struct {
	ID          string     `json:"id"`
	EntryID     string     `json:"entry_id"`
	RemindAt    time.Time  `json:"remind_at"`
	IsFirst     bool       `json:"is_first"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Active reports whether the reminder has not been completed yet.
func (r *Reminder) Active() bool {
	return r.CompletedAt == nil
}

// EntryWithReminder is an entry joined with its active reminder, if any.
type EntryWithReminder struct {
	Entry
	Reminder *Reminder `json:"reminder,omitempty"`
}

// VaultFile is one Markdown file observed by the vault scanner.
type VaultFile struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	RelativePath string `json:"relative_path"`
}
