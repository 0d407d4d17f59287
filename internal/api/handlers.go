package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/opener"
	"github.com/starford/raido/internal/reminderservice"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/syncservice"
)

// Handler holds API route handlers.
type Handler struct {
	syncer    *syncservice.Service
	reminders *reminderservice.Service
	cat       catalog.Store
	open      *opener.Opener
	broker    *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil when no SSE fan-out
// is wanted (tests, MCP-only mode).
func NewHandler(syncer *syncservice.Service, reminders *reminderservice.Service, cat catalog.Store, open *opener.Opener, broker *sse.Broker) *Handler {
	return &Handler{syncer: syncer, reminders: reminders, cat: cat, open: open, broker: broker}
}

// respondError maps service errors onto HTTP status codes.
func respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("an active reminder already exists"))
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrSyncFailed):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("sync failed"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// publishDueCount pushes a fresh due count to SSE subscribers after a
// mutation that may have changed it.
func (h *Handler) publishDueCount(ctx context.Context) {
	if h.broker == nil {
		return
	}
	count, err := h.reminders.CountDue(ctx)
	if err != nil {
		slog.Warn("due count refresh failed", slog.String("error", err.Error()))
		return
	}
	h.broker.PublishDueCount(count)
}

// Sync handles POST /api/sync. The vault path comes from the request body
// when present, otherwise from settings.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if r.Body != nil {
		// An empty body means "use the configured vault".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	vaultPath := req.VaultPath
	if vaultPath == "" {
		var err error
		vaultPath, err = h.cat.Setting(r.Context(), catalog.SettingVaultPath)
		if err != nil {
			respondError(w, err, "sync")
			return
		}
	}
	if vaultPath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("vault path is not configured"))
		return
	}

	stats, err := h.syncer.Reconcile(r.Context(), vaultPath)
	if err != nil {
		respondError(w, err, "sync")
		return
	}
	if h.broker != nil {
		h.broker.PublishSyncEvent(stats.Added, stats.Removed)
	}
	h.publishDueCount(r.Context())
	writeJSON(w, http.StatusOK, SyncResponse{Added: stats.Added, Removed: stats.Removed})
}

// ListEntries handles GET /api/entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	items, err := h.reminders.ListEntries(r.Context(), includeArchived)
	if err != nil {
		respondError(w, err, "list entries")
		return
	}
	today := time.Now()
	out := make([]EntryItem, len(items))
	for i, it := range items {
		out[i] = toEntryItem(it, today)
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: out, Total: len(out)})
}

// DueCount handles GET /api/reminders/due-count.
func (h *Handler) DueCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.reminders.CountDue(r.Context())
	if err != nil {
		respondError(w, err, "due count")
		return
	}
	writeJSON(w, http.StatusOK, DueCountResponse{Count: count})
}

// CreateReminder handles POST /api/entries/{id}/reminders.
func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	remindAt, err := time.Parse(time.DateOnly, req.RemindAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("remind_at must be a yyyy-mm-dd date"))
		return
	}
	isFirst := true
	if req.IsFirst != nil {
		isFirst = *req.IsFirst
	}

	reminder, err := h.reminders.Create(r.Context(), entryID, remindAt, isFirst)
	if err != nil {
		respondError(w, err, "create reminder")
		return
	}
	h.publishDueCount(r.Context())
	writeJSON(w, http.StatusCreated, toReminderItem(reminder, time.Now()))
}

// MarkDone handles POST /api/reminders/{id}/done.
func (h *Handler) MarkDone(w http.ResponseWriter, r *http.Request) {
	reminderID := chi.URLParam(r, "id")

	var req MarkDoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntryID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("entry_id is required"))
		return
	}

	if err := h.reminders.MarkDone(r.Context(), reminderID, req.EntryID); err != nil {
		respondError(w, err, "mark done")
		return
	}
	h.publishDueCount(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Snooze handles POST /api/reminders/{id}/snooze.
func (h *Handler) Snooze(w http.ResponseWriter, r *http.Request) {
	reminderID := chi.URLParam(r, "id")

	var req SnoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if err := h.reminders.Snooze(r.Context(), reminderID, req.Days); err != nil {
		respondError(w, err, "snooze")
		return
	}
	h.publishDueCount(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CancelReminder handles DELETE /api/reminders/{id}.
func (h *Handler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	reminderID := chi.URLParam(r, "id")
	if err := h.reminders.Cancel(r.Context(), reminderID); err != nil {
		respondError(w, err, "cancel reminder")
		return
	}
	h.publishDueCount(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Archive handles POST /api/entries/{id}/archive.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if err := h.reminders.Archive(r.Context(), entryID); err != nil {
		respondError(w, err, "archive")
		return
	}
	h.publishDueCount(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/entries/{id}/restore.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if err := h.reminders.Restore(r.Context(), entryID); err != nil {
		respondError(w, err, "restore")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenEntry handles POST /api/entries/{id}/open.
func (h *Handler) OpenEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req OpenRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	entry, err := h.cat.GetEntry(r.Context(), entryID)
	if err != nil {
		respondError(w, err, "open entry")
		return
	}

	if req.Reveal {
		err = h.open.Reveal(r.Context(), entry.Path)
	} else {
		err = h.open.Open(r.Context(), entry.Path)
	}
	if err != nil {
		respondError(w, err, "open entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	vaultPath, err := h.cat.Setting(r.Context(), catalog.SettingVaultPath)
	if err != nil {
		respondError(w, err, "get settings")
		return
	}
	lastSync, err := h.cat.Setting(r.Context(), catalog.SettingLastSyncAt)
	if err != nil {
		respondError(w, err, "get settings")
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{VaultPath: vaultPath, LastSyncAt: lastSync})
}

// SetVaultPath handles PUT /api/settings/vault.
func (h *Handler) SetVaultPath(w http.ResponseWriter, r *http.Request) {
	var req VaultSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.cat.SetSetting(r.Context(), catalog.SettingVaultPath, req.Path); err != nil {
		respondError(w, err, "set vault path")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
