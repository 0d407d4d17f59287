package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Vault reconciliation.
	r.Post("/sync", h.Sync)

	// Entries.
	r.Get("/entries", h.ListEntries)
	r.Post("/entries/{id}/reminders", h.CreateReminder)
	r.Post("/entries/{id}/archive", h.Archive)
	r.Post("/entries/{id}/restore", h.Restore)
	r.Post("/entries/{id}/open", h.OpenEntry)

	// Reminders.
	r.Get("/reminders/due-count", h.DueCount)
	r.Post("/reminders/{id}/done", h.MarkDone)
	r.Post("/reminders/{id}/snooze", h.Snooze)
	r.Delete("/reminders/{id}", h.CancelReminder)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings/vault", h.SetVaultPath)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
