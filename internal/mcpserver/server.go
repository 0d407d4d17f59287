// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido backlog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/reminderservice"
	"github.com/starford/raido/internal/syncservice"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp       *server.MCPServer
	syncer    *syncservice.Service
	reminders *reminderservice.Service
	cat       catalog.Store
}

// New creates a new MCP server with all Raido tools registered.
func New(syncer *syncservice.Service, reminders *reminderservice.Service, cat catalog.Store) *Server {
	s := &Server{syncer: syncer, reminders: reminders, cat: cat}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_vault",
		mcp.WithDescription("Reconcile the catalog with the Markdown files in the vault. "+
			"Returns how many entries were added and removed."),
		mcp.WithString("vault_path", mcp.Description("Vault directory to scan (empty to use the configured one)")),
	), s.syncVault)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List tracked entries with their active reminders. "+
			"Entries with a reminder come first, soonest date first."),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived entries (default false)")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("due_count",
		mcp.WithDescription("Count reminders that are due today or overdue."),
	), s.dueCount)

	s.mcp.AddTool(mcp.NewTool("create_reminder",
		mcp.WithDescription("Attach a reminder to an entry. Fails if the entry already has an active reminder."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry to remind about")),
		mcp.WithString("remind_at", mcp.Required(), mcp.Description("Due date in yyyy-mm-dd form")),
	), s.createReminder)

	s.mcp.AddTool(mcp.NewTool("mark_done",
		mcp.WithDescription("Complete the entry's active reminder and schedule a follow-up one week out."),
		mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Id of the active reminder")),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry the reminder belongs to")),
	), s.markDone)

	s.mcp.AddTool(mcp.NewTool("snooze_reminder",
		mcp.WithDescription("Push a reminder's date to today plus the given number of days."),
		mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Id of the reminder to snooze")),
		mcp.WithNumber("days", mcp.Required(), mcp.Description("Days from today (must not be negative)")),
	), s.snoozeReminder)

	s.mcp.AddTool(mcp.NewTool("cancel_reminder",
		mcp.WithDescription("Delete a reminder outright. Unlike completion, cancellation keeps no history."),
		mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Id of the reminder to cancel")),
	), s.cancelReminder)

	s.mcp.AddTool(mcp.NewTool("archive_entry",
		mcp.WithDescription("Archive an entry, cancelling its active reminder if it has one."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry to archive")),
	), s.archiveEntry)

	s.mcp.AddTool(mcp.NewTool("restore_entry",
		mcp.WithDescription("Bring an archived entry back into the default listing."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry to restore")),
	), s.restoreEntry)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultPath := ""
	if v, err := req.RequireString("vault_path"); err == nil {
		vaultPath = v
	}
	if vaultPath == "" {
		configured, err := s.cat.Setting(ctx, catalog.SettingVaultPath)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		vaultPath = configured
	}
	if vaultPath == "" {
		return mcp.NewToolResultError("vault path is not configured"), nil
	}

	stats, err := s.syncer.Reconcile(ctx, vaultPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added %d, removed %d", stats.Added, stats.Removed)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeArchived := req.GetBool("include_archived", false)

	items, err := s.reminders.ListEntries(ctx, includeArchived)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) dueCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.reminders.CountDue(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d", count)), nil
}

func (s *Server) createReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remindAtStr, err := req.RequireString("remind_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remindAt, err := time.Parse(time.DateOnly, remindAtStr)
	if err != nil {
		return mcp.NewToolResultError("remind_at must be a yyyy-mm-dd date"), nil
	}

	reminder, err := s.reminders.Create(ctx, entryID, remindAt, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created reminder %s for %s", reminder.ID, remindAtStr)), nil
}

func (s *Server) markDone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminderID, err := req.RequireString("reminder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reminders.MarkDone(ctx, reminderID, entryID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("done; follow-up scheduled one week out"), nil
}

func (s *Server) snoozeReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminderID, err := req.RequireString("reminder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := req.RequireInt("days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reminders.Snooze(ctx, reminderID, days); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("snoozed %d days", days)), nil
}

func (s *Server) cancelReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminderID, err := req.RequireString("reminder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reminders.Cancel(ctx, reminderID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("cancelled"), nil
}

func (s *Server) archiveEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reminders.Archive(ctx, entryID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("archived"), nil
}

func (s *Server) restoreEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reminders.Restore(ctx, entryID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("restored"), nil
}
