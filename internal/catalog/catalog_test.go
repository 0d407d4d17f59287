package catalog

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM reminders`).Scan(&count); err != nil {
		t.Fatalf("reminders table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM settings`).Scan(&count); err != nil {
		t.Fatalf("settings table missing: %v", err)
	}
}

func TestCreateAndGetEntry(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	e, err := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md", Title: "a", RelativePath: "a.md"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.ID == "" {
		t.Fatal("entry id should be assigned")
	}

	got, err := db.GetEntryByPath(ctx, "/vault/a.md")
	if err != nil {
		t.Fatalf("GetEntryByPath: %v", err)
	}
	if got.ID != e.ID || got.Title != "a" || got.RelativePath != "a.md" || got.Archived {
		t.Errorf("entry = %+v, want id=%s title=a", got, e.ID)
	}

	byID, err := db.GetEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if byID.Path != "/vault/a.md" {
		t.Errorf("path = %q", byID.Path)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetEntry(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.GetEntryByPath(context.Background(), "/nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateEntryMeta(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md", Title: "old", RelativePath: "a.md"})

	if err := db.UpdateEntryMeta(ctx, e.ID, "new", "sub/a.md"); err != nil {
		t.Fatalf("UpdateEntryMeta: %v", err)
	}
	got, _ := db.GetEntry(ctx, e.ID)
	if got.Title != "new" || got.RelativePath != "sub/a.md" {
		t.Errorf("entry = %+v after update", got)
	}

	if err := db.UpdateEntryMeta(ctx, "missing", "x", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEntryCascadesReminders(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md", Title: "a", RelativePath: "a.md"})
	r, err := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01"), IsFirst: true})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	if err := db.DeleteEntryByPath(ctx, "/vault/a.md"); err != nil {
		t.Fatalf("DeleteEntryByPath: %v", err)
	}
	if _, err := db.GetReminder(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("reminder should cascade on entry delete, got %v", err)
	}
}

func TestAllPaths(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, _ = db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})
	_, _ = db.CreateEntry(ctx, EntryInput{Path: "/vault/b.md"})

	paths, err := db.AllPaths(ctx)
	if err != nil {
		t.Fatalf("AllPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("len = %d, want 2", len(paths))
	}
	if _, ok := paths["/vault/a.md"]; !ok {
		t.Error("missing /vault/a.md")
	}
}

func TestActiveReminderUniqueIndex(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})

	if _, err := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01")}); err != nil {
		t.Fatalf("first CreateReminder: %v", err)
	}
	// A second active reminder for the same entry must be rejected by the
	// partial unique index even without the service-level check.
	if _, err := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-02")}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCompleteReminderAllowsNewActive(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})
	r, _ := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01")})

	if err := db.CompleteReminder(ctx, r.ID, time.Now()); err != nil {
		t.Fatalf("CompleteReminder: %v", err)
	}

	// Completed row is retained.
	got, err := db.GetReminder(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReminder after complete: %v", err)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	// And a new active reminder is now allowed.
	if _, err := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-08")}); err != nil {
		t.Errorf("new active reminder after complete: %v", err)
	}
}

func TestActiveReminderByEntry(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})

	r, err := db.ActiveReminderByEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("ActiveReminderByEntry: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil active reminder, got %+v", r)
	}

	created, _ := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01"), IsFirst: true})
	r, err = db.ActiveReminderByEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("ActiveReminderByEntry: %v", err)
	}
	if r == nil || r.ID != created.ID || !r.IsFirst {
		t.Errorf("active = %+v, want %s", r, created.ID)
	}
}

func TestSetReminderDate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})
	r, _ := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01")})

	if err := db.SetReminderDate(ctx, r.ID, date(t, "2026-10-15")); err != nil {
		t.Fatalf("SetReminderDate: %v", err)
	}
	got, _ := db.GetReminder(ctx, r.ID)
	if got.RemindAt.Format(time.DateOnly) != "2026-10-15" {
		t.Errorf("remind_at = %s", got.RemindAt.Format(time.DateOnly))
	}

	if err := db.SetReminderDate(ctx, "missing", date(t, "2026-10-15")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReminder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md"})
	r, _ := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, "2026-09-01")})

	if err := db.DeleteReminder(ctx, r.ID); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	if _, err := db.GetReminder(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if err := db.DeleteReminder(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestCountDue(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	today := date(t, "2026-08-30")

	mk := func(path, remindAt string) string {
		e, err := db.CreateEntry(ctx, EntryInput{Path: path})
		if err != nil {
			t.Fatal(err)
		}
		r, err := db.CreateReminder(ctx, ReminderInput{EntryID: e.ID, RemindAt: date(t, remindAt)})
		if err != nil {
			t.Fatal(err)
		}
		return r.ID
	}

	mk("/vault/overdue.md", "2026-08-20")
	mk("/vault/today.md", "2026-08-30")
	mk("/vault/tomorrow.md", "2026-08-31")
	doneID := mk("/vault/done.md", "2026-08-01")
	if err := db.CompleteReminder(ctx, doneID, time.Now()); err != nil {
		t.Fatal(err)
	}

	n, err := db.CountDue(ctx, today)
	if err != nil {
		t.Fatalf("CountDue: %v", err)
	}
	if n != 2 {
		t.Errorf("due count = %d, want 2 (overdue + today)", n)
	}
}

func TestListEntriesOrdering(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _ = db.CreateEntry(ctx, EntryInput{Path: "/vault/z.md", Title: "zebra"})
	_, _ = db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md", Title: "apple"})
	late, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/l.md", Title: "late"})
	soon, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/s.md", Title: "soon"})

	_, _ = db.CreateReminder(ctx, ReminderInput{EntryID: late.ID, RemindAt: date(t, "2026-12-01")})
	_, _ = db.CreateReminder(ctx, ReminderInput{EntryID: soon.ID, RemindAt: date(t, "2026-09-01")})

	items, err := db.ListEntries(ctx, false)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("len = %d, want 4", len(items))
	}
	// Reminded entries first by ascending date, then the rest by title.
	if items[0].Title != "soon" || items[1].Title != "late" {
		t.Errorf("reminded order = %s, %s; want soon, late", items[0].Title, items[1].Title)
	}
	if items[2].Title != "apple" || items[3].Title != "zebra" {
		t.Errorf("unreminded order = %s, %s; want apple, zebra", items[2].Title, items[3].Title)
	}
	if items[0].Reminder == nil || items[2].Reminder != nil {
		t.Error("reminder join mismatch")
	}
}

func TestListEntriesArchivedFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	e, _ := db.CreateEntry(ctx, EntryInput{Path: "/vault/a.md", Title: "a"})
	_, _ = db.CreateEntry(ctx, EntryInput{Path: "/vault/b.md", Title: "b"})

	if err := db.SetEntryArchived(ctx, e.ID, true); err != nil {
		t.Fatalf("SetEntryArchived: %v", err)
	}

	items, _ := db.ListEntries(ctx, false)
	if len(items) != 1 || items[0].Title != "b" {
		t.Errorf("default listing = %+v, want just b", items)
	}

	all, _ := db.ListEntries(ctx, true)
	if len(all) != 2 {
		t.Errorf("include_archived listing len = %d, want 2", len(all))
	}
}

func TestSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	v, err := db.Setting(ctx, SettingVaultPath)
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if v != "" {
		t.Errorf("unset setting = %q, want empty", v)
	}

	if err := db.SetSetting(ctx, SettingVaultPath, "/vault"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting(ctx, SettingVaultPath, "/vault2"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}

	v, _ = db.Setting(ctx, SettingVaultPath)
	if v != "/vault2" {
		t.Errorf("setting = %q, want /vault2", v)
	}
}
