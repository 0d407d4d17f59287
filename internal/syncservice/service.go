// Package syncservice implements vault reconciliation: aligning the
// catalog with the set of Markdown files currently in the vault.
package syncservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/vault"
)

// Stats reports what a reconciliation pass changed.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Service computes and applies the add/update/remove plan between a vault
// listing and the catalog.
type Service struct {
	cat     catalog.Store
	scanner vault.Scanner
	logger  *slog.Logger
}

// New creates a reconciler.
func New(cat catalog.Store, scanner vault.Scanner, logger *slog.Logger) *Service {
	return &Service{cat: cat, scanner: scanner, logger: logger}
}

// Reconcile scans vaultPath and brings the catalog up to date:
//   - files not yet tracked become new entries
//   - tracked files with a changed title or relative path are rewritten
//   - entries whose file vanished are deleted (reminders cascade)
//
// The result is a function of the two path sets, not of listing order, and
// a second run against an unchanged vault is a no-op. Mutations are not
// wrapped in a transaction: on failure the catalog sits between old and
// new state, and a retry is safe.
func (s *Service) Reconcile(ctx context.Context, vaultPath string) (Stats, error) {
	files, err := s.scanner.Scan(ctx, vaultPath)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: scan vault: %v", apperr.ErrSyncFailed, err)
	}

	existing, err := s.cat.AllPaths(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: read catalog paths: %v", apperr.ErrSyncFailed, err)
	}

	var stats Stats
	vaultPaths := make(map[string]struct{}, len(files))
	for _, f := range files {
		vaultPaths[f.Path] = struct{}{}

		if _, ok := existing[f.Path]; !ok {
			_, err := s.cat.CreateEntry(ctx, catalog.EntryInput{
				Path:         f.Path,
				Title:        f.Title,
				RelativePath: f.RelativePath,
			})
			if err != nil {
				return stats, fmt.Errorf("%w: create entry %s: %v", apperr.ErrSyncFailed, f.Path, err)
			}
			stats.Added++
			s.logger.Debug("reconcile: added", slog.String("path", f.Path))
			continue
		}

		if err := s.refreshEntry(ctx, f.Path, f.Title, f.RelativePath); err != nil {
			return stats, err
		}
	}

	for p := range existing {
		if _, ok := vaultPaths[p]; ok {
			continue
		}
		if err := s.cat.DeleteEntryByPath(ctx, p); err != nil {
			return stats, fmt.Errorf("%w: delete entry %s: %v", apperr.ErrSyncFailed, p, err)
		}
		stats.Removed++
		s.logger.Debug("reconcile: removed", slog.String("path", p))
	}

	if err := s.cat.SetSetting(ctx, catalog.SettingLastSyncAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return stats, fmt.Errorf("%w: record sync time: %v", apperr.ErrSyncFailed, err)
	}

	s.logger.Info("reconcile: done",
		slog.String("vault", vaultPath),
		slog.Int("added", stats.Added),
		slog.Int("removed", stats.Removed))
	return stats, nil
}

// refreshEntry rewrites title/relativePath only when either differs from
// the stored values, so an unchanged vault causes no writes.
func (s *Service) refreshEntry(ctx context.Context, path, title, relativePath string) error {
	e, err := s.cat.GetEntryByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: lookup entry %s: %v", apperr.ErrSyncFailed, path, err)
	}
	if e.Title == title && e.RelativePath == relativePath {
		return nil
	}
	if err := s.cat.UpdateEntryMeta(ctx, e.ID, title, relativePath); err != nil {
		return fmt.Errorf("%w: update entry %s: %v", apperr.ErrSyncFailed, path, err)
	}
	s.logger.Debug("reconcile: refreshed", slog.String("path", path))
	return nil
}
