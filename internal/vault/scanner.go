// Package vault provides the file-system side of the backlog: scanning a
// directory of Markdown notes and watching it for changes.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Scanner enumerates the Markdown files of a vault. A fresh listing is
// produced on every call; results are deduplicated by absolute path.
type Scanner interface {
	Scan(ctx context.Context, vaultPath string) ([]models.VaultFile, error)
}

// FSScanner implements Scanner against the local file system.
type FSScanner struct{}

// NewFSScanner creates a scanner for local vault directories.
func NewFSScanner() *FSScanner {
	return &FSScanner{}
}

// Scan walks vaultPath recursively and returns every .md file. Hidden
// directories (.obsidian, .git, ...) are skipped. The title is the file
// name without its extension.
func (s *FSScanner) Scan(ctx context.Context, vaultPath string) ([]models.VaultFile, error) {
	root, err := filepath.Abs(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", root)
	}

	var out []models.VaultFile
	seen := make(map[string]struct{})
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if _, ok := seen[p]; ok {
			return nil
		}
		seen[p] = struct{}{}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		out = append(out, models.VaultFile{
			Path:         p,
			Title:        strings.TrimSuffix(d.Name(), ".md"),
			RelativePath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: scan: %w", err)
	}
	return out, nil
}
