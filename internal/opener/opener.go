// Package opener launches external applications for viewing entries.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Opener opens vault files in an external application and reveals them in
// the system file manager.
type Opener struct {
	// App, when non-empty, names the application to open documents with
	// (macOS only; other platforms use the system default handler).
	App string
}

// New creates an Opener. app may be empty to use the default handler.
func New(app string) *Opener {
	return &Opener{App: app}
}

// Open opens the file at path in the configured (or default) application.
func (o *Opener) Open(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		if o.App != "" {
			cmd = exec.CommandContext(ctx, "open", "-a", o.App, path)
		} else {
			cmd = exec.CommandContext(ctx, "open", path)
		}
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("opener: open %s: %w: %s", path, err, out)
	}
	return nil
}

// Reveal shows the file in the system file manager.
func (o *Opener) Reveal(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-R", path)
	case "windows":
		cmd = exec.CommandContext(ctx, "explorer", "/select,", path)
	default:
		// No portable "reveal" on Linux; open the containing directory.
		cmd = exec.CommandContext(ctx, "xdg-open", filepath.Dir(path))
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("opener: reveal %s: %w: %s", path, err, out)
	}
	return nil
}
