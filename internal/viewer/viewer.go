// Package viewer opens exported files with the desktop's default handler.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoViewer is returned when no command is known for the platform.
var ErrNoViewer = errors.New("viewer: no default viewer for this platform")

// Opener launches a viewer for a file and does not wait for it to exit.
type Opener struct {
	command []string // program and leading arguments; the path is appended
	logger  *slog.Logger
	start   func(cmd *exec.Cmd) error
}

// New returns an Opener. A non-empty override is split on whitespace and
// used instead of the platform default.
func New(override string, logger *slog.Logger) *Opener {
	command := strings.Fields(override)
	if len(command) == 0 {
		command = platformCommand(runtime.GOOS)
	}
	return &Opener{command: command, logger: logger, start: (*exec.Cmd).Start}
}

func platformCommand(goos string) []string {
	switch goos {
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	case "darwin":
		return []string{"open"}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		return []string{"xdg-open"}
	}
	return nil
}

// Open starts the viewer on path.
func (o *Opener) Open(ctx context.Context, path string) error {
	if len(o.command) == 0 {
		return ErrNoViewer
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	args := append(append([]string(nil), o.command[1:]...), path)
	// Not bound to ctx: the viewer must survive the end of the run.
	cmd := exec.Command(o.command[0], args...)
	if err := o.start(cmd); err != nil {
		return fmt.Errorf("viewer: start %s: %w", o.command[0], err)
	}
	o.logger.Info("viewer: opened", "path", path, "command", o.command[0])
	if cmd.Process != nil {
		// The viewer outlives this process; reap it if it exits first.
		go func() { _ = cmd.Wait() }()
	}
	return nil
}
