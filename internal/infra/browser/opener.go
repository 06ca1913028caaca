// Package browser plays preview URLs by handing them to the desktop's default
// URL handler or to a configured player command.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

var errNoOpener = errors.New("no URL opener found on this system")

// Opener starts an external program for each URL and never waits for it.
type Opener struct {
	command string
	args    []string
	start   func(*exec.Cmd) error
	logger  *slog.Logger
}

// NewOpener uses command (split on spaces, URL appended) when set, otherwise
// the platform default URL handler.
func NewOpener(command string, logger *slog.Logger) *Opener {
	o := &Opener{logger: logger}
	if fields := strings.Fields(command); len(fields) > 0 {
		o.command, o.args = fields[0], fields[1:]
	} else {
		o.command, o.args = detectOpener()
	}
	o.start = o.startDetached

	logger.Debug("player initialized", "command", o.command, "platform", runtime.GOOS)
	return o
}

func (o *Opener) Available() bool {
	return o.command != ""
}

func (o *Opener) Play(_ context.Context, url string) error {
	if o.command == "" {
		return errNoOpener
	}

	// Detached on purpose: cancelling the iteration must not kill playback.
	cmd := exec.Command(o.command, o.buildArgs(url)...) //nolint:gosec // command comes from local config or PATH lookup
	if err := o.start(cmd); err != nil {
		return fmt.Errorf("running %s: %w", o.command, err)
	}
	return nil
}

func (o *Opener) startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			o.logger.Debug("player exited with error", "command", o.command, "error", err)
		}
	}()
	return nil
}

// buildArgs returns a fresh slice so concurrent calls never share a backing array.
func (o *Opener) buildArgs(url string) []string {
	args := make([]string, len(o.args)+1)
	copy(args, o.args)
	args[len(args)-1] = url
	return args
}

func detectOpener() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("open"); err == nil {
			return path, nil
		}
	case "windows":
		if path, err := exec.LookPath("rundll32"); err == nil {
			return path, []string{"url.dll,FileProtocolHandler"}
		}
	default:
		if path, err := exec.LookPath("xdg-open"); err == nil {
			return path, nil
		}
		if path, err := exec.LookPath("gio"); err == nil {
			return path, []string{"open"}
		}
		if path, err := exec.LookPath("sensible-browser"); err == nil {
			return path, nil
		}
	}
	return "", nil
}
