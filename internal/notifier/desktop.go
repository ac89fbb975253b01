package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandRunner runs an external command
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DesktopNotifier shows a notification through the operating system.
// macOS uses osascript and plays the Glass sound; other systems use notify-send.
type DesktopNotifier struct {
	goos string
	run  CommandRunner
}

// NewDesktopNotifier creates a notifier for the current operating system
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{
		goos: runtime.GOOS,
		run:  runCommand,
	}
}

// Notify shows the notification
func (n *DesktopNotifier) Notify(ctx context.Context, title, message string) error {
	switch n.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %s with title %s sound name "Glass"`,
			appleScriptString(message), appleScriptString(title))
		return n.run(ctx, "osascript", "-e", script)
	case "linux", "freebsd", "openbsd", "netbsd":
		return n.run(ctx, "notify-send", "--app-name=seatwatch", title, message)
	default:
		return fmt.Errorf("desktop notifications are not supported on %s", n.goos)
	}
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
