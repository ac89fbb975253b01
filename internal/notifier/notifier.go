package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrThrottled is returned when a notification is dropped by a rate limit
var ErrThrottled = errors.New("notification dropped by rate limit")

// Notifier defines the interface for delivering notifications
type Notifier interface {
	// Notify delivers a single notification
	Notify(ctx context.Context, title, message string) error
}

// DryRunNotifier prints notifications instead of delivering them
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Notify prints the notification that would be sent
func (n *DryRunNotifier) Notify(_ context.Context, title, message string) error {
	_, err := fmt.Fprintf(n.w, "--- Notification: %s ---\n%s\n\n", title, message)
	return err
}

// Nop discards every notification
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, string, string) error {
	return nil
}

// Multi sends each notification to every notifier and joins their errors
type Multi []Notifier

// Notify delivers to all notifiers, even if some fail
func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds a notifier by name: "desktop", "telegram", "dry-run" or "none".
// Several names may be combined with commas.
func New(names string, cfg Config) (Notifier, error) {
	var all Multi
	for _, name := range strings.Split(names, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "", "none":
			continue
		case "desktop":
			all = append(all, NewDesktopNotifier())
		case "telegram":
			tg, err := NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
			if err != nil {
				return nil, err
			}
			all = append(all, tg)
		case "dry-run":
			all = append(all, NewDryRunNotifier(cfg.Out))
		default:
			return nil, fmt.Errorf("unknown notifier: %s (must be desktop, telegram, dry-run or none)", name)
		}
	}

	switch len(all) {
	case 0:
		return Nop{}, nil
	case 1:
		return all[0], nil
	}
	return all, nil
}

// Config carries the settings needed to construct notifiers
type Config struct {
	TelegramToken  string
	TelegramChatID string
	Out            io.Writer
}
