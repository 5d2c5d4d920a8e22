package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	NotificationTitle = "Emotional check-in"
	NotificationBody  = "How are you feeling today? Take a moment to complete your daily record."
)

type Notification struct {
	Title   string
	Body    string
	FiredAt time.Time
}

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes reminders to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(n.Title, "body", n.Body, "fired_at", n.FiredAt)
	return nil
}

// CommandNotifier runs an external program with the title and body appended
// as its last two arguments, e.g. notify-send.
type CommandNotifier struct {
	Path string
	Args []string
}

func (c CommandNotifier) Notify(ctx context.Context, n Notification) error {
	args := append(append([]string(nil), c.Args...), n.Title, n.Body)
	out, err := exec.CommandContext(ctx, c.Path, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", c.Path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NotifierFromCommand builds a CommandNotifier from a whitespace-separated
// command line. An empty line selects LogNotifier.
func NotifierFromCommand(cmdline string) Notifier {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return LogNotifier{}
	}
	return CommandNotifier{Path: fields[0], Args: fields[1:]}
}
