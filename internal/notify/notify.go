// Package notify formats and delivers desktop notifications for alert
// changes. Delivery failures are logged and never fail the cycle.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robustabar/robustabar/internal/types"
)

// Sender delivers one desktop notification.
type Sender interface {
	Send(title, message string, sound bool) error
}

// NewSender returns the platform sender: osascript on macOS, a
// log-only fallback elsewhere.
func NewSender(log zerolog.Logger) Sender {
	log = log.With().Str("component", "notify").Logger()
	if runtime.GOOS == "darwin" {
		return &osaScriptSender{log: log}
	}
	return &logSender{log: log}
}

// osaScriptSender shells out to osascript for native macOS
// notifications.
type osaScriptSender struct {
	log zerolog.Logger
}

func (s *osaScriptSender) Send(title, message string, sound bool) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeOSA(message), escapeOSA(title))
	if sound {
		script += ` sound name "Glass"`
	}

	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	s.log.Debug().Str("title", title).Msg("notification sent")
	return nil
}

// escapeOSA neutralizes quotes that would break the AppleScript string
// literal.
func escapeOSA(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// logSender is the non-darwin fallback.
type logSender struct {
	log zerolog.Logger
}

func (s *logSender) Send(title, message string, _ bool) error {
	s.log.Info().Str("title", title).Str("message", message).Msg("notification (no desktop delivery on this platform)")
	return nil
}

// Dispatch sends the notifications a change set warrants: one for the
// filtered new alerts, one count summary for resolutions. Errors are
// logged, not returned; a broken notifier must not break rendering.
func Dispatch(sender Sender, log zerolog.Logger, newAlerts []types.Alert, resolvedCount int) {
	if len(newAlerts) > 0 {
		title, message := NewAlertsMessage(newAlerts)
		if err := sender.Send(title, message, true); err != nil {
			log.Error().Err(err).Msg("failed to send new-alerts notification")
		}
	}
	if resolvedCount > 0 {
		title, message := ResolvedMessage(resolvedCount)
		if err := sender.Send(title, message, false); err != nil {
			log.Error().Err(err).Msg("failed to send resolved notification")
		}
	}
}

// NewAlertsMessage builds the notification for newly appeared alerts:
// a per-priority count line plus the names of up to three
// critical/high alerts.
func NewAlertsMessage(newAlerts []types.Alert) (title, message string) {
	counts := make(map[types.Priority]int)
	var urgent []types.Alert
	for _, a := range newAlerts {
		counts[a.Priority]++
		if a.Priority >= types.PriorityHigh {
			urgent = append(urgent, a)
		}
	}

	var parts []string
	for _, p := range types.PriorityOrder {
		if counts[p] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[p], p))
		}
	}
	message = "New alerts: " + strings.Join(parts, ", ")

	if len(urgent) > 0 {
		var names []string
		for i, a := range urgent {
			if i == 3 {
				names = append(names, fmt.Sprintf("and %d more...", len(urgent)-3))
				break
			}
			names = append(names, fmt.Sprintf("%s (%s)", a.AlertName, a.Cluster))
		}
		message += "\n" + strings.Join(names, "\n")
	}

	return "Robusta Alert", message
}

// ResolvedMessage builds the aggregate resolution summary. Resolved
// alerts survive only as identifiers, so the summary is a count.
func ResolvedMessage(count int) (title, message string) {
	noun := "alerts"
	if count == 1 {
		noun = "alert"
	}
	return "Robusta Alert Resolved", fmt.Sprintf("Resolved: %d %s", count, noun)
}
