// Package menu renders the SwiftBar/xbar output: one summary line for
// the menu bar, then `---`-separated detail blocks using the host's
// line-based menu syntax.
package menu

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/robustabar/robustabar/internal/config"
	"github.com/robustabar/robustabar/internal/robusta"
	"github.com/robustabar/robustabar/internal/types"
)

const (
	iconCritical = ":exclamationmark.octagon.fill:"
	iconHigh     = ":exclamationmark.triangle.fill:"
	iconBadge    = ":bell.badge:"
	iconNeutral  = ":bell:"
	iconConfig   = ":gear.badge.exclamationmark:"

	dimColor   = "#898989"
	errorColor = "#EF5B58"
	newColor   = "#61D3E5"
)

// Builder renders the aggregated, change-annotated view into menu
// lines.
type Builder struct {
	display    config.DisplayConfig
	execPath   string
	configPath string
	now        time.Time
}

// NewBuilder creates a builder. execPath is this binary's own path,
// used for the clipboard copy action; now pins age rendering for the
// cycle.
func NewBuilder(display config.DisplayConfig, execPath, configPath string, now time.Time) *Builder {
	return &Builder{display: display, execPath: execPath, configPath: configPath, now: now}
}

// Render produces the full menu: summary line, footer, error block,
// then alerts grouped by priority.
func (b *Builder) Render(alerts []types.Alert, clusterErrors map[string]error, cs types.ChangeSet) []string {
	lines := []string{b.titleLine(alerts), "---"}
	lines = append(lines, b.footer(cs)...)
	lines = append(lines, "---")

	if len(clusterErrors) > 0 {
		lines = append(lines, b.errorBlock(clusterErrors)...)
		lines = append(lines, "---")
	}

	if len(alerts) == 0 {
		lines = append(lines, "No unresolved alerts")
		return lines
	}

	byPriority := make(map[types.Priority][]types.Alert)
	for _, a := range alerts {
		byPriority[a.Priority] = append(byPriority[a.Priority], a)
	}
	for _, p := range types.PriorityOrder {
		group := byPriority[p]
		if len(group) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s (%d) | color=%s", p.Symbol(), p, len(group), p.Color()))
		for _, a := range group {
			lines = append(lines, b.alertItem(a)...)
		}
	}
	return lines
}

// titleLine implements the strict 4-way icon state machine plus the
// per-priority count breakdown.
func (b *Builder) titleLine(alerts []types.Alert) string {
	if len(alerts) == 0 {
		return iconNeutral
	}

	counts := make(map[types.Priority]int)
	highest := types.PriorityUnknown
	for _, a := range alerts {
		counts[a.Priority]++
		if a.Priority > highest {
			highest = a.Priority
		}
	}

	icon := iconBadge
	switch {
	case highest == types.PriorityCritical:
		icon = iconCritical
	case highest == types.PriorityHigh:
		icon = iconHigh
	}

	var parts []string
	for _, p := range types.PriorityOrder {
		if counts[p] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", p.Label(), counts[p]))
		}
	}
	return icon + " " + strings.Join(parts, " ")
}

func (b *Builder) footer(cs types.ChangeSet) []string {
	lines := []string{
		"Refresh data | refresh=true",
		fmt.Sprintf("Open config | href=file://%s", b.configPath),
	}
	if n := len(cs.New); n > 0 {
		lines = append(lines, fmt.Sprintf("%d new since last refresh | color=%s", n, newColor))
	}
	return lines
}

// errorBlock renders per-cluster failures. Always visible regardless
// of display flags: silent failure is not an option.
func (b *Builder) errorBlock(clusterErrors map[string]error) []string {
	names := make([]string, 0, len(clusterErrors))
	for name := range clusterErrors {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		err := clusterErrors[name]
		lines = append(lines, fmt.Sprintf("%s: %s | color=%s", name, userMessage(err), errorColor))
		if b.display.Debug {
			var fe *robusta.FetchError
			if errors.As(err, &fe) {
				detail := fe.Endpoint
				if fe.Status != 0 {
					detail = fmt.Sprintf("%s (HTTP %d)", fe.Endpoint, fe.Status)
				}
				lines = append(lines, fmt.Sprintf("-- %s | color=%s", sanitize(detail), dimColor))
			} else {
				lines = append(lines, fmt.Sprintf("-- %s | color=%s", sanitize(err.Error()), dimColor))
			}
		}
	}
	return lines
}

func userMessage(err error) string {
	var fe *robusta.FetchError
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return "fetch failed"
}

// alertItem renders one alert as a `--` submenu entry with `----`
// detail lines.
func (b *Builder) alertItem(a types.Alert) []string {
	parts := []string{sanitize(a.AlertName)}
	if b.display.ShowClusterInTitle {
		parts = append(parts, "["+sanitize(a.Cluster)+"]")
	}
	if b.display.ShowNamespace && a.Namespace != "" {
		parts = append(parts, sanitize(a.Namespace)+"/"+sanitize(a.ResourceName))
	} else if a.ResourceName != "" {
		parts = append(parts, sanitize(a.ResourceName))
	}
	if b.display.ShowAge {
		parts = append(parts, "("+a.AgeString(b.now)+")")
	}

	color := a.Priority.Color()
	if a.Stale(b.now, b.display.StaleThreshold()) {
		parts = append(parts, "⏳")
		color = dimColor
	}

	lines := []string{fmt.Sprintf("-- %s | color=%s", strings.Join(parts, " "), color)}

	if a.Description != "" {
		for _, sentence := range splitSentences(sanitize(a.Description)) {
			if a.DashboardURL != "" {
				lines = append(lines, fmt.Sprintf("---- %s | href=%s", sentence, a.DashboardURL))
			} else {
				lines = append(lines, "---- "+sentence)
			}
		}
	}

	detail := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("---- %s: %s | color=%s", label, sanitize(value), dimColor))
		}
	}
	detail("Cluster", a.Cluster)
	detail("Namespace", a.Namespace)
	detail("App", a.App)
	detail("Resource", a.ResourceName)
	detail("Node", a.ResourceNode)
	if !a.StartedAt.IsZero() {
		started := fmt.Sprintf("%s (%s)",
			a.StartedAt.Format(time.RFC3339),
			humanize.RelTime(a.StartedAt, b.now, "ago", "from now"))
		detail("Started", started)
	}
	if a.DashboardURL != "" {
		lines = append(lines, "---- Open in Robusta | href="+a.DashboardURL)
	}

	payload := base64.StdEncoding.EncodeToString([]byte(CopyText(a)))
	lines = append(lines, fmt.Sprintf("---- Copy Alert Details | bash=%q param1=copy param2=%s terminal=false", b.execPath, payload))

	return lines
}

// CopyText is the plain-text alert summary placed on the clipboard by
// the copy action.
func CopyText(a types.Alert) string {
	var sb strings.Builder
	if a.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", a.Description)
	}
	fmt.Fprintf(&sb, "Alert: %s\n", a.AlertName)
	fmt.Fprintf(&sb, "Cluster: %s\n", a.Cluster)
	fmt.Fprintf(&sb, "Namespace: %s\n", a.Namespace)
	fmt.Fprintf(&sb, "App: %s\n", a.App)
	fmt.Fprintf(&sb, "Resource: %s\n", a.ResourceName)
	fmt.Fprintf(&sb, "Node: %s\n", a.ResourceNode)
	fmt.Fprintf(&sb, "Priority: %s\n", a.Priority)
	fmt.Fprintf(&sb, "Started: %s", a.StartedAt.Format(time.RFC3339))
	return sb.String()
}

// RenderSetup is the output for a first launch that scaffolded a
// config template.
func RenderSetup(configPath string) []string {
	return []string{
		iconConfig,
		"---",
		fmt.Sprintf("Created default config at %s", configPath),
		"Please edit with your API credentials",
		fmt.Sprintf("Open config | href=file://%s", configPath),
	}
}

// RenderConfigError is the output when no usable configuration exists.
// The error is rendered, never raised: the process still exits 0 so
// the host shows this text instead of a generic failure.
func RenderConfigError(err error, configPath string) []string {
	return []string{
		iconConfig,
		"---",
		fmt.Sprintf("Configuration error | color=%s", errorColor),
		sanitize(err.Error()),
		fmt.Sprintf("Open config | href=file://%s", configPath),
	}
}

// sanitize collapses newlines and runs of whitespace so free-form
// backend text cannot break the line-based menu syntax.
func sanitize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences breaks a description at sentence boundaries so each
// sentence gets its own submenu line.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if (text[i] == '.' || text[i] == '!' || text[i] == '?') &&
			i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
