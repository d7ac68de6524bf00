package types

import "strings"

// Priority is the severity level assigned to an alert by the backend.
// Higher values are more urgent.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityInfo
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// PriorityOrder lists priorities from most to least urgent, the fixed
// order used for grouping and notification breakdowns.
var PriorityOrder = []Priority{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
	PriorityInfo,
	PriorityUnknown,
}

// ParsePriority maps a backend priority string to a Priority.
// Matching is case-insensitive; unrecognized values parse to
// PriorityUnknown rather than an error so a backend schema drift
// degrades ordering, not the whole cycle.
func ParsePriority(s string) Priority {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return PriorityCritical
	case "HIGH":
		return PriorityHigh
	case "MEDIUM":
		return PriorityMedium
	case "LOW":
		return PriorityLow
	case "INFO":
		return PriorityInfo
	default:
		return PriorityUnknown
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	case PriorityInfo:
		return "INFO"
	default:
		return "unknown"
	}
}

// Symbol returns the menu glyph for the priority.
func (p Priority) Symbol() string {
	switch p {
	case PriorityCritical:
		return "✗"
	case PriorityHigh:
		return "⚠"
	case PriorityMedium:
		return "⊙"
	case PriorityLow:
		return "◦"
	case PriorityInfo:
		return "ℹ"
	default:
		return "⋯"
	}
}

// Color returns the menu hex color for the priority.
func (p Priority) Color() string {
	switch p {
	case PriorityCritical:
		return "#EF5B58"
	case PriorityHigh:
		return "#F3BA61"
	case PriorityMedium:
		return "#61D3E5"
	case PriorityLow:
		return "#39C988"
	default:
		return "#898989"
	}
}

// Label returns the single-letter abbreviation used in the menu bar
// summary (CRITICAL -> C, HIGH -> H, ...).
func (p Priority) Label() string {
	if p == PriorityUnknown {
		return "?"
	}
	return p.String()[:1]
}
