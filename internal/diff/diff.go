// Package diff classifies the current alert set against the previous
// cycle's identifiers and decides which changes warrant a user-visible
// notification.
package diff

import (
	"github.com/robustabar/robustabar/internal/types"
)

// Compute diffs the current alerts against the previous identifier
// set. New = current but not previous; Resolved = previous but not
// current; Unchanged = both. Resolved alerts only survive as
// identifiers since their records are no longer fetched.
func Compute(previous []string, current []types.Alert) types.ChangeSet {
	prevSet := make(map[string]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}

	currentSet := make(map[string]bool, len(current))
	var cs types.ChangeSet
	for _, a := range current {
		if currentSet[a.ID] {
			// Duplicate identifiers within one fetch collapse to one.
			continue
		}
		currentSet[a.ID] = true
		if prevSet[a.ID] {
			cs.Unchanged = append(cs.Unchanged, a.ID)
		} else {
			cs.New = append(cs.New, a)
		}
	}

	for _, id := range previous {
		if !currentSet[id] {
			cs.Resolved = append(cs.Resolved, id)
		}
	}
	return cs
}

// Identifiers returns the global identifiers of the current alert set,
// in order, deduplicated. This is what the state store persists at the
// end of the cycle.
func Identifiers(current []types.Alert) []string {
	seen := make(map[string]bool, len(current))
	ids := make([]string, 0, len(current))
	for _, a := range current {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		ids = append(ids, a.ID)
	}
	return ids
}

// NotifyPolicy decides which new alerts produce a notification.
type NotifyPolicy struct {
	// FirstRun marks a cycle with no previous state.
	FirstRun bool
	// NotifyOnFirstRun overrides the first-run storm suppression.
	NotifyOnFirstRun bool
	// MinPriority mutes new alerts below this priority. Critical and
	// High are never muted, whatever this is set to.
	MinPriority types.Priority
}

// Notifiable filters the new alerts down to those that should produce
// a notification under the policy.
func (p NotifyPolicy) Notifiable(newAlerts []types.Alert) []types.Alert {
	if p.FirstRun && !p.NotifyOnFirstRun {
		return nil
	}
	var out []types.Alert
	for _, a := range newAlerts {
		if a.Priority >= types.PriorityHigh || a.Priority >= p.MinPriority {
			out = append(out, a)
		}
	}
	return out
}
