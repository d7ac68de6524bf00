package types

import (
	"fmt"
	"time"
)

// Alert is one unresolved alert, normalized from a backend record and
// tagged with the cluster it was fetched from.
type Alert struct {
	// ID is the global identifier used for cross-cycle diffing. It is
	// built from backend-provided fields at normalization time
	// (cluster:alert_name:namespace:resource_name:started_at) and is
	// never regenerated from parsed values, so it stays stable across
	// cycles.
	ID           string
	AlertName    string
	Title        string
	Description  string
	Source       string
	Priority     Priority
	StartedAt    time.Time
	Cluster      string
	Namespace    string
	App          string
	Kind         string
	ResourceName string
	ResourceNode string
	DashboardURL string
}

// GlobalID builds the cross-cycle identifier from raw backend fields.
// startedAt is the backend's timestamp string, used verbatim.
func GlobalID(cluster, alertName, namespace, resourceName, startedAt string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", cluster, alertName, namespace, resourceName, startedAt)
}

// Age returns how long the alert has been firing as of now.
func (a Alert) Age(now time.Time) time.Duration {
	if a.StartedAt.IsZero() {
		return 0
	}
	d := now.Sub(a.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// AgeString renders the age in the compact single-unit form used on
// menu lines (3d, 5h, 12m, 40s).
func (a Alert) AgeString(now time.Time) string {
	d := a.Age(now)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// Stale reports whether the alert has been firing longer than the
// configured stale threshold.
func (a Alert) Stale(now time.Time, threshold time.Duration) bool {
	return threshold > 0 && a.Age(now) > threshold
}

// FetchResult is the outcome of one cluster fetch: either a list of
// alerts or a classified error, never both.
type FetchResult struct {
	Cluster string
	Alerts  []Alert
	Err     error
}

// ChangeSet classifies the current alert set against the previous
// cycle's identifiers. Derived each cycle, never persisted.
type ChangeSet struct {
	New       []Alert
	Resolved  []string
	Unchanged []string
}
