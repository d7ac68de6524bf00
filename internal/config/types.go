package config

import (
	"time"

	"github.com/robustabar/robustabar/internal/types"
)

// Secret is a string that never leaks through formatting or
// re-serialization. The raw value is only reachable via Value().
type Secret string

// String masks the secret for %s/%v formatting and log output.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "<secret>"
}

// MarshalYAML masks the secret when config is re-serialized.
func (s Secret) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

// Config is the complete robustabar configuration.
type Config struct {
	Clusters []ClusterConfig `yaml:"clusters"`
	Display  DisplayConfig   `yaml:"display"`
}

// ClusterConfig defines one Robusta-monitored cluster to poll.
type ClusterConfig struct {
	Name           string `yaml:"name"`
	AccountID      string `yaml:"account_id"`
	APIKey         Secret `yaml:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout,omitempty"`
	DashboardURL   string `yaml:"dashboard_url,omitempty"`
}

// Timeout returns the per-cluster fetch bound.
func (c ClusterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DisplayConfig defines rendering and notification behavior.
type DisplayConfig struct {
	ShowClusterInTitle bool `yaml:"show_cluster_in_title"`
	ShowAge            bool `yaml:"show_age"`
	ShowNamespace      bool `yaml:"show_namespace"`
	StaleAlertHours    int  `yaml:"stale_alert_hours"`
	// RefreshIntervalMinutes is informational only: the host runtime
	// controls scheduling through the plugin filename.
	RefreshIntervalMinutes int  `yaml:"refresh_interval_minutes"`
	Debug                  bool `yaml:"debug"`
	// NotifyOnFirstRun enables "new alert" notifications on a cycle
	// with no previous state. Off by default to avoid a notification
	// storm on first launch.
	NotifyOnFirstRun bool `yaml:"notify_on_first_run"`
	// NotifyMinPriority mutes "new alert" notifications below this
	// priority. Critical and High always notify.
	NotifyMinPriority string `yaml:"notify_min_priority"`
}

// StaleThreshold returns the stale-alert cutoff as a duration.
func (d DisplayConfig) StaleThreshold() time.Duration {
	return time.Duration(d.StaleAlertHours) * time.Hour
}

// MinPriority parses NotifyMinPriority; unknown values fall back to
// notify-everything.
func (d DisplayConfig) MinPriority() types.Priority {
	p := types.ParsePriority(d.NotifyMinPriority)
	if p == types.PriorityUnknown {
		return types.PriorityInfo
	}
	return p
}

// DefaultDisplay returns the display defaults applied before unmarshal
// so omitted keys keep their documented values.
func DefaultDisplay() DisplayConfig {
	return DisplayConfig{
		ShowClusterInTitle:     true,
		ShowAge:                true,
		ShowNamespace:          true,
		StaleAlertHours:        24,
		RefreshIntervalMinutes: 5,
		NotifyMinPriority:      "info",
	}
}
