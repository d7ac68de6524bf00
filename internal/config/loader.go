package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL        = "https://api.robusta.dev"
	defaultTimeoutSeconds = 30
)

// ErrNotFound indicates the config file does not exist yet.
var ErrNotFound = errors.New("config file not found")

// DefaultPath returns the config file location, honoring the
// ROBUSTABAR_CONFIG override.
func DefaultPath() (string, error) {
	if p := os.Getenv("ROBUSTABAR_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "robustabar", "config.yml"), nil
}

// Load reads, defaults and validates the configuration at path.
// A missing file returns ErrNotFound so the caller can scaffold a
// template instead of failing opaquely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{Display: DefaultDisplay()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Per-cluster defaults
	for i := range cfg.Clusters {
		if cfg.Clusters[i].BaseURL == "" {
			cfg.Clusters[i].BaseURL = defaultBaseURL
		}
		if cfg.Clusters[i].TimeoutSeconds == 0 {
			cfg.Clusters[i].TimeoutSeconds = defaultTimeoutSeconds
		}
	}
	if cfg.Display.StaleAlertHours <= 0 {
		cfg.Display.StaleAlertHours = 24
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for per-cluster completeness.
func Validate(cfg *Config) error {
	if len(cfg.Clusters) == 0 {
		return fmt.Errorf("no clusters configured")
	}

	seen := make(map[string]bool, len(cfg.Clusters))
	for i, cluster := range cfg.Clusters {
		if cluster.Name == "" {
			return fmt.Errorf("cluster %d: name is required", i)
		}
		if seen[cluster.Name] {
			return fmt.Errorf("cluster %s: duplicate name", cluster.Name)
		}
		seen[cluster.Name] = true

		if cluster.AccountID == "" {
			return fmt.Errorf("cluster %s: account_id is required", cluster.Name)
		}
		if cluster.APIKey == "" {
			return fmt.Errorf("cluster %s: api_key is required", cluster.Name)
		}
		if cluster.TimeoutSeconds < 0 {
			return fmt.Errorf("cluster %s: timeout must be positive", cluster.Name)
		}
	}
	return nil
}

// WriteTemplate creates a commented starter config at path so a first
// launch leaves the user something to edit rather than a bare error.
func WriteTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

const configTemplate = `# robustabar configuration
clusters:
  - name: prod-cluster-1
    account_id: YOUR_ACCOUNT_ID_1
    api_key: YOUR_API_KEY_1
    base_url: https://api.robusta.dev
    timeout: 10
    # dashboard_url: https://platform.robusta.dev
  - name: staging-cluster
    account_id: YOUR_ACCOUNT_ID_2
    api_key: YOUR_API_KEY_2
    base_url: https://api.robusta.dev
    timeout: 10

display:
  show_cluster_in_title: true
  show_age: true
  show_namespace: true
  stale_alert_hours: 24
  refresh_interval_minutes: 5
  debug: false
  notify_on_first_run: false
  notify_min_priority: info
`
