package robusta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/robustabar/robustabar/internal/config"
	"github.com/robustabar/robustabar/internal/types"
)

// timestampLayout is the millisecond-precision UTC format the Robusta
// query API expects (2024-09-02T04:02:05.032Z).
const timestampLayout = "2006-01-02T15:04:05.000"

// startedAtLayouts are tried in order when parsing backend timestamps.
var startedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

// Client fetches unresolved alerts for a single cluster.
type Client struct {
	cfg  config.ClusterConfig
	http *http.Client
	log  zerolog.Logger
	now  func() time.Time
}

// NewClient creates a client bounded by the cluster's configured
// timeout.
func NewClient(cfg config.ClusterConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
		log:  log.With().Str("component", "robusta").Str("cluster", cfg.Name).Logger(),
		now:  time.Now,
	}
}

type reportItem struct {
	AggregationKey string `json:"aggregation_key"`
	AlertCount     int    `json:"alert_count"`
}

type rawAlert struct {
	AlertName          string  `json:"alert_name"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Source             string  `json:"source"`
	Priority           string  `json:"priority"`
	Severity           string  `json:"severity"`
	Level              string  `json:"level"`
	AlertSeverity      string  `json:"alert_severity"`
	AlertSeverityCamel string  `json:"alertSeverity"`
	StartedAt          string  `json:"started_at"`
	ResolvedAt         *string `json:"resolved_at"`
	Namespace          string  `json:"namespace"`
	App                string  `json:"app"`
	Kind               string  `json:"kind"`
	ResourceName       string  `json:"resource_name"`
	ResourceNode       string  `json:"resource_node"`
}

// FetchUnresolved fetches all unresolved alerts within the lookback
// window. The Robusta query API is two-step: an aggregation report
// first, then the alert records for each aggregation key.
func (c *Client) FetchUnresolved(ctx context.Context, lookback time.Duration) ([]types.Alert, error) {
	end := c.now().UTC()
	start := end.Add(-lookback)

	window := url.Values{
		"account_id": {c.cfg.AccountID},
		"start_ts":   {formatTimestamp(start)},
		"end_ts":     {formatTimestamp(end)},
	}

	var report []reportItem
	if err := c.getJSON(ctx, "/api/query/report", window, &report); err != nil {
		return nil, err
	}
	c.log.Debug().Int("aggregation_keys", len(report)).Msg("report fetched")

	var alerts []types.Alert
	for _, item := range report {
		if item.AggregationKey == "" {
			continue
		}

		params := url.Values{}
		for k, v := range window {
			params[k] = v
		}
		params.Set("alert_name", item.AggregationKey)

		var records []rawAlert
		if err := c.getJSON(ctx, "/api/query/alerts", params, &records); err != nil {
			// One bad aggregation key should not cost the cluster its
			// healthy alerts.
			c.log.Warn().Err(err).Str("aggregation_key", item.AggregationKey).Msg("skipping aggregation key")
			continue
		}

		for _, rec := range records {
			if rec.ResolvedAt != nil {
				continue
			}
			alerts = append(alerts, c.normalize(rec))
		}
	}

	c.log.Debug().Int("unresolved", len(alerts)).Msg("fetch complete")
	return alerts, nil
}

// getJSON issues one authenticated GET, classifies failures, and
// retries exactly once on a network-class failure. Auth failures are
// never retried.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	err := c.doJSON(ctx, endpoint, params, out)
	if err == nil {
		return nil
	}
	if KindOf(err) == FailureNetwork && ctx.Err() == nil {
		c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("retrying after network failure")
		if retryErr := c.doJSON(ctx, endpoint, params, out); retryErr == nil {
			return nil
		}
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &FetchError{Kind: FailureNetwork, Cluster: c.cfg.Name, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey.Value())
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("endpoint", endpoint).Str("account_id", c.cfg.AccountID).Msg("querying backend")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Kind: FailureNetwork, Cluster: c.cfg.Name, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return c.statusError(FailureAuth, endpoint, resp)
	case resp.StatusCode == http.StatusTooManyRequests:
		return c.statusError(FailureRateLimited, endpoint, resp)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return c.statusError(FailureNetwork, endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Kind: FailureMalformed, Cluster: c.cfg.Name, Endpoint: endpoint, Err: err}
	}
	return nil
}

func (c *Client) statusError(kind FailureKind, endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &FetchError{
		Kind:     kind,
		Cluster:  c.cfg.Name,
		Endpoint: endpoint,
		Status:   resp.StatusCode,
		Err:      fmt.Errorf("%s", strings.TrimSpace(string(body))),
	}
}

// normalize maps a raw backend record to a canonical Alert. The global
// identifier is built from the raw field values so it is stable across
// cycles regardless of local parsing.
func (c *Client) normalize(rec rawAlert) types.Alert {
	priority := firstNonEmpty(rec.Priority, rec.Severity, rec.Level, rec.AlertSeverity, rec.AlertSeverityCamel)
	if priority == "" {
		priority = "LOW"
	}

	startedAt, err := parseStartedAt(rec.StartedAt)
	if err != nil {
		c.log.Warn().Str("alert_name", rec.AlertName).Str("started_at", rec.StartedAt).Msg("unparsable started_at")
	}

	return types.Alert{
		ID:           types.GlobalID(c.cfg.Name, rec.AlertName, rec.Namespace, rec.ResourceName, rec.StartedAt),
		AlertName:    rec.AlertName,
		Title:        rec.Title,
		Description:  rec.Description,
		Source:       rec.Source,
		Priority:     types.ParsePriority(priority),
		StartedAt:    startedAt,
		Cluster:      c.cfg.Name,
		Namespace:    rec.Namespace,
		App:          rec.App,
		Kind:         rec.Kind,
		ResourceName: rec.ResourceName,
		ResourceNode: rec.ResourceNode,
		DashboardURL: dashboardLink(c.cfg.DashboardURL, rec.AlertName),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout) + "Z"
}

func parseStartedAt(s string) (time.Time, error) {
	for _, layout := range startedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// dashboardLink builds the platform graphs URL for an alert name, or
// "" when no dashboard is configured.
func dashboardLink(dashboardURL, alertName string) string {
	if dashboardURL == "" || alertName == "" {
		return ""
	}
	escaped := url.QueryEscape(`"` + alertName + `"`)
	return strings.TrimSuffix(dashboardURL, "/") +
		"/graphs?dates=21600&grouping=%22ALERT_NAME%22&events=%5B" + escaped + "%5D"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
