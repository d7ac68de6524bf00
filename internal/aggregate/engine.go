// Package aggregate fans fetches out across all configured clusters
// and merges the partial results into one prioritized alert list.
package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/robustabar/robustabar/internal/config"
	"github.com/robustabar/robustabar/internal/types"
)

// Fetcher is one cluster's alert source.
type Fetcher interface {
	FetchUnresolved(ctx context.Context, lookback time.Duration) ([]types.Alert, error)
}

// FetcherFactory builds a Fetcher for a cluster config. Injected so
// tests can aggregate without a network.
type FetcherFactory func(config.ClusterConfig) Fetcher

// Result is one cycle's merged view across all clusters.
type Result struct {
	// Alerts is sorted: priority first, then oldest-unresolved first,
	// then cluster name and identifier for deterministic output.
	Alerts []types.Alert
	// Errors maps failing cluster names to their classified error. A
	// failing cluster contributes zero alerts, never aborts the cycle.
	Errors map[string]error
	// Highest is the most urgent priority present, used to pick the
	// summary icon. PriorityUnknown when Alerts is empty.
	Highest types.Priority
}

// Engine drives per-cluster fetches concurrently and merges results.
type Engine struct {
	log     zerolog.Logger
	factory FetcherFactory
}

// NewEngine creates an aggregation engine.
func NewEngine(log zerolog.Logger, factory FetcherFactory) *Engine {
	return &Engine{
		log:     log.With().Str("component", "aggregate").Logger(),
		factory: factory,
	}
}

// CycleTimeout bounds one whole cycle: the slowest cluster's timeout
// plus grace for joining, so a hung backend can never block the host
// runtime indefinitely.
func CycleTimeout(clusters []config.ClusterConfig) time.Duration {
	var max time.Duration
	for _, c := range clusters {
		if t := c.Timeout(); t > max {
			max = t
		}
	}
	if max == 0 {
		max = 30 * time.Second
	}
	return max + 15*time.Second
}

// Aggregate fetches every cluster concurrently and returns the merged,
// ordered view. Per-cluster failures are isolated into Result.Errors.
func (e *Engine) Aggregate(ctx context.Context, clusters []config.ClusterConfig, lookback time.Duration) Result {
	results := make(chan types.FetchResult, len(clusters))

	for _, cluster := range clusters {
		go func(cluster config.ClusterConfig) {
			fetchCtx, cancel := context.WithTimeout(ctx, cluster.Timeout())
			defer cancel()

			alerts, err := e.factory(cluster).FetchUnresolved(fetchCtx, lookback)
			results <- types.FetchResult{Cluster: cluster.Name, Alerts: alerts, Err: err}
		}(cluster)
	}

	res := Result{Errors: make(map[string]error)}
	for range clusters {
		r := <-results
		if r.Err != nil {
			e.log.Warn().Err(r.Err).Str("cluster", r.Cluster).Msg("cluster fetch failed")
			res.Errors[r.Cluster] = r.Err
			continue
		}
		e.log.Debug().Str("cluster", r.Cluster).Int("alerts", len(r.Alerts)).Msg("cluster fetched")
		res.Alerts = append(res.Alerts, r.Alerts...)
	}

	sortAlerts(res.Alerts)
	for _, a := range res.Alerts {
		if a.Priority > res.Highest {
			res.Highest = a.Priority
		}
	}
	return res
}

// sortAlerts orders by priority (critical first), then by ascending
// start time (oldest unresolved surfaces first), then cluster name and
// identifier as tie-breaks for reproducible output.
func sortAlerts(alerts []types.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		if a.Cluster != b.Cluster {
			return a.Cluster < b.Cluster
		}
		return a.ID < b.ID
	})
}
