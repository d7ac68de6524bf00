package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robustabar/robustabar/internal/aggregate"
	"github.com/robustabar/robustabar/internal/config"
	"github.com/robustabar/robustabar/internal/diff"
	"github.com/robustabar/robustabar/internal/menu"
	"github.com/robustabar/robustabar/internal/notify"
	"github.com/robustabar/robustabar/internal/robusta"
	"github.com/robustabar/robustabar/internal/state"
	"github.com/robustabar/robustabar/internal/version"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:           "robustabar",
		Short:         "SwiftBar/xbar menu for unresolved Robusta alerts across clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// One cycle, always exit 0: a nonzero exit would make the
			// host render a generic error instead of our output.
			runCycle(configPath, debug)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.config/robustabar/config.yml)")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose diagnostics on stderr")
	cmd.AddCommand(newCopyCmd(), newVersionCmd())
	return cmd
}

// runCycle is the whole batch pipeline: fetch all clusters, diff
// against the previous cycle, notify, persist, render. stdout carries
// only menu lines; all logging goes to stderr.
func runCycle(configPath string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("version", version.Version).
		Logger()

	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			emit(menu.RenderConfigError(err, ""))
			return
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNotFound) {
		if werr := config.WriteTemplate(configPath); werr != nil {
			emit(menu.RenderConfigError(werr, configPath))
			return
		}
		emit(menu.RenderSetup(configPath))
		return
	}
	if err != nil {
		emit(menu.RenderConfigError(err, configPath))
		return
	}

	if debug || cfg.Display.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger.Debug().Int("clusters", len(cfg.Clusters)).Str("config", configPath).Msg("cycle started")

	engine := aggregate.NewEngine(logger, func(c config.ClusterConfig) aggregate.Fetcher {
		return robusta.NewClient(c, logger)
	})

	ctx, cancel := context.WithTimeout(context.Background(), aggregate.CycleTimeout(cfg.Clusters))
	defer cancel()
	res := engine.Aggregate(ctx, cfg.Clusters, cfg.Display.StaleThreshold())

	// Cross-cycle memory: previous identifiers in, current out.
	prev := state.Previous{FirstRun: true}
	var store *state.Store
	if statePath, serr := state.DefaultPath(); serr != nil {
		logger.Warn().Err(serr).Msg("state path unresolvable, diffing disabled for this cycle")
	} else {
		store = state.NewStore(statePath, logger)
		prev = store.Load()
	}

	cs := diff.Compute(prev.Identifiers, res.Alerts)

	policy := diff.NotifyPolicy{
		FirstRun:         prev.FirstRun,
		NotifyOnFirstRun: cfg.Display.NotifyOnFirstRun,
		MinPriority:      cfg.Display.MinPriority(),
	}
	notify.Dispatch(notify.NewSender(logger), logger, policy.Notifiable(cs.New), len(cs.Resolved))

	if store != nil {
		if err := store.Save(diff.Identifiers(res.Alerts), time.Now()); err != nil {
			logger.Error().Err(err).Msg("failed to persist cycle state")
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = "robustabar"
	}
	builder := menu.NewBuilder(cfg.Display, execPath, configPath, time.Now())
	emit(builder.Render(res.Alerts, res.Errors, cs))

	logger.Debug().
		Int("alerts", len(res.Alerts)).
		Int("new", len(cs.New)).
		Int("resolved", len(cs.Resolved)).
		Int("failed_clusters", len(res.Errors)).
		Msg("cycle complete")
}

func emit(lines []string) {
	fmt.Println(strings.Join(lines, "\n"))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("robustabar " + version.Full())
		},
	}
}
