package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/request-watch/internal/api"
	"github.com/JakeFAU/request-watch/internal/clock/system"
	"github.com/JakeFAU/request-watch/internal/config"
	"github.com/JakeFAU/request-watch/internal/id/uuid"
	"github.com/JakeFAU/request-watch/internal/notify/discord"
	"github.com/JakeFAU/request-watch/internal/scrape"
	statefile "github.com/JakeFAU/request-watch/internal/state/file"
	statemem "github.com/JakeFAU/request-watch/internal/state/memory"
	statesqlite "github.com/JakeFAU/request-watch/internal/state/sqlite"
	"github.com/JakeFAU/request-watch/internal/watch"
)

// newWatchCmd creates the 'watch' subcommand. One invocation executes a
// single run; --interval repeats runs on a ticker and serves the ops
// endpoint in between.
func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Runs the page watch pipeline",
		Long: `Fetches the watched page, extracts candidate requests, dedups them
against the persisted ledger, and delivers the new ones to the
configured webhook. With --interval the cycle repeats until the
process is signaled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchCommand(cmd, interval, dryRun)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat runs at this interval (0 = run once)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log messages instead of sending, leave the ledger untouched")
	return cmd
}

func runWatchCommand(cmd *cobra.Command, interval time.Duration, dryRun bool) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}

	pipeline, cleanup, err := buildPipeline(rt, dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval <= 0 {
		if err := pipeline.Run(ctx); err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}
		rt.logger.Info("Watch run finished")
		return nil
	}
	return runLoop(ctx, rt, pipeline, interval)
}

// runLoop executes runs on a ticker. A failed run is logged and the next
// tick proceeds from the last successfully persisted state.
func runLoop(ctx context.Context, rt *runtime, pipeline *watch.Pipeline, interval time.Duration) error {
	server := api.New(rt.cfg.Server.Port, rt.logger)
	go func() {
		if err := server.Start(ctx); err != nil {
			rt.logger.Error("Ops server failed", zap.Error(err))
		}
	}()

	rt.logger.Info("Watching on interval", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := pipeline.Run(ctx); err != nil {
		rt.logger.Error("Watch run failed", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			rt.logger.Info("Shutting down")
			return nil
		case <-ticker.C:
			if err := pipeline.Run(ctx); err != nil {
				rt.logger.Error("Watch run failed", zap.Error(err))
			}
		}
	}
}

func buildPipeline(rt *runtime, dryRun bool) (*watch.Pipeline, func(), error) {
	store, cleanup, err := buildStateStore(rt)
	if err != nil {
		return nil, nil, err
	}
	if dryRun {
		store = &readOnlyStore{inner: store}
	}

	var notifier watch.Notifier
	if dryRun {
		notifier = &loggingNotifier{logger: rt.logger}
	} else {
		notifier = discord.New(rt.cfg.Notify.WebhookURL, rt.cfg.Notify.Timeout, rt.logger)
	}

	scraper, err := scrape.New(scrape.Config{
		PageURL:         rt.cfg.Watch.PageURL,
		UserAgent:       rt.cfg.Scrape.UserAgent,
		Timeout:         rt.cfg.Scrape.Timeout,
		RenderEnabled:   rt.cfg.Scrape.RenderEnabled,
		RenderTimeout:   rt.cfg.Scrape.RenderTimeout,
		MaxItems:        rt.cfg.Watch.MaxItems,
		SectionSelector: rt.cfg.Watch.SectionSelector,
		Keywords:        rt.cfg.Watch.Keywords,
		MinHTMLBytes:    rt.cfg.Scrape.MinHTMLBytes,
	}, rt.logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("init scraper: %w", err)
	}

	pipeline := watch.New(
		store,
		scraper,
		notifier,
		system.New(),
		uuid.New(),
		watch.Config{
			FirstRun:    rt.cfg.Watch.FirstRun,
			SeedIfEmpty: rt.cfg.Watch.SeedIfEmpty,
			LedgerTTL:   rt.cfg.Ledger.TTL,
			SendDelay:   rt.cfg.Notify.Delay,
		},
		rt.logger,
	)
	return pipeline, cleanup, nil
}

func buildStateStore(rt *runtime) (watch.StateStore, func(), error) {
	switch rt.cfg.State.Provider {
	case config.StateProviderFile:
		store, err := statefile.New(rt.cfg.State.Dir, rt.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init file state store: %w", err)
		}
		rt.logger.Info("Using file state store", zap.String("path", store.Path()))
		return store, func() {}, nil
	case config.StateProviderSQLite:
		store, err := statesqlite.New(rt.cfg.State.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite state store: %w", err)
		}
		rt.logger.Info("Using sqlite state store", zap.String("path", rt.cfg.State.SQLitePath))
		return store, func() {
			if err := store.Close(); err != nil {
				rt.logger.Warn("Error closing sqlite store", zap.Error(err))
			}
		}, nil
	case config.StateProviderMemory:
		rt.logger.Info("Using memory state store; dedup will not survive this process")
		return statemem.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown state provider: %s", rt.cfg.State.Provider)
	}
}

// readOnlyStore loads real state but drops writes, so dry runs see true
// seen-ness without mutating the ledger.
type readOnlyStore struct {
	inner watch.StateStore
}

func (s *readOnlyStore) Load(ctx context.Context) (watch.State, error) {
	return s.inner.Load(ctx)
}

func (s *readOnlyStore) Save(context.Context, watch.State) error {
	return nil
}

// loggingNotifier prints would-be messages instead of delivering them.
type loggingNotifier struct {
	logger *zap.Logger
}

func (n *loggingNotifier) Send(_ context.Context, text string) error {
	n.logger.Info("Dry run: would send message", zap.String("text", text))
	return nil
}
