package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/xbdealworker/config"
	"sjsage522/xbdealworker/helpers"
	"sjsage522/xbdealworker/internal"
	"sjsage522/xbdealworker/internal/aggregator"
	"sjsage522/xbdealworker/internal/crawler"
	"sjsage522/xbdealworker/logger"
	"sjsage522/xbdealworker/services/cache"
	"sjsage522/xbdealworker/services/sink"
	"sjsage522/xbdealworker/services/worker"
)

type flags struct {
	categories string
	sort       string
	sink       string
	dryRun     bool
	interval   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "xbdealworker",
		Short:        "xbdealworker collects Microsoft Store PC game deals and publishes them as a worksheet.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.categories, "categories", "", "comma separated listing categories (overrides CATEGORIES)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "row order: deal, launch or discount (overrides SORT_MODE)")
	cmd.Flags().StringVar(&f.sink, "sink", "", "output sink: table, redis or sql (overrides SINK)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "render the worksheet to stdout instead of publishing")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "repeat the run at this interval until interrupted")
	return cmd
}

func run(parent context.Context, f *flags) error {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	cfg := config.LoadConfig()
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts, err := crawler.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Strs("categories", cfg.Categories).
		Str("sink", cfg.Sink).
		Msg("Starting application")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer deps.Cleanup()

	w := worker.NewWorker(
		crawler.NewCrawlController(deps.Fetcher, opts),
		deps.Sink,
		worker.Options{
			Categories:    cfg.Categories,
			Worksheet:     cfg.Worksheet,
			MetaWorksheet: cfg.MetaWorksheet,
			CountMeta:     cfg.MetaCountMode == "count",
			Aggregate:     aggregator.OptionsFromConfig(cfg),
		},
	)

	if f.interval > 0 {
		log.Info().Dur("interval", f.interval).Msg("Starting deal worker loop")
		w.Start(ctx, f.interval)
		log.Info().Msg("Shutting down gracefully...")
		return nil
	}

	if _, err := w.Run(ctx); err != nil {
		return err
	}
	return nil
}

func applyFlags(cfg *config.Config, f *flags) {
	if f.categories != "" {
		cfg.Categories = config.SplitList(f.categories)
	}
	if f.sort != "" {
		cfg.SortMode = f.sort
	}
	if f.sink != "" {
		cfg.Sink = f.sink
	}
	if f.dryRun {
		cfg.Sink = "table"
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, time.Second)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Msg("Memcache unavailable, rate limit blocks are not shared")
		} else {
			deps.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	deps.Fetcher = &crawler.GuardedFetcher{
		Fetcher:   helpers.NewClient(cfg.HTTPTimeout, cfg.ProxyURL),
		CacheSvc:  deps.Cache,
		BlockTime: cfg.BlockTime,
	}

	s, err := sink.New(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	deps.Sink = s
	return deps, nil
}
