package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/marketscan/internal/analysis"
	"github.com/aristath/marketscan/internal/clients/chart"
	"github.com/aristath/marketscan/internal/clients/eodhd"
	"github.com/aristath/marketscan/internal/config"
	"github.com/aristath/marketscan/internal/database"
	"github.com/aristath/marketscan/internal/marketdata"
	"github.com/aristath/marketscan/internal/metrics"
	"github.com/aristath/marketscan/internal/notify"
	"github.com/aristath/marketscan/internal/report"
	"github.com/aristath/marketscan/internal/scheduler"
	"github.com/aristath/marketscan/internal/server"
	"github.com/aristath/marketscan/pkg/logger"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "marketscan",
		Short: "Daily end-of-day market analysis engine",
		Long: "marketscan fetches daily bars for a configured universe, derives\n" +
			"technical indicators, scores each symbol on four factors, classifies\n" +
			"the market regime and emits a structured report.",
		SilenceUsage: true,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newUniverseCmd())
	return root
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *database.DB
	svc      *analysis.Service
	store    *analysis.Store
	daily    *scheduler.DailyAnalysisJob
	runs     *database.RunRepository
	writer   *report.Writer
	universe *config.Universe
}

// bootstrap loads config and wires the pipeline, in the same order the
// pieces depend on each other: logger, config, database, clients,
// acquisition, analysis, sinks.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	universe, err := config.LoadUniverse(cfg.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load universe: %w", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	cache, err := database.NewBarCache(cfg.BarCachePath, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	chartClient := chart.New(chart.Config{
		BaseURL:    cfg.ChartBaseURL,
		Timeout:    cfg.Fetch.Timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
	}, log)

	market := marketdata.NewService(marketdata.ServiceConfig{
		Fetch:     cfg.Fetch,
		MinRows:   cfg.Analysis.MinRequiredRows,
		VIXTicker: cfg.Analysis.VIXTicker,
		Session:   marketdata.NewSession(),
		Chart:     chartClient,
		NewEODHD: func() marketdata.Provider {
			return eodhd.New(eodhd.Config{
				BaseURL:         cfg.EODHDBaseURL,
				Token:           cfg.EODHDToken,
				Timeout:         cfg.Fetch.Timeout,
				RequestDelayMin: cfg.Fetch.RequestDelayMin,
				RequestDelayMax: cfg.Fetch.RequestDelayMax,
				MaxRetries:      cfg.Fetch.MaxRetries,
				RateLimitWait:   cfg.Fetch.RateLimitWait,
			}, log)
		},
		Cache:   cache,
		Metrics: m,
		Log:     log,
	})

	svc := analysis.NewService(analysis.ServiceConfig{
		Config:   cfg,
		Universe: universe,
		Market:   market,
		Metrics:  m,
		Log:      log,
	})

	store := analysis.NewStore()
	runs := database.NewRunRepository(db)

	var writer *report.Writer
	if cfg.SaveReports {
		writer = report.NewWriter(cfg.OutputDir, log)
	}

	notifierToken := cfg.TelegramBotToken
	if !cfg.SendTelegram {
		notifierToken = ""
	}
	notifier := notify.New(notifierToken, cfg.TelegramChatID, log)
	if cfg.SendTelegram && !cfg.TelegramConfigured() {
		log.Warn().Msg("Telegram secrets missing, notifications disabled")
	}

	daily := scheduler.NewDailyAnalysisJob(svc, store, runs, writer, notifier, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		svc:      svc,
		store:    store,
		daily:    daily,
		runs:     runs,
		writer:   writer,
		universe: universe,
	}, nil
}

func newScanCmd() *cobra.Command {
	var skipNotify bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one analysis now and write the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.db.Close()

			if skipNotify {
				a.daily = scheduler.NewDailyAnalysisJob(
					a.svc, a.store, a.runs, a.writer,
					notify.New("", "", a.log), a.log)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.daily.Run(ctx); err != nil {
				return err
			}

			result := a.store.Latest()
			a.log.Info().
				Str("analysis_date", result.Metadata.AnalysisDate).
				Int("instruments", result.Metadata.InstrumentsAnalyzed).
				Str("condition", result.MarketRegime.MarketCondition).
				Msg("Scan finished")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNotify, "skip-notify", false, "skip the Telegram summary")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.db.Close()

			sched := scheduler.New(2*time.Hour, a.log)
			if err := sched.AddJob(a.cfg.AnalysisSchedule, a.daily); err != nil {
				return fmt.Errorf("failed to register analysis job: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			srv := server.New(server.Config{
				Port:      a.cfg.Port,
				Version:   a.cfg.Version,
				Log:       a.log,
				Store:     a.store,
				Runs:      a.runs,
				Scheduler: sched,
				Job:       a.daily,
				DevMode:   a.cfg.DevMode,
			})

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Fatal().Err(err).Msg("Failed to start server")
				}
			}()

			a.log.Info().Int("port", a.cfg.Port).Msg("Server started successfully")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			a.log.Info().Msg("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.log.Error().Err(err).Msg("Server forced to shutdown")
			}
			return nil
		},
	}
}

func newUniverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "universe",
		Short: "Print the resolved universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			universe, err := config.LoadUniverse(cfg.UniverseFile)
			if err != nil {
				return err
			}

			for i, sym := range universe.Symbols {
				fmt.Printf("%2d  %-6s  %-32s  %-14s  benchmark=%s\n",
					i+1, sym.Ticker, sym.Name, sym.Category, sym.Benchmark)
			}
			return nil
		},
	}
}
