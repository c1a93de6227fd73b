package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/matrixise/liquidation-tracker/internal/blockchain"
	"github.com/matrixise/liquidation-tracker/internal/config"
	"github.com/matrixise/liquidation-tracker/internal/feed"
	"github.com/matrixise/liquidation-tracker/internal/health"
	"github.com/matrixise/liquidation-tracker/internal/logger"
	"github.com/matrixise/liquidation-tracker/internal/oracle"
	"github.com/matrixise/liquidation-tracker/internal/pipeline"
	"github.com/matrixise/liquidation-tracker/internal/registry"
	"github.com/matrixise/liquidation-tracker/internal/scheduler"
	"github.com/matrixise/liquidation-tracker/internal/storage"
)

var (
	interval string
	once     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the liquidation tracker",
	Long:  `Scan the pool for LiquidationCall events, value them in USD, and persist results to PostgreSQL.`,
	RunE:  runTracker,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&interval, "interval", "", "scan interval - duration (5m, 1h) or cron (\"*/5 * * * *\") - empty for one-time run")
	runCmd.Flags().BoolVar(&once, "once", false, "run once and exit (default)")
}

// buildRegistry converts configured tokens into the static registry.
func buildRegistry(cfg *config.Config) *registry.Registry {
	tokens := make([]registry.Token, 0, len(cfg.Tokens))
	for _, tc := range cfg.Tokens {
		tok := registry.Token{
			Address:  common.HexToAddress(tc.Address),
			Symbol:   tc.Symbol,
			Decimals: tc.Decimals,
		}
		if tc.FallbackPrice > 0 {
			tok.FallbackPrice = decimal.NewFromFloat(tc.FallbackPrice)
		}
		tokens = append(tokens, tok)
	}
	return registry.New(tokens)
}

func runTracker(cmd *cobra.Command, args []string) error {
	// Setup logger (log-level from global flag)
	logger.Setup(logLevel)

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		slog.Info("Signal received, graceful shutdown", "signal", sig)
		cancel()
	}()

	// Load config
	cfg, databaseURL, err := config.LoadWithDefaults(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}

	// Override log level if set in config
	if cfg.LogLevel != "" {
		logger.Setup(cfg.LogLevel)
	}

	// Use interval from flag if provided, otherwise from config
	runInterval := interval
	if runInterval == "" && cfg.Interval != "" {
		runInterval = cfg.Interval
	}

	slog.Info("Configuration loaded",
		"config_path", cfgFile,
		"pool", cfg.PoolAddress,
		"oracle", cfg.OracleAddress,
		"start_block", cfg.StartBlock,
		"tokens", len(cfg.Tokens),
		"interval", runInterval,
	)

	// Connect to PostgreSQL
	store, err := storage.NewStore(ctx, databaseURL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		return err
	}
	defer store.Close()
	slog.Info("PostgreSQL connection established")

	// Apply pending migrations
	if err := storage.RunMigrations(ctx, databaseURL); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return err
	}

	// Connect to blockchain with failover support
	client, err := blockchain.NewClient(cfg.RPCUrls, common.HexToAddress(cfg.OracleAddress))
	if err != nil {
		slog.Error("Failed to connect to RPC", "error", err)
		return err
	}
	defer client.Close()

	if len(cfg.RPCUrls) == 1 {
		slog.Info("RPC connection established", "endpoint", cfg.RPCUrls[0])
	} else {
		slog.Info("RPC connection established with failover",
			"endpoints", len(cfg.RPCUrls),
			"primary", cfg.RPCUrls[0])
	}

	// Event log sinks
	eventLog, err := logger.OpenEventLog(cfg.LogDir)
	if err != nil {
		slog.Error("Failed to open event log", "error", err)
		return err
	}
	defer eventLog.Close()

	// Wire the pipeline: registry -> oracle -> valuation -> store -> sinks
	tokens := buildRegistry(cfg)
	resolver := oracle.NewResolver(client, tokens.Tokens())
	pipe := pipeline.New(tokens, resolver, store, eventLog)
	poller := feed.NewPoller(client, store, pipe, eventLog,
		common.HexToAddress(cfg.PoolAddress), cfg.StartBlock, cfg.ChunkSize)

	scan := func(scanCtx context.Context) error {
		n, err := poller.Poll(scanCtx)
		if err != nil {
			slog.Error("Scan failed", "error", err, "processed", n)
			return err
		}
		return nil
	}

	// Run mode: one-time or daemon
	if runInterval == "" || once {
		return scan(ctx)
	}

	// Daemon mode with scheduler
	slog.Info("Starting daemon mode with scheduler",
		"interval", runInterval,
		"timezone", cfg.GetTimezone().String(),
		"run_immediately", cfg.ShouldRunImmediately())

	schedulerCfg := scheduler.Config{
		Interval:       runInterval,
		Timezone:       cfg.GetTimezone(),
		RunImmediately: cfg.ShouldRunImmediately(),
		Logger:         slog.Default(),
	}

	// Job function that tracks execution status for the health checker
	var healthChecker *health.Checker
	jobFunc := func(jobCtx context.Context) error {
		err := scan(jobCtx)
		if healthChecker != nil {
			healthChecker.UpdateLastRun(err == nil)
		}
		return err
	}

	sched, err := scheduler.NewScheduler(ctx, schedulerCfg, jobFunc)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		return fmt.Errorf("scheduler creation failed: %w", err)
	}
	defer sched.Stop()

	expectedInterval, err := sched.GetExpectedInterval()
	if err != nil {
		// Conservative estimate for irregular cron expressions
		expectedInterval = 5 * time.Minute
		slog.Warn("Could not determine exact interval, using conservative estimate",
			"interval", expectedInterval)
	}

	healthChecker = health.NewChecker(store, client, feed.CheckpointName, expectedInterval)

	// Health check server (daemon mode only)
	httpPort := cfg.HTTPPort
	if httpPort == 0 {
		httpPort = 8080
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", httpPort),
		Handler: healthChecker.Router(),
	}

	go func() {
		slog.Info("Health check server starting", "port", httpPort, "endpoints", "/health /ready")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "error", err)
		}
	}()

	// Ensure HTTP server shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Health server shutdown error", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	slog.Info("Daemon mode started with clock-aligned scheduling")

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("Shutdown requested, stopping daemon")
	return nil
}
