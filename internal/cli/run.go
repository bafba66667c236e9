package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rcliao/feedsink/internal/config"
	"github.com/rcliao/feedsink/internal/consumer"
	"github.com/rcliao/feedsink/internal/logging"
	"github.com/rcliao/feedsink/internal/metrics"
	"github.com/rcliao/feedsink/internal/store"
	"github.com/rcliao/feedsink/internal/tail"
)

// Exit codes, one per fault class, so a supervisor can tell bad config
// from a broken store from a vanished source file.
const (
	exitConfig        = 1
	exitReset         = 2
	exitInit          = 3
	exitSourceMissing = 10
	exitSourceRead    = 11
	exitStorage       = 12
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion daemon",
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runDaemon())
		},
	}
	RootCmd.AddCommand(cmd)
}

func runDaemon() int {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("error: load config: " + err.Error() + "\n")
		return exitConfig
	}

	logger := logging.New(cfg.AppEnv).With().
		Str("run_id", ulid.Make().String()).
		Logger()
	logger.Info().
		Str("live_data_file", cfg.LiveDataFile).
		Str("db_path", cfg.DBPath).
		Int("interval_secs", cfg.IntervalSecs).
		Msg("feedsink: starting run")

	// Fresh storage every run; the in-memory cursor starts at zero, so
	// leftover rows from a previous run would double-count.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(cfg.DBPath + suffix); err != nil && !os.IsNotExist(err) {
			logger.Error().Err(err).Msg("feedsink: failed to remove previous database")
			return exitReset
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error().Err(err).Msg("feedsink: failed to open store")
		return exitInit
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.ResetAll(ctx); err != nil {
		logger.Error().Err(err).Msg("feedsink: failed to initialize schema")
		return exitInit
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, logger, cfg.MetricsAddr)
	}

	reader := tail.New(cfg.LiveDataFile, logger)
	c := consumer.New(reader, st, logger, cfg.Interval(), cfg.ReportEvery)

	if err := c.Run(ctx); err != nil {
		switch {
		case errors.Is(err, tail.ErrSourceMissing):
			logger.Error().Err(err).Msg("feedsink: live data file missing")
			return exitSourceMissing
		case errors.Is(err, consumer.ErrStorage):
			logger.Error().Err(err).Msg("feedsink: storage fault")
			return exitStorage
		default:
			logger.Error().Err(err).Msg("feedsink: source read fault")
			return exitSourceRead
		}
	}

	logger.Info().Int("stored", c.Stored()).Msg("feedsink: run finished")
	return 0
}
