// Package metrics defines the consumer's Prometheus collectors and the
// optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	LinesConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsink_lines_consumed_total",
		Help: "Complete lines delivered by the tailing reader",
	})
	MessagesStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsink_messages_stored_total",
		Help: "Messages persisted to the master and partition tables",
	})
	DecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsink_decode_errors_total",
		Help: "Lines that failed JSON decoding",
	})
	Rejects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsink_rejects_total",
		Help: "Records dropped by validation",
	}, []string{"field"})
	Polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsink_polls_total",
		Help: "Poll attempts against the live data file",
	})
	CursorBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feedsink_cursor_bytes",
		Help: "Current byte offset into the live data file",
	})
	InsertDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedsink_insert_duration_seconds",
		Help:    "Time spent on the dual-write insert plus stats recompute",
		Buckets: prometheus.DefBuckets,
	})
)

var registerOnce sync.Once

// MustRegister registers all consumer collectors. Only the first call
// registers; repeated calls are no-ops instead of duplicate-registration
// panics.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			LinesConsumed,
			MessagesStored,
			DecodeErrors,
			Rejects,
			Polls,
			CursorBytes,
			InsertDuration,
		)
	})
}

// StartServer serves /metrics on addr until ctx is cancelled.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}
