// Package consumer runs the ingestion loop: tail, decode, normalize,
// route, store, report.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/feedsink/internal/metrics"
	"github.com/rcliao/feedsink/internal/normalize"
	"github.com/rcliao/feedsink/internal/route"
	"github.com/rcliao/feedsink/internal/store"
	"github.com/rcliao/feedsink/internal/tail"
)

// ErrStorage marks write or schema faults. They are unrecoverable for the
// run: partition integrity and stats cannot be trusted after a partial
// failure.
var ErrStorage = errors.New("storage fault")

// Consumer owns the poll/drain cycle for one live data file.
type Consumer struct {
	reader      *tail.Reader
	store       store.Store
	router      *route.Router
	reporter    *Reporter
	log         zerolog.Logger
	interval    time.Duration
	reportEvery int
	stored      int
}

// New wires a Consumer. reportEvery is the number of stored messages
// between analytics reports.
func New(reader *tail.Reader, st store.Store, logger zerolog.Logger, interval time.Duration, reportEvery int) *Consumer {
	if reportEvery <= 0 {
		reportEvery = 10
	}
	return &Consumer{
		reader:      reader,
		store:       st,
		router:      route.New(st),
		reporter:    NewReporter(st, logger),
		log:         logger,
		interval:    interval,
		reportEvery: reportEvery,
	}
}

// Stored returns the number of messages stored so far this run.
func (c *Consumer) Stored() int {
	return c.stored
}

// Run drains available lines, sleeps out the poll interval, and repeats
// until ctx is cancelled. Cancellation is observed between lines and
// produces one final analytics report before returning. Transport and
// storage faults end the run with an error.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().
		Dur("interval", c.interval).
		Int("report_every", c.reportEvery).
		Msg("consumer: starting")

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		if err := c.Drain(ctx); err != nil {
			return err
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.interval)

		select {
		case <-ctx.Done():
			return c.shutdown()
		case <-timer.C:
		}
	}
}

func (c *Consumer) shutdown() error {
	c.log.Info().Int("stored", c.stored).Msg("consumer: interrupted, emitting final report")
	reportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.reporter.Report(reportCtx, true); err != nil {
		c.log.Error().Err(err).Msg("consumer: final report failed")
	}
	return nil
}

// Drain consumes every complete line currently available, polling until a
// poll comes back empty.
func (c *Consumer) Drain(ctx context.Context) error {
	for {
		metrics.Polls.Inc()
		lines, err := c.reader.Poll()
		if err != nil {
			return err
		}
		metrics.CursorBytes.Set(float64(c.reader.Offset()))
		if len(lines) == 0 {
			return nil
		}
		for _, line := range lines {
			if ctx.Err() != nil {
				return nil
			}
			if err := c.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

// handleLine processes one delivered line. Decode and validation faults
// are logged and swallowed; the line was already consumed from the file.
// Storage faults escalate.
func (c *Consumer) handleLine(ctx context.Context, line string) error {
	metrics.LinesConsumed.Inc()

	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		metrics.DecodeErrors.Inc()
		c.log.Warn().Err(err).Str("line", prefix(line, 50)).Msg("consumer: dropping undecodable line")
		return nil
	}

	msg, err := normalize.Normalize(raw)
	if err != nil {
		field := "unknown"
		var rej *normalize.RejectError
		if errors.As(err, &rej) {
			field = rej.Field
		}
		metrics.Rejects.WithLabelValues(field).Inc()
		c.log.Warn().Err(err).Str("line", prefix(line, 50)).Msg("consumer: dropping invalid record")
		return nil
	}

	partition, err := c.router.Route(ctx, msg.Category)
	if err != nil {
		return fmt.Errorf("%w: route %q: %v", ErrStorage, msg.Category, err)
	}

	start := time.Now()
	if err := c.store.Insert(ctx, partition, msg); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", ErrStorage, partition, err)
	}
	metrics.InsertDuration.Observe(time.Since(start).Seconds())
	metrics.MessagesStored.Inc()
	c.stored++
	c.log.Debug().
		Str("category", msg.Category).
		Str("partition", partition).
		Int64("id", msg.ID).
		Msg("consumer: stored message")

	if c.stored%c.reportEvery == 0 {
		if err := c.reporter.Report(ctx, false); err != nil {
			c.log.Error().Err(err).Msg("consumer: analytics report failed")
		}
	}
	return nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
