package consumer

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rcliao/feedsink/internal/model"
)

// SummarySource is the slice of the storage engine the reporter reads.
type SummarySource interface {
	CategorySummary(ctx context.Context) ([]model.CategorySummary, error)
}

// Reporter emits the per-category analytics summary.
type Reporter struct {
	store SummarySource
	log   zerolog.Logger
}

// NewReporter returns a Reporter reading from the given store.
func NewReporter(store SummarySource, logger zerolog.Logger) *Reporter {
	return &Reporter{store: store, log: logger}
}

// Report logs one line per category. The mean sentiment is rounded to two
// decimals for display; the stored value keeps full precision. The final
// report (on shutdown) also carries each category's most recent timestamp.
func (r *Reporter) Report(ctx context.Context, final bool) error {
	summary, err := r.store.CategorySummary(ctx)
	if err != nil {
		return fmt.Errorf("category summary: %w", err)
	}

	kind := "analytics: category summary"
	if final {
		kind = "analytics: final category summary"
	}
	for _, row := range summary {
		evt := r.log.Info().
			Str("category", row.Category).
			Int("messages", row.MessageCount).
			Float64("avg_sentiment", round2(row.AvgSentiment)).
			Int("unique_authors", row.UniqueAuthors)
		if final {
			evt = evt.Str("latest", row.LatestTimestamp)
		}
		evt.Msg(kind)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
