// Package store provides the categorized message storage interface and
// SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/feedsink/internal/model"
)

// Store defines the storage engine contract.
type Store interface {
	// ResetAll destroys and recreates the master, partition, and stats
	// schema. Called once at process start, never mid-run.
	ResetAll(ctx context.Context) error

	// EnsurePartition idempotently creates the partition table for a
	// category identifier, with an index on timestamp.
	EnsurePartition(ctx context.Context, id string) error

	// Insert appends the message to the master table and to its
	// category partition in one transaction, then recomputes that
	// category's stats row. Both writes land or neither does.
	Insert(ctx context.Context, partition string, msg *model.Message) error

	// CategorySummary returns one row per category with at least one
	// message, ordered by message count descending, category ascending.
	CategorySummary(ctx context.Context) ([]model.CategorySummary, error)

	// StatsFor returns the stats row for one category.
	StatsFor(ctx context.Context, category string) (*model.CategoryStats, error)

	// Close closes the store.
	Close() error
}
