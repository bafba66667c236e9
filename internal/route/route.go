// Package route maps category labels onto storage partitions.
package route

import (
	"context"
	"fmt"
	"strings"
)

// PartitionEnsurer is the slice of the storage engine the router needs.
type PartitionEnsurer interface {
	EnsurePartition(ctx context.Context, id string) error
}

// PartitionID derives the stable partition identifier for a category
// label: lower-cased, with each space and hyphen replaced by an
// underscore. Nothing else is altered; "Meme!" stays "meme!". This is a
// deliberately narrow transform, not slugification.
func PartitionID(category string) string {
	id := strings.ReplaceAll(category, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	return strings.ToLower(id)
}

// Router hands out partition identifiers, ensuring each partition exists
// in storage before its first use. Ensured partitions are cached so the
// schema round-trip happens once per category per run.
type Router struct {
	store   PartitionEnsurer
	ensured map[string]struct{}
}

// New returns a Router backed by the given storage engine.
func New(store PartitionEnsurer) *Router {
	return &Router{
		store:   store,
		ensured: make(map[string]struct{}),
	}
}

// Route returns the partition identifier for a category label, creating
// the partition on first sight.
func (r *Router) Route(ctx context.Context, category string) (string, error) {
	id := PartitionID(category)
	if _, ok := r.ensured[id]; ok {
		return id, nil
	}
	if err := r.store.EnsurePartition(ctx, id); err != nil {
		return "", fmt.Errorf("ensure partition %s: %w", id, err)
	}
	r.ensured[id] = struct{}{}
	return id, nil
}
