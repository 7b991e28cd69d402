// Package store defines the graph-import contract: idempotent upsert of
// nodes and edges into a property-graph store, index management and
// readiness probing with bounded backoff.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/twingraph/pkg/graph"
)

// ErrConnectionFailure is returned when the graph store does not become
// reachable within the configured window.
var ErrConnectionFailure = errors.New("graph store unreachable")

// Config carries the store connection settings. It is read once at startup
// and threaded explicitly into constructors; nothing in the engine reads
// ambient environment state.
type Config struct {
	// URI is the store connection string.
	URI string
	// User and Password override the credentials embedded in the URI when
	// set.
	User     string
	Password string
	// ReadyWindow bounds how long WaitReady polls before giving up.
	ReadyWindow time.Duration
}

// ImportStats counts the effect of one import: nodes and edges that were
// newly created versus updated in place.
type ImportStats struct {
	NodesCreated int64 `json:"nodesCreated"`
	NodesUpdated int64 `json:"nodesUpdated"`
	EdgesCreated int64 `json:"edgesCreated"`
	EdgesUpdated int64 `json:"edgesUpdated"`
}

// Add accumulates another import's counts.
func (s *ImportStats) Add(other ImportStats) {
	s.NodesCreated += other.NodesCreated
	s.NodesUpdated += other.NodesUpdated
	s.EdgesCreated += other.EdgesCreated
	s.EdgesUpdated += other.EdgesUpdated
}

// GraphStore persists import batches. Implementations must upsert nodes by
// id and edges by (from, to, type) inside one transaction per batch, so a
// failed import leaves nothing partially committed.
type GraphStore interface {
	// ImportBatch upserts every node and edge of the batch atomically.
	ImportBatch(ctx context.Context, batch *graph.Batch) (ImportStats, error)
	// EnsureIndexes idempotently creates the supporting indexes.
	EnsureIndexes(ctx context.Context) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// WaitReady polls the store until it answers, backing off exponentially
// between attempts. The wait is bounded by window (or the context,
// whichever ends first); exhaustion returns ErrConnectionFailure wrapping
// the last probe error.
func WaitReady(ctx context.Context, s GraphStore, window time.Duration) error {
	deadline := time.Now().Add(window)
	backoff := 250 * time.Millisecond
	const maxBackoff = 5 * time.Second

	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = s.Ping(ctx)
		if lastErr == nil {
			return nil
		}
		if time.Now().Add(backoff).After(deadline) {
			return fmt.Errorf("%w: %v", ErrConnectionFailure, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
