package store

import (
	"context"
	"time"
)

// Store defines the snapshot persistence contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, pipelineID string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error)

	// Prune deletes snapshots older than the cutoff and returns the count.
	Prune(ctx context.Context, pipelineID string, before time.Time) (int64, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
