package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/strevlab/pipeview/pkg/dag"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Snapshots ---

func (s *LibSQLStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		return dag.NewError(dag.ErrCodeStore, "snapshot id is required")
	}
	if snap.PipelineID == "" {
		return dag.NewError(dag.ErrCodeStore, "snapshot pipeline_id is required")
	}
	if snap.Fingerprint == "" {
		snap.Fingerprint = Fingerprint(snap.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, pipeline_id, payload, node_count, edge_count, fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.PipelineID, string(snap.Payload),
		snap.NodeCount, snap.EdgeCount, snap.Fingerprint, timeOrNow(snap.CreatedAt),
	)
	if err != nil {
		return dag.NewErrorf(dag.ErrCodeStore, "failed to save snapshot %s", snap.ID).WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline_id, payload, node_count, edge_count, fingerprint, created_at
		 FROM snapshots WHERE id = ?`, id,
	)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("snapshot", id)
	}
	return snap, err
}

func (s *LibSQLStore) LatestSnapshot(ctx context.Context, pipelineID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pipeline_id, payload, node_count, edge_count, fingerprint, created_at
		 FROM snapshots WHERE pipeline_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, pipelineID,
	)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("snapshot for pipeline", pipelineID)
	}
	return snap, err
}

func (s *LibSQLStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error) {
	var where []string
	var args []any

	if filter.PipelineID != "" {
		where = append(where, "pipeline_id = ?")
		args = append(args, filter.PipelineID)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *filter.Since)
	}

	query := `SELECT id, pipeline_id, payload, node_count, edge_count, fingerprint, created_at FROM snapshots`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dag.NewError(dag.ErrCodeStore, "failed to list snapshots").WithCause(err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *LibSQLStore) Prune(ctx context.Context, pipelineID string, before time.Time) (int64, error) {
	query := `DELETE FROM snapshots WHERE created_at < ?`
	args := []any{before}
	if pipelineID != "" {
		query += ` AND pipeline_id = ?`
		args = append(args, pipelineID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dag.NewError(dag.ErrCodeStore, "failed to prune snapshots").WithCause(err)
	}
	return res.RowsAffected()
}

// --- Helpers ---

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	snap := &Snapshot{}
	var payload string
	if err := row.Scan(&snap.ID, &snap.PipelineID, &payload,
		&snap.NodeCount, &snap.EdgeCount, &snap.Fingerprint, &snap.CreatedAt); err != nil {
		return nil, err
	}
	snap.Payload = []byte(payload)
	return snap, nil
}

func storeNotFound(resource, id string) *dag.Error {
	return dag.NewErrorf(dag.ErrCodeNotFound, "%s %q not found", resource, id)
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
