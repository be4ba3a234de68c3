package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strevlab/pipeview/pkg/dag"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testSnapshot(pipelineID string) *Snapshot {
	payload := json.RawMessage(`{"nodes":[{"id":"a","status":"PENDING"}],"edges":[]}`)
	return &Snapshot{
		ID:         uuid.New().String(),
		PipelineID: pipelineID,
		Payload:    payload,
		NodeCount:  1,
		EdgeCount:  0,
	}
}

func TestSaveAndGetSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("pl-1")
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	got, err := s.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, "pl-1", got.PipelineID)
	assert.JSONEq(t, string(snap.Payload), string(got.Payload))
	assert.Equal(t, 1, got.NodeCount)
	assert.Equal(t, Fingerprint(snap.Payload), got.Fingerprint)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetSnapshotNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSnapshot(context.Background(), "missing")
	require.Error(t, err)

	var derr *dag.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dag.ErrCodeNotFound, derr.Code)
}

func TestSaveSnapshotRequiresIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("pl-1")
	snap.ID = ""
	assert.Error(t, s.SaveSnapshot(ctx, snap))

	snap = testSnapshot("")
	assert.Error(t, s.SaveSnapshot(ctx, snap))
}

func TestLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testSnapshot("pl-1")
	old.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.SaveSnapshot(ctx, old))

	newer := testSnapshot("pl-1")
	require.NoError(t, s.SaveSnapshot(ctx, newer))

	other := testSnapshot("pl-2")
	require.NoError(t, s.SaveSnapshot(ctx, other))

	got, err := s.LatestSnapshot(ctx, "pl-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestLatestSnapshotNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestSnapshot(context.Background(), "pl-none")
	require.Error(t, err)

	var derr *dag.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dag.ErrCodeNotFound, derr.Code)
}

func TestListSnapshotsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		snap := testSnapshot("pl-1")
		snap.CreatedAt = time.Now().UTC().Add(time.Duration(-i) * time.Hour)
		require.NoError(t, s.SaveSnapshot(ctx, snap))
	}
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("pl-2")))

	all, err := s.ListSnapshots(ctx, SnapshotFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byPipeline, err := s.ListSnapshots(ctx, SnapshotFilter{PipelineID: "pl-1"})
	require.NoError(t, err)
	assert.Len(t, byPipeline, 3)

	limited, err := s.ListSnapshots(ctx, SnapshotFilter{PipelineID: "pl-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	since := time.Now().UTC().Add(-90 * time.Minute)
	recent, err := s.ListSnapshots(ctx, SnapshotFilter{PipelineID: "pl-1", Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestListSnapshotsOrderedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testSnapshot("pl-1")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := testSnapshot("pl-1")
	require.NoError(t, s.SaveSnapshot(ctx, second))

	list, err := s.ListSnapshots(ctx, SnapshotFilter{PipelineID: "pl-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testSnapshot("pl-1")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.SaveSnapshot(ctx, old))
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot("pl-1")))

	n, err := s.Prune(ctx, "pl-1", time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := s.ListSnapshots(ctx, SnapshotFilter{PipelineID: "pl-1"})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte(`{"x":1}`))
	b := Fingerprint([]byte(`{"x":1}`))
	c := Fingerprint([]byte(`{"x":2}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}
