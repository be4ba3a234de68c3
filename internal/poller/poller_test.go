package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strevlab/pipeview/internal/store"
	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
)

// memStore is an in-memory store.Store for poller tests.
type memStore struct {
	mu    sync.Mutex
	snaps []*store.Snapshot
}

func (m *memStore) SaveSnapshot(_ context.Context, snap *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *memStore) GetSnapshot(_ context.Context, id string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snaps {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, dag.NewErrorf(dag.ErrCodeNotFound, "snapshot %q not found", id)
}

func (m *memStore) LatestSnapshot(_ context.Context, pipelineID string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.snaps) - 1; i >= 0; i-- {
		if m.snaps[i].PipelineID == pipelineID {
			return m.snaps[i], nil
		}
	}
	return nil, dag.NewErrorf(dag.ErrCodeNotFound, "snapshot for pipeline %q not found", pipelineID)
}

func (m *memStore) ListSnapshots(_ context.Context, filter store.SnapshotFilter) ([]*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Snapshot
	for _, s := range m.snaps {
		if filter.PipelineID == "" || s.PipelineID == filter.PipelineID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Prune(context.Context, string, time.Time) (int64, error) { return 0, nil }
func (m *memStore) Migrate(context.Context) error                          { return nil }
func (m *memStore) Vacuum(context.Context) error                           { return nil }
func (m *memStore) Close() error                                           { return nil }

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

// fakeFetcher returns a canned graph, swappable between calls.
type fakeFetcher struct {
	mu       sync.Mutex
	graph    *dag.Graph
	findings []validation.Finding
	err      error
	calls    int
}

func (f *fakeFetcher) FetchGraph(context.Context, string) (*dag.Graph, []validation.Finding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.graph, f.findings, f.err
}

func (f *fakeFetcher) set(g *dag.Graph) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graph = g
}

func graphWith(status dag.NodeStatus) *dag.Graph {
	return &dag.Graph{
		Nodes: []dag.Node{{ID: "remux", Status: status}},
	}
}

func newTestPoller(t *testing.T, s store.Store, f Fetcher, obs Observer) *Poller {
	t.Helper()
	p, err := New(Config{Schedule: "* * * * *", Pipelines: []string{"pl-1"}}, s, f, obs, nil)
	require.NoError(t, err)
	return p
}

func TestPollRecordsSnapshot(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{graph: graphWith(dag.StatusProcessing)}
	p := newTestPoller(t, ms, ff, nil)

	p.Poll(context.Background())

	require.Equal(t, 1, ms.count())
	snap := ms.snaps[0]
	assert.Equal(t, "pl-1", snap.PipelineID)
	assert.Equal(t, 1, snap.NodeCount)
	assert.NotEmpty(t, snap.ID)
	assert.NotEmpty(t, snap.Fingerprint)
}

func TestPollSkipsUnchangedGraph(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{graph: graphWith(dag.StatusProcessing)}
	p := newTestPoller(t, ms, ff, nil)

	p.Poll(context.Background())
	p.Poll(context.Background())

	assert.Equal(t, 1, ms.count(), "identical graph must not produce a second snapshot")
}

func TestPollRecordsOnChange(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{graph: graphWith(dag.StatusProcessing)}
	p := newTestPoller(t, ms, ff, nil)

	p.Poll(context.Background())
	ff.set(graphWith(dag.StatusCompleted))
	p.Poll(context.Background())

	assert.Equal(t, 2, ms.count())
}

func TestPollNotifiesObserver(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{graph: graphWith(dag.StatusPending)}

	var gotSnap *store.Snapshot
	var gotGraph *dag.Graph
	obs := func(_ context.Context, snap *store.Snapshot, g *dag.Graph) {
		gotSnap = snap
		gotGraph = g
	}
	p := newTestPoller(t, ms, ff, obs)

	p.Poll(context.Background())

	require.NotNil(t, gotSnap)
	require.NotNil(t, gotGraph)
	assert.Equal(t, "pl-1", gotSnap.PipelineID)
	assert.Equal(t, dag.StatusPending, gotGraph.Nodes[0].Status)
}

func TestPollFetchErrorDoesNotRecord(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{err: dag.NewError(dag.ErrCodeFetch, "down")}
	p := newTestPoller(t, ms, ff, nil)

	p.Poll(context.Background())

	assert.Equal(t, 0, ms.count())
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(Config{Schedule: "not a cron", Pipelines: []string{"pl-1"}}, &memStore{}, &fakeFetcher{}, nil, nil)
	assert.Error(t, err)
}

func TestNewRequiresPipelines(t *testing.T) {
	_, err := New(Config{Schedule: "* * * * *"}, &memStore{}, &fakeFetcher{}, nil, nil)
	assert.Error(t, err)
}

func TestStartAndStop(t *testing.T) {
	ms := &memStore{}
	ff := &fakeFetcher{graph: graphWith(dag.StatusPending)}
	p := newTestPoller(t, ms, ff, nil)

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()), "double start must fail")

	// The loop polls once immediately on start.
	require.Eventually(t, func() bool { return ms.count() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Stop())

	// Stop is idempotent.
	require.NoError(t, p.Stop())
}
