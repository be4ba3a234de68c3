// Package poller periodically fetches pipeline graphs and records snapshots.
// A snapshot is only written when the graph content actually changed, so a
// tight schedule against an idle pipeline does not flood the store.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/strevlab/pipeview/internal/logging"
	"github.com/strevlab/pipeview/internal/store"
	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
)

// Fetcher retrieves the current graph for a pipeline.
// Satisfied by *client.Client.
type Fetcher interface {
	FetchGraph(ctx context.Context, pipelineID string) (*dag.Graph, []validation.Finding, error)
}

// Observer is notified after each new snapshot is persisted.
type Observer func(ctx context.Context, snap *store.Snapshot, g *dag.Graph)

// Config holds the poller settings.
type Config struct {
	// Schedule is a 5-field cron expression, e.g. "*/1 * * * *".
	Schedule string
	// Pipelines is the set of pipeline IDs to poll.
	Pipelines []string
}

// Poller runs the polling loop.
type Poller struct {
	store    store.Store
	fetcher  Fetcher
	schedule cron.Schedule
	cfg      Config
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// last fingerprint per pipeline, for change detection
	fpMu sync.Mutex
	fps  map[string]string
}

// New creates a Poller. The observer may be nil.
func New(cfg Config, s store.Store, f Fetcher, observer Observer, logger *slog.Logger) (*Poller, error) {
	if len(cfg.Pipelines) == 0 {
		return nil, dag.NewError(dag.ErrCodeValidation, "poller needs at least one pipeline id")
	}
	if logger == nil {
		logger = slog.Default()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, dag.NewErrorf(dag.ErrCodeValidation,
			"invalid poll schedule %q: %s", cfg.Schedule, err.Error()).WithCause(err)
	}

	return &Poller{
		store:    s,
		fetcher:  f,
		schedule: schedule,
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		fps:      make(map[string]string),
	}, nil
}

// Start launches the background polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return fmt.Errorf("poller already started")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop(pollCtx)
	p.logger.Info("poller started",
		slog.String("schedule", p.cfg.Schedule),
		slog.Int("pipelines", len(p.cfg.Pipelines)))
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	// Poll immediately, then follow the schedule.
	p.Poll(ctx)

	for {
		next := p.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one pass over all configured pipelines.
func (p *Poller) Poll(ctx context.Context) {
	for _, pipelineID := range p.cfg.Pipelines {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollPipeline(ctx, pipelineID); err != nil {
			p.logger.ErrorContext(ctx, "poll failed",
				slog.String("pipeline_id", pipelineID),
				slog.String("error", err.Error()))
		}
	}
}

func (p *Poller) pollPipeline(ctx context.Context, pipelineID string) error {
	ctx = logging.WithPipelineID(ctx, pipelineID)

	g, findings, err := p.fetcher.FetchGraph(ctx, pipelineID)
	if err != nil {
		return err
	}
	for _, f := range findings {
		p.logger.WarnContext(ctx, "graph payload finding",
			slog.String("kind", f.Kind),
			slog.String("message", f.Message))
	}

	payload, err := encodePayload(g)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}

	fp := store.Fingerprint(payload)
	if p.unchanged(pipelineID, fp) {
		p.logger.DebugContext(ctx, "graph unchanged, skipping snapshot")
		return nil
	}

	snap := &store.Snapshot{
		ID:          uuid.New().String(),
		PipelineID:  pipelineID,
		Payload:     payload,
		NodeCount:   len(g.Nodes),
		EdgeCount:   len(g.Edges),
		Fingerprint: fp,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	p.remember(pipelineID, fp)

	ctx = logging.WithSnapshotID(ctx, snap.ID)
	p.logger.InfoContext(ctx, "snapshot recorded",
		slog.Int("nodes", snap.NodeCount),
		slog.Int("edges", snap.EdgeCount))

	if p.observer != nil {
		p.observer(ctx, snap, g)
	}
	return nil
}

// encodePayload serializes a graph with non-nil node and edge arrays so the
// stored payload always passes schema validation when loaded back.
func encodePayload(g *dag.Graph) ([]byte, error) {
	nodes := g.Nodes
	if nodes == nil {
		nodes = []dag.Node{}
	}
	edges := g.Edges
	if edges == nil {
		edges = []dag.Edge{}
	}
	return json.Marshal(&dag.Graph{Nodes: nodes, Edges: edges})
}

func (p *Poller) unchanged(pipelineID, fp string) bool {
	p.fpMu.Lock()
	defer p.fpMu.Unlock()
	return p.fps[pipelineID] == fp
}

func (p *Poller) remember(pipelineID, fp string) {
	p.fpMu.Lock()
	defer p.fpMu.Unlock()
	p.fps[pipelineID] = fp
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return nil
	}

	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil

	p.logger.Info("poller stopped")
	return nil
}
