// Command pipeview renders pipeline DAG diagrams, records snapshot history,
// and serves the layout engine over MCP.
//
// Usage:
//
//	pipeview render -pipeline <id> | -snapshot <id> | -in <file> [-format svg|mermaid|dot|ascii] [-out file]
//	pipeview poll
//	pipeview mcp
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/strevlab/pipeview/internal/client"
	"github.com/strevlab/pipeview/internal/filter"
	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/internal/logging"
	"github.com/strevlab/pipeview/internal/poller"
	"github.com/strevlab/pipeview/internal/render"
	"github.com/strevlab/pipeview/internal/store"
	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
	pipeviewmcp "github.com/strevlab/pipeview/pkg/mcp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(cfg, logger, os.Args[2:])
	case "poll":
		err = runPoll(cfg, logger)
	case "mcp":
		err = runMCP(cfg, logger)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("pipeview failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pipeview <render|poll|mcp> [flags]")
}

// newLogger builds the root logger: JSON to stderr with correlation IDs
// injected from the context.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func newClient(cfg Config, logger *slog.Logger) (*client.Client, error) {
	return client.New(client.Config{
		BaseURL: cfg.APIBaseURL,
		Query:   cfg.Query,
		APIKey:  cfg.APIKey,
	}, logger)
}

func openStore(ctx context.Context, cfg Config) (*store.LibSQLStore, error) {
	if err := os.MkdirAll(pipeviewDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// runRender fetches one graph (live or from a snapshot) and writes a diagram.
func runRender(cfg Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	pipelineID := fs.String("pipeline", "", "pipeline id to fetch live")
	snapshotID := fs.String("snapshot", "", "stored snapshot id to render instead")
	inPath := fs.String("in", "", `local payload file to render ("-" for stdin)`)
	query := fs.String("query", "", "jq expression unwrapping the graph from the payload")
	format := fs.String("format", "svg", "output format: svg, mermaid, dot, ascii")
	highlight := fs.String("highlight", "", `highlight expression, e.g. status == "FAILED"`)
	outPath := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	var g *dag.Graph
	switch {
	case *inPath != "":
		var payload []byte
		var err error
		if *inPath == "-" {
			payload, err = io.ReadAll(os.Stdin)
		} else {
			payload, err = os.ReadFile(*inPath)
		}
		if err != nil {
			return err
		}

		q := *query
		if q == "" {
			q = cfg.Query
		}
		payload, err = client.NewExtractor().Extract(payload, q)
		if err != nil {
			return err
		}

		validator, err := validation.NewGraphValidator()
		if err != nil {
			return err
		}
		var findings []validation.Finding
		g, findings, err = validator.ValidatePayload(payload)
		if err != nil {
			return err
		}
		for _, f := range findings {
			logger.Warn("graph payload finding",
				slog.String("kind", f.Kind),
				slog.String("message", f.Message))
		}
	case *snapshotID != "":
		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		snap, err := s.GetSnapshot(ctx, *snapshotID)
		if err != nil {
			return err
		}
		validator, err := validation.NewGraphValidator()
		if err != nil {
			return err
		}
		g, _, err = validator.ValidatePayload(snap.Payload)
		if err != nil {
			return err
		}
	case *pipelineID != "":
		c, err := newClient(cfg, logger)
		if err != nil {
			return err
		}
		var findings []validation.Finding
		g, findings, err = c.FetchGraph(ctx, *pipelineID)
		if err != nil {
			return err
		}
		for _, f := range findings {
			logger.Warn("graph payload finding",
				slog.String("kind", f.Kind),
				slog.String("message", f.Message))
		}
	default:
		return fmt.Errorf("one of -pipeline, -snapshot or -in is required")
	}

	l := layout.Compute(g, layout.DefaultConfig())

	var out string
	switch *format {
	case "svg":
		opts := render.SVGOptions{JobBaseURL: cfg.JobBaseURL}
		if *highlight != "" {
			levels := make(map[string]int)
			for i, ids := range l.Levels {
				for _, id := range ids {
					levels[id] = i
				}
			}
			matched, err := filter.NewEngine().Match(ctx, *highlight, g, levels)
			if err != nil {
				return err
			}
			opts.Highlight = matched
		}
		out = render.SVG(g, l, opts)
	case "mermaid":
		out = render.Mermaid(g, l)
	case "dot":
		out = render.DOT(g, l)
	case "ascii":
		out = render.ASCII(g, l)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	if *outPath != "" {
		return os.WriteFile(*outPath, []byte(out), 0o644)
	}
	_, err := fmt.Fprint(os.Stdout, out)
	return err
}

// runPoll records snapshots on the configured schedule until interrupted.
func runPoll(cfg Config, logger *slog.Logger) error {
	if len(cfg.Pipelines) == 0 {
		return fmt.Errorf("no pipelines configured (set PIPEVIEW_PIPELINES or pipelines in settings.json)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	p, err := poller.New(poller.Config{
		Schedule:  cfg.PollSchedule,
		Pipelines: cfg.Pipelines,
	}, s, c, nil, logger)
	if err != nil {
		return err
	}

	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return p.Stop()
}

// runMCP serves the layout engine over stdio MCP.
func runMCP(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := pipeviewmcp.PipeviewServerDeps{Logger: logger}

	if cfg.APIBaseURL != "" {
		c, err := newClient(cfg, logger)
		if err != nil {
			return err
		}
		deps.Fetcher = c
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		logger.Warn("snapshot store unavailable, history disabled", slog.String("error", err.Error()))
	} else {
		defer s.Close()
		deps.Store = s
	}

	srv, err := pipeviewmcp.NewPipeviewServer(deps)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening on stdio")
	return srv.Serve(ctx)
}
