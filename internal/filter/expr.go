// Package filter evaluates node-highlight predicates. The dashboard lets an
// operator type an expression like `status == "FAILED" && processor == "remux"`
// and dims every node that does not match.
package filter

import (
	"context"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/strevlab/pipeview/pkg/dag"
)

// Engine compiles and evaluates highlight expressions with expr-lang/expr.
// Thread-safe: compiled *vm.Program objects are cached and reused across
// goroutines.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEngine creates a new highlight expression engine.
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]*vm.Program),
	}
}

// nodeEnv is the expression environment for one node. Keys become top-level
// variables inside the expression.
func nodeEnv(n *dag.Node, level int) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"label":     n.Label,
		"status":    string(n.Status),
		"job_id":    n.JobID,
		"processor": n.Processor,
		"level":     level,
		"terminal":  n.Status.Terminal(),
	}
}

// Match evaluates the expression against every node in the graph and returns
// the set of matching node IDs, suitable for render.SVGOptions.Highlight.
// A non-boolean expression result is an error.
func (e *Engine) Match(ctx context.Context, expression string, g *dag.Graph, levels map[string]int) (map[string]bool, error) {
	if expression == "" {
		return nil, dag.NewError(dag.ErrCodeExpression, "empty highlight expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n := &g.Nodes[i]

		out, runErr := vm.Run(prg, nodeEnv(n, levels[n.ID]))
		if runErr != nil {
			return nil, dag.NewErrorf(dag.ErrCodeExpression,
				"highlight evaluation failed for %q: %s", expression, runErr.Error()).
				WithCause(runErr).
				WithDetails(map[string]any{"expression": expression, "node_id": n.ID})
		}

		ok, isBool := out.(bool)
		if !isBool {
			return nil, dag.NewErrorf(dag.ErrCodeExpression,
				"highlight expression %q must return a boolean, got %T", expression, out)
		}
		if ok {
			matched[n.ID] = true
		}
	}

	return matched, nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *Engine) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, dag.NewErrorf(dag.ErrCodeExpression,
			"invalid highlight expression %q: %s", expression, err.Error()).
			WithCause(err)
	}

	e.cache[expression] = prg
	return prg, nil
}
