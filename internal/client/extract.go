package client

import (
	"encoding/json"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/strevlab/pipeview/pkg/dag"
)

// Extractor unwraps graph payloads from API envelopes using jq expressions
// (e.g. `.data.dag`). Thread-safe: compiled *gojq.Code objects are cached and
// reused across goroutines.
type Extractor struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewExtractor creates a new payload extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		cache: make(map[string]*gojq.Code),
	}
}

// Extract runs the jq query against the JSON payload and returns the first
// result re-encoded as JSON, ready for schema validation. An empty query
// returns the payload unchanged. A query producing no output or a jq error
// is a decode failure.
func (e *Extractor) Extract(payload []byte, query string) ([]byte, error) {
	if query == "" {
		return payload, nil
	}

	code, err := e.getOrCompile(query)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, dag.NewError(dag.ErrCodeDecode, "payload is not valid JSON").WithCause(err)
	}

	iter := code.Run(doc)
	val, ok := iter.Next()
	if !ok {
		return nil, dag.NewErrorf(dag.ErrCodeDecode, "jq query %q produced no output", query)
	}
	if jqErr, isErr := val.(error); isErr {
		return nil, dag.NewErrorf(dag.ErrCodeDecode,
			"jq query %q failed: %s", query, jqErr.Error()).WithCause(jqErr)
	}

	out, err := json.Marshal(val)
	if err != nil {
		return nil, dag.NewError(dag.ErrCodeDecode, "failed to re-encode extracted payload").WithCause(err)
	}
	return out, nil
}

// getOrCompile returns a cached compiled query or compiles and caches a new one.
func (e *Extractor) getOrCompile(query string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[query]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if code, ok := e.cache[query]; ok {
		return code, nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, dag.NewErrorf(dag.ErrCodeExpression,
			"invalid jq query %q: %s", query, err.Error()).WithCause(err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, dag.NewErrorf(dag.ErrCodeExpression,
			"failed to compile jq query %q: %s", query, err.Error()).WithCause(err)
	}

	e.cache[query] = code
	return code, nil
}
