// Package validation checks raw pipeline-graph payloads before they reach
// the layout engine. The engine itself tolerates malformed input (dangling
// edges, cycles), so validation exists to surface upstream data problems to
// operators, not to gate rendering.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/strevlab/pipeview/pkg/dag"
)

// graphSchemaJSON is the JSON Schema for DagGraph payload validation.
// Embedded as a constant to avoid filesystem dependencies.
const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://pipeview.dev/schemas/graph.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "status"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "label": { "type": "string" },
        "status": {
          "type": "string",
          "enum": ["BLOCKED", "PENDING", "PROCESSING", "COMPLETED", "FAILED", "CANCELLED"]
        },
        "job_id": { "type": "string" },
        "processor": { "type": "string" }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["from", "to"],
      "properties": {
        "from": { "type": "string", "minLength": 1 },
        "to": { "type": "string", "minLength": 1 }
      },
      "additionalProperties": false
    }
  }
}`

// GraphValidator validates raw DagGraph payloads against the embedded JSON
// Schema. It is safe for concurrent use: the compiled schema is immutable.
type GraphValidator struct {
	graphSchema *jsonschema.Schema
}

// NewGraphValidator compiles the embedded graph schema.
func NewGraphValidator() (*GraphValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph schema: %w", err)
	}
	if err := c.AddResource("https://pipeview.dev/schemas/graph.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add graph schema resource: %w", err)
	}

	compiled, err := c.Compile("https://pipeview.dev/schemas/graph.json")
	if err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}

	return &GraphValidator{graphSchema: compiled}, nil
}

// ValidatePayload validates a raw JSON payload. On success the decoded Graph
// is returned together with any non-fatal findings (duplicate node ids, edges
// referencing unknown nodes). Findings never block decoding — the layout
// engine degrades gracefully on both — but operators want to see them.
func (v *GraphValidator) ValidatePayload(payload []byte) (*dag.Graph, []Finding, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(payload)))
	if err != nil {
		return nil, nil, dag.NewError(dag.ErrCodeDecode, "payload is not valid JSON").WithCause(err)
	}

	if err := v.graphSchema.Validate(doc); err != nil {
		return nil, nil, toValidationError(err)
	}

	var g dag.Graph
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, nil, dag.NewError(dag.ErrCodeDecode, "failed to decode graph payload").WithCause(err)
	}

	return &g, Inspect(&g), nil
}

// Finding is a non-fatal data-integrity observation about a graph snapshot.
type Finding struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Finding kinds.
const (
	FindingDuplicateNodeID = "duplicate_node_id"
	FindingDanglingEdge    = "dangling_edge"
)

// Inspect runs the structural checks JSON Schema cannot express. Duplicate
// node ids collapse last-write-wins in the layout maps and dangling edges are
// dropped at render time; both are reported so the upstream scheduler bug can
// be found.
func Inspect(g *dag.Graph) []Finding {
	var findings []Finding

	seen := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if _, dup := seen[id]; dup {
			findings = append(findings, Finding{
				Kind:    FindingDuplicateNodeID,
				Message: fmt.Sprintf("node id %q appears more than once; layout keeps the last occurrence", id),
			})
			continue
		}
		seen[id] = struct{}{}
	}

	for _, e := range g.Edges {
		_, fromOK := seen[e.From]
		_, toOK := seen[e.To]
		if !fromOK || !toOK {
			findings = append(findings, Finding{
				Kind:    FindingDanglingEdge,
				Message: fmt.Sprintf("edge %s→%s references an unknown node; it will not render", e.From, e.To),
			})
		}
	}

	return findings
}

// toValidationError converts a jsonschema.ValidationError into a structured
// dag.Error with per-location violation messages.
func toValidationError(err error) *dag.Error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return dag.NewError(dag.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return dag.NewError(dag.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return dag.NewError(dag.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return dag.NewError(dag.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
