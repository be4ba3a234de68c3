package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strevlab/pipeview/pkg/dag"
)

func testGraph() *dag.Graph {
	return &dag.Graph{
		Nodes: []dag.Node{
			{ID: "remux", Label: "Remux", Status: dag.StatusCompleted, Processor: "remux"},
			{ID: "upload", Label: "Upload", Status: dag.StatusFailed, Processor: "rclone", JobID: "j-9"},
			{ID: "notify", Label: "Notify", Status: dag.StatusCancelled},
		},
	}
}

func TestMatchByStatus(t *testing.T) {
	e := NewEngine()

	matched, err := e.Match(context.Background(), `status == "FAILED"`, testGraph(), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"upload": true}, matched)
}

func TestMatchCompound(t *testing.T) {
	e := NewEngine()

	matched, err := e.Match(context.Background(),
		`terminal && processor != "remux"`, testGraph(), nil)
	require.NoError(t, err)

	assert.Len(t, matched, 2)
	assert.True(t, matched["upload"])
	assert.True(t, matched["notify"])
}

func TestMatchByLevel(t *testing.T) {
	e := NewEngine()
	levels := map[string]int{"remux": 0, "upload": 1, "notify": 2}

	matched, err := e.Match(context.Background(), `level >= 1`, testGraph(), levels)
	require.NoError(t, err)

	assert.Len(t, matched, 2)
	assert.False(t, matched["remux"])
}

func TestMatchNonBooleanResult(t *testing.T) {
	e := NewEngine()

	_, err := e.Match(context.Background(), `label`, testGraph(), nil)
	require.Error(t, err)

	var derr *dag.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dag.ErrCodeExpression, derr.Code)
}

func TestMatchInvalidExpression(t *testing.T) {
	e := NewEngine()

	_, err := e.Match(context.Background(), `status ===`, testGraph(), nil)
	assert.Error(t, err)
}

func TestMatchEmptyExpression(t *testing.T) {
	e := NewEngine()

	_, err := e.Match(context.Background(), "", testGraph(), nil)
	assert.Error(t, err)
}

func TestMatchCachesPrograms(t *testing.T) {
	e := NewEngine()

	_, err := e.Match(context.Background(), `status == "FAILED"`, testGraph(), nil)
	require.NoError(t, err)
	_, err = e.Match(context.Background(), `status == "FAILED"`, testGraph(), nil)
	require.NoError(t, err)

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.cache, 1)
}
