package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strevlab/pipeview/pkg/dag"
)

func TestProjectExhaustive(t *testing.T) {
	seen := make(map[IconKind]bool)
	for _, st := range dag.AllStatuses {
		d := Project(st)
		assert.NotEmpty(t, d.Icon, "status %s must have an icon", st)
		assert.NotEmpty(t, d.Color, "status %s must have a color token", st)
		seen[d.Icon] = true
	}
	assert.Len(t, seen, len(dag.AllStatuses), "every status maps to a distinct icon")
}

func TestProjectOnlyProcessingAnimates(t *testing.T) {
	for _, st := range dag.AllStatuses {
		d := Project(st)
		assert.Equal(t, st == dag.StatusProcessing, d.Animate, "status %s", st)
	}
}

func TestProjectTable(t *testing.T) {
	cases := []struct {
		status dag.NodeStatus
		icon   IconKind
		color  string
	}{
		{dag.StatusBlocked, IconLock, "#4a4a4a"},
		{dag.StatusPending, IconClock, "#6b6b6b"},
		{dag.StatusProcessing, IconSpinner, "#1a5276"},
		{dag.StatusCompleted, IconCheck, "#2d6a2d"},
		{dag.StatusFailed, IconCross, "#8b1a1a"},
		{dag.StatusCancelled, IconBan, "#b7791a"},
	}

	for _, tc := range cases {
		d := Project(tc.status)
		assert.Equal(t, tc.icon, d.Icon)
		assert.Equal(t, tc.color, d.Color)
	}
}

func TestProjectUnknownFallsBackToPending(t *testing.T) {
	d := Project(dag.NodeStatus("EXPLODED"))

	assert.Equal(t, Project(dag.StatusPending), d)
}
