package layout

import "github.com/strevlab/pipeview/pkg/dag"

// IconKind identifies the glyph the presentation layer draws for a status.
type IconKind string

const (
	IconLock    IconKind = "lock"
	IconClock   IconKind = "clock"
	IconSpinner IconKind = "spinner"
	IconCheck   IconKind = "check"
	IconCross   IconKind = "cross"
	IconBan     IconKind = "ban"
)

// Descriptor is the presentation triple derived from a node status.
type Descriptor struct {
	Icon    IconKind `json:"icon"`
	Color   string   `json:"color"`
	Animate bool     `json:"animate"`
}

// descriptors covers every member of the closed status enumeration; no
// default branch is needed. PROCESSING is the only animated status.
var descriptors = map[dag.NodeStatus]Descriptor{
	dag.StatusBlocked:    {Icon: IconLock, Color: "#4a4a4a"},
	dag.StatusPending:    {Icon: IconClock, Color: "#6b6b6b"},
	dag.StatusProcessing: {Icon: IconSpinner, Color: "#1a5276", Animate: true},
	dag.StatusCompleted:  {Icon: IconCheck, Color: "#2d6a2d"},
	dag.StatusFailed:     {Icon: IconCross, Color: "#8b1a1a"},
	dag.StatusCancelled:  {Icon: IconBan, Color: "#b7791a"},
}

// Project maps a node status to its presentation descriptor. Unknown values
// (possible only on malformed payloads that bypassed validation) fall back to
// the PENDING descriptor so rendering never breaks.
func Project(s dag.NodeStatus) Descriptor {
	if d, ok := descriptors[s]; ok {
		return d
	}
	return descriptors[dag.StatusPending]
}
