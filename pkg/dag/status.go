package dag

// NodeStatus is the execution state of a pipeline step, as reported by the
// upstream scheduler. The enumeration is closed: every snapshot carries one of
// the six values below. The layout engine never mutates a status, it only
// projects the current snapshot.
//
// Lifecycle (externally driven, not enforced here):
// BLOCKED → PENDING → PROCESSING → {COMPLETED | FAILED | CANCELLED}.
type NodeStatus string

const (
	StatusBlocked    NodeStatus = "BLOCKED"
	StatusPending    NodeStatus = "PENDING"
	StatusProcessing NodeStatus = "PROCESSING"
	StatusCompleted  NodeStatus = "COMPLETED"
	StatusFailed     NodeStatus = "FAILED"
	StatusCancelled  NodeStatus = "CANCELLED"
)

// AllStatuses lists every member of the closed enumeration, in lifecycle order.
var AllStatuses = []NodeStatus{
	StatusBlocked,
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// ParseNodeStatus converts a raw payload string into a NodeStatus.
func ParseNodeStatus(s string) (NodeStatus, bool) {
	switch NodeStatus(s) {
	case StatusBlocked, StatusPending, StatusProcessing,
		StatusCompleted, StatusFailed, StatusCancelled:
		return NodeStatus(s), true
	}
	return "", false
}

// Valid reports whether the status is a member of the closed enumeration.
func (s NodeStatus) Valid() bool {
	_, ok := ParseNodeStatus(string(s))
	return ok
}

// Terminal reports whether the step can no longer change state.
func (s NodeStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Started reports whether the step has begun or finished execution.
// Edges leaving a started node carry active "flow" treatment.
func (s NodeStatus) Started() bool {
	return s == StatusProcessing || s == StatusCompleted
}

// LabelKey returns the translation key for the status text. The actual label
// lookup lives in the presentation layer.
func (s NodeStatus) LabelKey() string {
	switch s {
	case StatusBlocked:
		return "dag.status.blocked"
	case StatusPending:
		return "dag.status.pending"
	case StatusProcessing:
		return "dag.status.processing"
	case StatusCompleted:
		return "dag.status.completed"
	case StatusFailed:
		return "dag.status.failed"
	case StatusCancelled:
		return "dag.status.cancelled"
	}
	return "dag.status.unknown"
}
