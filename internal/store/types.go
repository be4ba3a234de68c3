package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Snapshot is one captured pipeline graph payload. Payload holds the raw
// validated JSON so historical snapshots can be re-laid-out with future
// layout settings.
type Snapshot struct {
	ID          string          `json:"id"`
	PipelineID  string          `json:"pipeline_id"`
	Payload     json.RawMessage `json:"payload"`
	NodeCount   int             `json:"node_count"`
	EdgeCount   int             `json:"edge_count"`
	Fingerprint string          `json:"fingerprint"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SnapshotFilter narrows ListSnapshots results.
type SnapshotFilter struct {
	PipelineID string
	Since      *time.Time
	Limit      int
	Offset     int
}

// Fingerprint returns the content hash used to detect unchanged snapshots.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
