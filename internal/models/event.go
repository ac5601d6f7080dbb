package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeInserted ChangeType = "inserted"
	ChangeRemoved  ChangeType = "removed"
)

// ChangeEvent is published on NATS whenever the asset library mutates
// out-of-band, relative to a previously held enumeration snapshot.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	AssetIDs  []string   `json:"asset_ids"`
	Timestamp time.Time  `json:"timestamp"`
}

// ProgressEvent is one step of a running scan. Fraction is monotonically
// non-decreasing within a single scan.
type ProgressEvent struct {
	ScanID   uuid.UUID `json:"scan_id"`
	Kind     MediaKind `json:"kind"`
	Index    int       `json:"index"`
	Fraction float64   `json:"fraction"`
	Finished bool      `json:"finished"`
}

// PreviewEvent publishes a representative preview for a category. Emitted
// at an evenly spaced index interval, not per asset.
type PreviewEvent struct {
	Category Category `json:"category"`
	AssetID  string   `json:"asset_id"`
	// ObjectKey locates the rendered artifact in the object store.
	ObjectKey string `json:"object_key"`
}

// MediaDeletedEvent notifies downstream consumers that an asset left a
// category after a library removal was reconciled.
type MediaDeletedEvent struct {
	Category Category `json:"category"`
	AssetID  string   `json:"asset_id"`
}
