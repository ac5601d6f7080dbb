package models

import "time"

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// AssetRef is an immutable identity + metadata snapshot for one media item.
// The library owns it; everything downstream holds read-only copies.
type AssetRef struct {
	ID           string     `json:"id" db:"id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	Latitude     *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64   `json:"longitude,omitempty" db:"longitude"`
	Width        int        `json:"width" db:"width"`
	Height       int        `json:"height" db:"height"`
	Kind         MediaKind  `json:"kind" db:"kind"`
	IsScreenshot bool       `json:"is_screenshot" db:"is_screenshot"`
	SizeBytes    int64      `json:"size_bytes" db:"size_bytes"`
	ObjectKey    string     `json:"object_key" db:"object_key"`
	// Index is the position in the last full enumeration (0-based,
	// creation date descending).
	Index int `json:"index" db:"-"`
}

// HasLocation reports whether both coordinates are present.
func (a AssetRef) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Classification wraps an AssetRef with scan-session cluster keys.
// Identity is the underlying asset ID: two wrappers for the same asset
// are interchangeable inside a classification set.
type Classification struct {
	Ref AssetRef

	// Equality clusters pixel-duplicates. Assigned per duplicate cluster,
	// distinct across clusters (the cluster head's creation timestamp).
	Equality    float64
	HasEquality bool

	// Similarity clusters near-duplicates by time/location adjacency.
	Similarity    float64
	HasSimilarity bool
}
