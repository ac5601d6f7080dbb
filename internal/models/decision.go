package models

import "time"

// DecisionKind namespaces cached per-asset decisions. Each kind has its own
// in-memory map, its own lock, and its own flush schedule.
type DecisionKind string

const (
	KindBlurred   DecisionKind = "blurred"
	KindDuplicate DecisionKind = "duplicate"
	KindSize      DecisionKind = "size"
	KindSwipe     DecisionKind = "swipe"
)

// AllKinds lists every decision kind the cache manages.
var AllKinds = []DecisionKind{KindBlurred, KindDuplicate, KindSize, KindSwipe}

// Record is a single cached decision. Absence from the map means "unset";
// a present record carries the tri-state's true/false in Value.
//
// Score is kind-dependent: the equality cluster key for duplicate records,
// the byte-size estimate for size records, unused otherwise.
type Record struct {
	Value    bool      `json:"value"`
	Score    float64   `json:"score,omitempty"`
	HasScore bool      `json:"has_score,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Equal compares the decision payload, ignoring SavedAt. The cache uses it
// to suppress no-op writes.
func (r Record) Equal(o Record) bool {
	return r.Value == o.Value && r.Score == o.Score && r.HasScore == o.HasScore
}

// StoredRecord is a durable decision row as the persistent store sees it:
// identifier, value, optional secondary numeric field, creation timestamp.
type StoredRecord struct {
	AssetID   string       `db:"asset_id"`
	Kind      DecisionKind `db:"kind"`
	Value     bool         `db:"value"`
	Score     *float64     `db:"score"`
	CreatedAt time.Time    `db:"created_at"`
}

// ToRecord converts a durable row into the in-memory form.
func (s StoredRecord) ToRecord() Record {
	r := Record{Value: s.Value, SavedAt: s.CreatedAt}
	if s.Score != nil {
		r.Score = *s.Score
		r.HasScore = true
	}
	return r
}

// ToStored converts an in-memory record for asset id into a durable row.
func ToStored(kind DecisionKind, id string, r Record) StoredRecord {
	s := StoredRecord{AssetID: id, Kind: kind, Value: r.Value, CreatedAt: r.SavedAt}
	if r.HasScore {
		score := r.Score
		s.Score = &score
	}
	return s
}
