package dto

import "github.com/google/uuid"

// ScanStatusResponse reports the state machine for one media kind.
type ScanStatusResponse struct {
	Kind   string `json:"kind"`
	State  string `json:"state"`
	Assets int    `json:"assets"`
}

// CategoryResponse is one classification category summary.
type CategoryResponse struct {
	Category  string `json:"category"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// AssetResponse is one asset inside a media section.
type AssetResponse struct {
	ID           string   `json:"id"`
	CreatedAt    string   `json:"created_at"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	SizeBytes    int64    `json:"size_bytes"`
	IsScreenshot bool     `json:"is_screenshot"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

// SectionResponse is one ordered group within a category listing:
// a duplicate/similar cluster or a calendar-day bucket.
type SectionResponse struct {
	Key    float64         `json:"key"`
	Day    string          `json:"day,omitempty"`
	Assets []AssetResponse `json:"assets"`
}

// MediaResponse is the full section listing for one category.
type MediaResponse struct {
	Category string            `json:"category"`
	Sections []SectionResponse `json:"sections"`
	Total    int               `json:"total"`
}

// DeleteMediaRequest asks for a batch of assets to be removed from the
// library and all classifications.
type DeleteMediaRequest struct {
	AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
}

// DeleteMediaResponse reports how many assets were removed.
type DeleteMediaResponse struct {
	Deleted int `json:"deleted"`
}

// SwipeRequest records a keep/discard verdict for one asset.
type SwipeRequest struct {
	Keep *bool `json:"keep" binding:"required"`
}

// SwipeStatusResponse summarizes the review ledger.
type SwipeStatusResponse struct {
	PendingDeletion int      `json:"pending_deletion"`
	Discards        []string `json:"discards"`
}

// WSEvent is the envelope for every WebSocket message. Exactly one of
// the payload fields is set, matching Type.
type WSEvent struct {
	Type     string             `json:"type"` // scan_progress, category_preview, media_deleted
	Progress *ProgressPayload   `json:"progress,omitempty"`
	Preview  *PreviewPayload    `json:"preview,omitempty"`
	Deleted  *MediaDeletedPayload `json:"deleted,omitempty"`
}

type ProgressPayload struct {
	ScanID   uuid.UUID `json:"scan_id"`
	Kind     string    `json:"kind"`
	Index    int       `json:"index"`
	Fraction float64   `json:"fraction"`
	Finished bool      `json:"finished"`
}

type PreviewPayload struct {
	Category   string `json:"category"`
	AssetID    string `json:"asset_id"`
	PreviewURL string `json:"preview_url"`
}

type MediaDeletedPayload struct {
	Category string `json:"category"`
	AssetID  string `json:"asset_id"`
}
