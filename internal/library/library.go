package library

import (
	"context"
	"image"

	"github.com/your-org/mediascan/internal/models"
)

// Library is the asset store collaborator: stable identifiers, ordered
// enumeration, rendered-image retrieval, byte-size estimates, and batch
// deletion. Change notifications travel separately over the queue.
type Library interface {
	// Assets enumerates the current snapshot of the given media kind,
	// ordered by creation date descending, with Index populated.
	Assets(ctx context.Context, kind models.MediaKind) ([]models.AssetRef, error)

	// Render fetches the asset's stored artifact and scales it so the
	// longest edge is maxEdge pixels. The only suspension point in the
	// scan pipeline.
	Render(ctx context.Context, id string, maxEdge int) (image.Image, error)

	// SizeOf returns the byte-size estimate for one asset.
	SizeOf(ctx context.Context, id string) (int64, error)

	// Delete removes a batch of assets and publishes a removal
	// notification for them.
	Delete(ctx context.Context, ids []string) error
}
