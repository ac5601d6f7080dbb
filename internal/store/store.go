package store

import (
	"context"

	"github.com/your-org/mediascan/internal/models"
)

// DecisionStore is the durable record store behind the decision cache.
// Insert is append-only per kind: updates to an existing key happen via
// delete-then-recreate, never in-place.
type DecisionStore interface {
	InsertBatch(ctx context.Context, records []models.StoredRecord) error
	Delete(ctx context.Context, kind models.DecisionKind, id string) error
	DeleteBatch(ctx context.Context, kind models.DecisionKind, ids []string) error
	DeleteAll(ctx context.Context, kind models.DecisionKind) error
	FetchAll(ctx context.Context, kind models.DecisionKind) ([]models.StoredRecord, error)
	FetchByID(ctx context.Context, kind models.DecisionKind, id string) (*models.StoredRecord, error)
}
