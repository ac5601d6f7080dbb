// Package reconcile keeps classification state consistent with library
// mutations that happen outside a scan: assets inserted by the ingestor
// or removed through the delete endpoints.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/queue"
	"github.com/your-org/mediascan/internal/scan"
)

const consumerName = "reconciler"

// Listener subscribes to library change events and applies the matching
// invalidation to the scan service. Events are handled sequentially so
// removal and insertion never race each other.
type Listener struct {
	consumer *queue.Consumer
	svc      *scan.Service
}

func NewListener(consumer *queue.Consumer, svc *scan.Service) *Listener {
	return &Listener{consumer: consumer, svc: svc}
}

// Start consumes change events until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	return l.consumer.ConsumeChanges(ctx, consumerName, l.handle)
}

func (l *Listener) handle(ctx context.Context, msg jetstream.Msg) error {
	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		return fmt.Errorf("unmarshal change event: %w", err)
	}
	l.Apply(ev)
	return nil
}

// Apply runs one change event against the scan service. Exported so the
// API can reconcile its own deletions synchronously before responding.
func (l *Listener) Apply(ev models.ChangeEvent) {
	switch ev.Type {
	case models.ChangeInserted:
		// New assets shift enumeration adjacency, so every pairwise
		// duplicate decision is suspect, not just the neighbors.
		l.svc.InvalidateDuplicates()
		slog.Info("reconciled insertion", "assets", len(ev.AssetIDs))
	case models.ChangeRemoved:
		for _, id := range ev.AssetIDs {
			l.svc.RemoveAsset(id)
		}
		slog.Info("reconciled removal", "assets", len(ev.AssetIDs))
	default:
		slog.Warn("unknown change event type", "type", ev.Type)
	}
}
