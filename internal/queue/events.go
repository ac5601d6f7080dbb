package queue

import (
	"context"
	"time"

	"github.com/your-org/mediascan/internal/models"
)

// publishTimeout bounds each fire-and-forget scan event publication.
const publishTimeout = 5 * time.Second

// ScanEvents publishes scan pipeline events onto the SCANEVENTS stream so
// subscribers outside the API process can follow a scan. Errors are
// swallowed: event delivery is best-effort, the scan never blocks on it.
type ScanEvents struct {
	producer *Producer
}

func NewScanEvents(p *Producer) *ScanEvents {
	return &ScanEvents{producer: p}
}

func (e *ScanEvents) Progress(ev models.ProgressEvent) {
	e.publish("progress", ev)
}

func (e *ScanEvents) Preview(ev models.PreviewEvent) {
	e.publish("preview", ev)
}

func (e *ScanEvents) MediaDeleted(ev models.MediaDeletedEvent) {
	e.publish("media_deleted", ev)
}

func (e *ScanEvents) publish(eventType string, data any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = e.producer.PublishScanEvent(ctx, eventType, data)
}
