package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/scan"
	"github.com/your-org/mediascan/pkg/dto"
)

type ScanHandler struct {
	svc *scan.Service
}

func NewScanHandler(svc *scan.Service) *ScanHandler {
	return &ScanHandler{svc: svc}
}

// StartImages launches an image scan in the background. A scan already
// in flight is not restarted.
func (h *ScanHandler) StartImages(c *gin.Context) {
	h.start(c, models.MediaKindImage, h.svc.ScanImages)
}

// StartVideos launches a video scan in the background.
func (h *ScanHandler) StartVideos(c *gin.Context) {
	h.start(c, models.MediaKindVideo, h.svc.ScanVideos)
}

func (h *ScanHandler) start(c *gin.Context, kind models.MediaKind, run func(context.Context) error) {
	switch h.svc.State(kind) {
	case scan.StateEnumerating, scan.StateDispatching:
		c.JSON(http.StatusConflict, gin.H{"error": "scan already running"})
		return
	}

	go func() {
		if err := run(context.Background()); err != nil {
			slog.Error("scan failed", "kind", kind, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "kind": string(kind)})
}

// Status reports the state machine for both media kinds.
func (h *ScanHandler) Status(c *gin.Context) {
	out := make([]dto.ScanStatusResponse, 0, 2)
	for _, kind := range []models.MediaKind{models.MediaKindImage, models.MediaKindVideo} {
		out = append(out, dto.ScanStatusResponse{
			Kind:   string(kind),
			State:  string(h.svc.State(kind)),
			Assets: len(h.svc.Snapshot(kind)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"scans": out})
}

// Reset clears all classification state. Cached decisions survive, so
// the next scan is fast.
func (h *ScanHandler) Reset(c *gin.Context) {
	h.svc.ResetData()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
