package handlers

import (
	"bytes"
	"image/jpeg"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/observability"
	"github.com/your-org/mediascan/internal/scan"
	"github.com/your-org/mediascan/internal/swipe"
	"github.com/your-org/mediascan/pkg/dto"
)

type MediaHandler struct {
	svc    *scan.Service
	lib    *library.MediaLibrary
	ledger *swipe.Ledger
}

func NewMediaHandler(svc *scan.Service, lib *library.MediaLibrary, ledger *swipe.Ledger) *MediaHandler {
	return &MediaHandler{svc: svc, lib: lib, ledger: ledger}
}

// Categories lists every category with its running count and byte total.
func (h *MediaHandler) Categories(c *gin.Context) {
	aggs := h.svc.Aggregates()
	out := make([]dto.CategoryResponse, 0, len(models.AllCategories))
	for _, cat := range models.AllCategories {
		agg := aggs[cat]
		out = append(out, dto.CategoryResponse{
			Category:  string(cat),
			Count:     agg.Count,
			TotalSize: agg.TotalSize,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// Media returns a category's contents as ordered sections.
func (h *MediaHandler) Media(c *gin.Context) {
	cat, ok := parseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
		return
	}

	sections := h.svc.Media(cat)
	resp := dto.MediaResponse{Category: string(cat), Sections: make([]dto.SectionResponse, 0, len(sections))}
	for _, sec := range sections {
		sr := dto.SectionResponse{Key: sec.Key, Assets: make([]dto.AssetResponse, 0, len(sec.Assets))}
		if !sec.Day.IsZero() {
			sr.Day = sec.Day.Format("2006-01-02")
		}
		for _, ref := range sec.Assets {
			sr.Assets = append(sr.Assets, toAssetResponse(ref))
			resp.Total++
		}
		resp.Sections = append(resp.Sections, sr)
	}
	c.JSON(http.StatusOK, resp)
}

// Thumbnail renders an asset scaled to the requested edge (default 256,
// capped at 1024) and serves it as JPEG.
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	size := 256
	if raw := c.Query("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 16 || v > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 16 and 1024"})
			return
		}
		size = v
	}

	start := time.Now()
	img, err := h.lib.Render(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	observability.ArtifactFetchDuration.WithLabelValues("thumbnail").Observe(time.Since(start).Seconds())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode thumbnail"})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

// Delete removes a batch of assets from the library. Classification
// state catches up through the change-event stream.
func (h *MediaHandler) Delete(c *gin.Context) {
	var req dto.DeleteMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.lib.Delete(c.Request.Context(), req.AssetIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, id := range req.AssetIDs {
		h.ledger.Clear(id)
	}

	c.JSON(http.StatusOK, dto.DeleteMediaResponse{Deleted: len(req.AssetIDs)})
}

func parseCategory(raw string) (models.Category, bool) {
	for _, cat := range models.AllCategories {
		if string(cat) == raw {
			return cat, true
		}
	}
	return "", false
}

func toAssetResponse(ref models.AssetRef) dto.AssetResponse {
	return dto.AssetResponse{
		ID:           ref.ID,
		CreatedAt:    ref.CreatedAt.Format(time.RFC3339),
		Width:        ref.Width,
		Height:       ref.Height,
		SizeBytes:    ref.SizeBytes,
		IsScreenshot: ref.IsScreenshot,
		Latitude:     ref.Latitude,
		Longitude:    ref.Longitude,
		ThumbnailURL: "/v1/media/" + ref.ID + "/thumbnail",
	}
}
