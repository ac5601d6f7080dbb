package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/mediascan/internal/library"
	"github.com/your-org/mediascan/internal/swipe"
	"github.com/your-org/mediascan/pkg/dto"
)

type SwipeHandler struct {
	ledger *swipe.Ledger
	lib    *library.MediaLibrary
}

func NewSwipeHandler(ledger *swipe.Ledger, lib *library.MediaLibrary) *SwipeHandler {
	return &SwipeHandler{ledger: ledger, lib: lib}
}

// Mark records a keep/discard verdict for one asset.
func (h *SwipeHandler) Mark(c *gin.Context) {
	var req dto.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.ledger.Mark(c.Param("id"), *req.Keep)
	c.Status(http.StatusNoContent)
}

// Clear forgets one asset's verdict.
func (h *SwipeHandler) Clear(c *gin.Context) {
	h.ledger.Clear(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Status summarizes the review ledger.
func (h *SwipeHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SwipeStatusResponse{
		PendingDeletion: h.ledger.PendingDeletion(),
		Discards:        h.ledger.Discards(),
	})
}

// Commit deletes every asset marked for discard and clears its verdict.
func (h *SwipeHandler) Commit(c *gin.Context) {
	ids := h.ledger.Discards()
	if len(ids) == 0 {
		c.JSON(http.StatusOK, dto.DeleteMediaResponse{Deleted: 0})
		return
	}

	if err := h.lib.Delete(c.Request.Context(), ids); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, id := range ids {
		h.ledger.Clear(id)
	}

	c.JSON(http.StatusOK, dto.DeleteMediaResponse{Deleted: len(ids)})
}
