// Package handlers implements the HTTP surface of the resource timeline
// service: event ingestion and the usage query, plus health probes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atmosphere.io/timeline/internal/domain"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
	"atmosphere.io/timeline/internal/usecase"
)

// IngestHandler serves POST /v1/event (spec.md §6.1).
type IngestHandler struct {
	uc *usecase.IngestUseCase
}

// NewIngestHandler constructs an IngestHandler.
func NewIngestHandler(uc *usecase.IngestUseCase) *IngestHandler {
	return &IngestHandler{uc: uc}
}

// Handle processes a JSON array of events.
func (h *IngestHandler) Handle(c *gin.Context) {
	var rawEvents []domain.RawEvent
	if err := c.ShouldBindJSON(&rawEvents); err != nil {
		_ = c.Error(apperrors.ErrMalformedEventf(err.Error()))
		return
	}

	result, err := h.uc.Execute(c.Request.Context(), rawEvents)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if result.StoppedEarly {
		c.JSON(http.StatusAccepted, gin.H{
			"applied": result.Applied,
			"reason":  result.StopReason,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
