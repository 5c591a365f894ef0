package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"atmosphere.io/timeline/internal/api/middleware"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
	"atmosphere.io/timeline/internal/usecase"
)

// UsageHandler serves GET /v1/resources (spec.md §6.2).
type UsageHandler struct {
	uc *usecase.UsageUseCase
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(uc *usecase.UsageUseCase) *UsageHandler {
	return &UsageHandler{uc: uc}
}

// Handle resolves the requested time range and project scope, and returns
// the projected resource timelines.
func (h *UsageHandler) Handle(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		_ = c.Error(apperrors.ErrInvalidRangef("missing or malformed start"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		_ = c.Error(apperrors.ErrInvalidRangef("missing or malformed end"))
		return
	}

	ctx := c.Request.Context()
	roles := middleware.GetRoles(ctx)

	views, err := h.uc.Execute(ctx, usecase.UsageQuery{
		Start:             start,
		End:               end,
		CallerProjectID:   middleware.GetProjectID(ctx),
		RequestedOverride: c.Query("project_id"),
		IsAdmin:           slices.Contains(roles, "admin"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, views)
}
