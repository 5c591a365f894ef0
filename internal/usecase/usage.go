package usecase

import (
	"context"
	"time"

	apperrors "atmosphere.io/timeline/internal/pkg/errors"
	"atmosphere.io/timeline/internal/repository"
)

// UsageQuery is the input to the usage use case (spec.md §6.2).
type UsageQuery struct {
	Start             time.Time
	End               time.Time
	CallerProjectID   string
	RequestedOverride string
	IsAdmin           bool
}

// UsageUseCase wraps the Range Query Projector with the authorization rule
// of spec.md §6.2: callers see their own project by default; an admin role
// may override via the project_id query parameter.
type UsageUseCase struct {
	projector *repository.RangeQueryProjector
}

// NewUsageUseCase constructs a UsageUseCase.
func NewUsageUseCase(projector *repository.RangeQueryProjector) *UsageUseCase {
	return &UsageUseCase{projector: projector}
}

// Execute resolves the effective project scope and returns the projected
// resource timelines intersecting [Start, End].
func (uc *UsageUseCase) Execute(ctx context.Context, q UsageQuery) ([]repository.ResourceView, error) {
	if q.End.Before(q.Start) {
		return nil, apperrors.ErrInvalidRangef("end must not be before start")
	}

	// A non-admin's project_id override is silently ignored rather than
	// rejected: the caller falls back to its own project either way.
	project := q.CallerProjectID
	if q.RequestedOverride != "" && q.IsAdmin {
		project = q.RequestedOverride
	}

	return uc.projector.GetAllByTimeRange(ctx, q.Start, q.End, project)
}
