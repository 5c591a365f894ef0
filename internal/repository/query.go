package repository

import (
	"context"
	"sort"
	"time"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/period"
	"atmosphere.io/timeline/ent/resource"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
)

// SpecView is a detached, variant-tagged projection of a Period's Spec
// (spec.md §4.6, §6.2).
type SpecView struct {
	Kind         string `json:"kind"`
	InstanceType string `json:"instance_type,omitempty"`
	VolumeType   string `json:"volume_type,omitempty"`
	VolumeSize   int    `json:"volume_size,omitempty"`
	State        string `json:"state,omitempty"`
}

// PeriodView is a detached, clamped projection of a Period (spec.md §4.6).
// It is a plain value struct, never a tracked Ent entity, so clamping
// cannot write back to the database.
type PeriodView struct {
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Seconds   float64   `json:"seconds"`
	Spec      SpecView  `json:"spec"`
}

// ResourceView is a detached projection of a Resource and its clamped
// Periods (spec.md §6.2 response shape).
type ResourceView struct {
	UUID      string       `json:"uuid"`
	Kind      string       `json:"type"`
	Project   string       `json:"project"`
	UpdatedAt time.Time    `json:"updated_at"`
	Periods   []PeriodView `json:"periods"`
}

// RangeQueryProjector implements spec.md §4.6: get_all_by_time_range.
type RangeQueryProjector struct {
	client *ent.Client
}

// NewRangeQueryProjector constructs a RangeQueryProjector.
func NewRangeQueryProjector(client *ent.Client) *RangeQueryProjector {
	return &RangeQueryProjector{client: client}
}

// GetAllByTimeRange returns resources having at least one Period
// intersecting [start, end], with Periods clamped to that window and
// zero-length clamped periods dropped. If project is non-empty, results
// are filtered to that project.
func (p *RangeQueryProjector) GetAllByTimeRange(ctx context.Context, start, end time.Time, project string) ([]ResourceView, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	query := p.client.Resource.Query().
		Where(resource.HasPeriodsWith(
			period.StartedAtMsLTE(endMs),
			period.Or(
				period.EndedAtMsIsNil(),
				period.EndedAtMsGTE(startMs),
			),
		)).
		WithPeriods(func(pq *ent.PeriodQuery) {
			pq.Where(
				period.StartedAtMsLTE(endMs),
				period.Or(
					period.EndedAtMsIsNil(),
					period.EndedAtMsGTE(startMs),
				),
			).
				WithInstanceSpec().
				WithVolumeSpec().
				Order(ent.Asc(period.FieldStartedAtMs))
		})

	if project != "" {
		query = query.Where(resource.ProjectEQ(project))
	}

	rows, err := query.All(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "range query resources")
	}

	views := make([]ResourceView, 0, len(rows))
	for _, r := range rows {
		view := ResourceView{
			UUID:      r.UUID,
			Kind:      r.Kind,
			Project:   r.Project,
			UpdatedAt: r.UpdatedAt,
		}
		for _, per := range r.Edges.Periods {
			pv, ok := clampPeriod(per, start, end)
			if !ok {
				continue
			}
			view.Periods = append(view.Periods, pv)
		}
		sort.Slice(view.Periods, func(i, j int) bool {
			return view.Periods[i].StartedAt.Before(view.Periods[j].StartedAt)
		})
		views = append(views, view)
	}
	return views, nil
}

func clampPeriod(per *ent.Period, start, end time.Time) (PeriodView, bool) {
	startedAt := time.UnixMilli(per.StartedAtMs)
	if startedAt.Before(start) {
		startedAt = start
	}

	endedAt := end
	if per.EndedAtMs != nil {
		candidate := time.UnixMilli(*per.EndedAtMs)
		if candidate.Before(end) {
			endedAt = candidate
		}
	}

	seconds := endedAt.Sub(startedAt).Seconds()
	if seconds <= 0 {
		return PeriodView{}, false
	}

	spec := SpecView{}
	switch per.SpecKind {
	case "instance":
		if per.Edges.InstanceSpec != nil {
			spec.Kind = "instance"
			spec.InstanceType = per.Edges.InstanceSpec.InstanceType
			spec.State = per.Edges.InstanceSpec.State
		}
	case "volume":
		if per.Edges.VolumeSpec != nil {
			spec.Kind = "volume"
			spec.VolumeType = per.Edges.VolumeSpec.VolumeType
			spec.VolumeSize = per.Edges.VolumeSpec.VolumeSize
			spec.State = per.Edges.VolumeSpec.State
		}
	}

	return PeriodView{
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Seconds:   seconds,
		Spec:      spec,
	}, true
}
