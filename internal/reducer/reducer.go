// Package reducer implements the Period Reducer state machine of
// spec.md §4.5 — the heart of the event reduction engine.
package reducer

import (
	"context"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/period"
	"atmosphere.io/timeline/ent/resource"
	"atmosphere.io/timeline/internal/domain"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
	"atmosphere.io/timeline/internal/repository"
)

// Reducer applies one normalized event to a locked Resource, per the state
// machine in spec.md §4.5.
type Reducer struct {
	resources *repository.ResourceStore
	specs     *repository.SpecStore
}

// New constructs a Reducer.
func New(resources *repository.ResourceStore, specs *repository.SpecStore) *Reducer {
	return &Reducer{resources: resources, specs: specs}
}

// Reduce runs steps 1-10 of spec.md §4.5 against the already-locked
// Resource row r, within tx. decision carries the classifier's verdict for
// this event (resource kind / spec kind); it must be domain.VerdictHandled.
func (red *Reducer) Reduce(ctx context.Context, tx *ent.Tx, r *ent.Resource, e domain.Event, decision domain.Decision) error {
	// Step 1: stale-event guard.
	if r.UpdatedAt.After(e.Generated) {
		return apperrors.ErrEventTooOldf()
	}

	// Step 2: advance watermark and persist immediately, so a racing
	// stale event for this resource observed by another request is
	// rejected against the new value, not the old one.
	updated, err := red.resources.AdvanceWatermark(ctx, tx, r, e.Generated)
	if err != nil {
		return err
	}
	r = updated

	// Step 3: ignore filter.
	if domain.IsEventIgnored(decision.ResourceKind, e) {
		return apperrors.ErrIgnoredEventf("event kind/state combination is not actionable")
	}

	// Step 4: resolve spec.
	instanceSpec, volumeSpec, err := red.resolveSpec(ctx, tx, e, decision)
	if err != nil {
		return err
	}

	// Step 5: bootstrap first period if the resource has none yet.
	count, err := tx.Period.Query().Where(period.HasResourceWith(resource.IDEQ(r.ID))).Count(ctx)
	if err != nil {
		return apperrors.ErrStoref(err, "count periods")
	}
	if count == 0 {
		startMs, ok := domain.PeriodStartTrait(decision.ResourceKind, e)
		if !ok {
			return apperrors.ErrIgnoredEventf("no created_at/launched_at trait to bootstrap a period")
		}
		if err := red.createOpenPeriod(ctx, tx, r, decision.SpecKind, startMs, instanceSpec, volumeSpec); err != nil {
			return err
		}
		// Fall through into steps 6-10: the same event may also carry a
		// deletion or spec change (e.g. deleted_at alongside created_at),
		// which must still close/split the period just bootstrapped.
	}

	// Step 6: locate the open period.
	open, err := red.openPeriod(ctx, tx, r)
	if err != nil {
		return err
	}

	// Step 7: no open period + non-deletion event.
	deletedAtMs, hasDeletedAt := e.TraitTime("deleted_at")
	if open == nil {
		if hasDeletedAt {
			// Already closed; a duplicate/late deletion event is a no-op.
			return nil
		}
		return apperrors.ErrEventTooOldf()
	}

	// Step 8: deletion event closes the open period.
	if hasDeletedAt {
		_, err := tx.Period.UpdateOne(open).
			SetEndedAtMs(deletedAtMs.UnixMilli()).
			Save(ctx)
		if err != nil {
			return apperrors.ErrStoref(err, "close period on deletion")
		}
		return nil
	}

	// Step 9: spec change splits the period at event time.
	changed, err := red.specChanged(ctx, open, decision.SpecKind, instanceSpec, volumeSpec)
	if err != nil {
		return err
	}
	if changed {
		splitMs := e.Generated.UnixMilli()
		if _, err := tx.Period.UpdateOne(open).SetEndedAtMs(splitMs).Save(ctx); err != nil {
			return apperrors.ErrStoref(err, "close period on spec change")
		}
		return red.createOpenPeriod(ctx, tx, r, decision.SpecKind, splitMs, instanceSpec, volumeSpec)
	}

	// Step 10: no-op. updated_at was already advanced in step 2.
	return nil
}

func (red *Reducer) resolveSpec(ctx context.Context, tx *ent.Tx, e domain.Event, decision domain.Decision) (*ent.InstanceSpec, *ent.VolumeSpec, error) {
	switch decision.SpecKind {
	case domain.SpecKindInstance:
		attrs, err := domain.ProjectInstanceSpec(e)
		if err != nil {
			return nil, nil, apperrors.ErrMalformedEventf(err.Error())
		}
		spec, err := red.specs.GetOrCreateInstanceSpec(ctx, tx, attrs)
		if err != nil {
			return nil, nil, err
		}
		return spec, nil, nil
	case domain.SpecKindVolume:
		attrs, err := domain.ProjectVolumeSpec(e)
		if err != nil {
			return nil, nil, apperrors.ErrMalformedEventf(err.Error())
		}
		spec, err := red.specs.GetOrCreateVolumeSpec(ctx, tx, attrs)
		if err != nil {
			return nil, nil, err
		}
		return nil, spec, nil
	default:
		return nil, nil, apperrors.ErrUnsupportedEventTypef(e.EventType)
	}
}

func (red *Reducer) createOpenPeriod(ctx context.Context, tx *ent.Tx, r *ent.Resource, specKind domain.SpecKind, startMs int64, instanceSpec *ent.InstanceSpec, volumeSpec *ent.VolumeSpec) error {
	builder := tx.Period.Create().
		SetResource(r).
		SetStartedAtMs(startMs)

	switch specKind {
	case domain.SpecKindInstance:
		builder = builder.SetSpecKind(period.SpecKindInstance).SetInstanceSpec(instanceSpec)
	case domain.SpecKindVolume:
		builder = builder.SetSpecKind(period.SpecKindVolume).SetVolumeSpec(volumeSpec)
	}

	if _, err := builder.Save(ctx); err != nil {
		return apperrors.ErrStoref(err, "create period")
	}
	return nil
}

// openPeriod returns the unique Period with null ended_at, or nil if none
// exists. More than one is a MultipleOpenPeriods invariant violation
// (spec.md §4.5.2).
func (red *Reducer) openPeriod(ctx context.Context, tx *ent.Tx, r *ent.Resource) (*ent.Period, error) {
	rows, err := tx.Period.Query().
		Where(
			period.HasResourceWith(resource.IDEQ(r.ID)),
			period.EndedAtMsIsNil(),
		).
		All(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "query open period")
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, apperrors.ErrMultipleOpenPeriodsf(r.UUID)
	}
}

func (red *Reducer) specChanged(ctx context.Context, open *ent.Period, specKind domain.SpecKind, instanceSpec *ent.InstanceSpec, volumeSpec *ent.VolumeSpec) (bool, error) {
	switch specKind {
	case domain.SpecKindInstance:
		currentID, err := open.QueryInstanceSpec().OnlyID(ctx)
		if err != nil {
			return false, apperrors.ErrStoref(err, "load period instance spec")
		}
		return currentID != instanceSpec.ID, nil
	case domain.SpecKindVolume:
		currentID, err := open.QueryVolumeSpec().OnlyID(ctx)
		if err != nil {
			return false, apperrors.ErrStoref(err, "load period volume spec")
		}
		return currentID != volumeSpec.ID, nil
	default:
		return false, nil
	}
}
