// Package usecase wires the domain and repository layers into the two
// operations exposed over HTTP: event ingestion and the usage query.
package usecase

import (
	"context"

	"go.uber.org/zap"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/internal/domain"
	"atmosphere.io/timeline/internal/pkg/logger"
	"atmosphere.io/timeline/internal/reducer"
	"atmosphere.io/timeline/internal/repository"
)

// IngestResult is the outcome of processing one batch (spec.md §4.7, §6.1).
type IngestResult struct {
	// Applied is the number of events fully committed.
	Applied int
	// StoppedEarly is true when a 202-class condition (Ignored/EventTooOld)
	// halted processing of the remaining batch (spec.md §9).
	StoppedEarly bool
	// StopReason, when StoppedEarly, is the code of the condition that
	// stopped the batch.
	StopReason string
}

// IngestUseCase drives the per-event pipeline of spec.md §4.7: normalize,
// classify, Resource get-or-create, Period reduce, commit.
type IngestUseCase struct {
	client    *ent.Client
	resources *repository.ResourceStore
	reducer   *reducer.Reducer
}

// NewIngestUseCase constructs an IngestUseCase.
func NewIngestUseCase(client *ent.Client, resources *repository.ResourceStore, red *reducer.Reducer) *IngestUseCase {
	return &IngestUseCase{client: client, resources: resources, reducer: red}
}

// Execute processes rawEvents in order, stopping at the first Ignored,
// EventTooOld, or Unsupported condition per spec.md §4.7.
func (uc *IngestUseCase) Execute(ctx context.Context, rawEvents []domain.RawEvent) (IngestResult, error) {
	if len(rawEvents) == 0 {
		return IngestResult{}, apperrorsMalformedEmptyBatch()
	}

	var result IngestResult
	for i, raw := range rawEvents {
		event, err := domain.Normalize(raw)
		if err != nil {
			return result, wrapMalformed(err)
		}

		decision := domain.Classify(event.EventType)
		if decision.Verdict == domain.VerdictUnsupported {
			return result, unsupportedTypeErr(event.EventType)
		}
		if decision.Verdict == domain.VerdictIgnored {
			logger.Warn("event ignored by classifier",
				zap.String("event_type", event.EventType),
				zap.Int("batch_index", i),
				zap.Int("batch_remaining", len(rawEvents)-i-1),
			)
			result.StoppedEarly = true
			result.StopReason = "IGNORED_EVENT"
			return result, nil
		}

		resourceID, _ := event.TraitString("resource_id")
		projectID, _ := event.TraitString("project_id")

		stopped, stopReason, err := uc.applyOne(ctx, decision, resourceID, projectID, event)
		if err != nil {
			return result, err
		}
		if stopped {
			logger.Warn("event processing stopped early",
				zap.String("event_type", event.EventType),
				zap.String("resource_kind", string(decision.ResourceKind)),
				zap.String("resource_uuid", resourceID),
				zap.String("reason", stopReason),
				zap.Int("batch_index", i),
				zap.Int("batch_remaining", len(rawEvents)-i-1),
			)
			result.StoppedEarly = true
			result.StopReason = stopReason
			return result, nil
		}

		result.Applied++
	}
	return result, nil
}

func (uc *IngestUseCase) applyOne(ctx context.Context, decision domain.Decision, resourceUUID, projectID string, event domain.Event) (stopped bool, reason string, err error) {
	txErr := repository.WithTx(ctx, uc.client, func(tx *ent.Tx) error {
		r, storeErr := uc.resources.GetOrCreate(ctx, tx, string(decision.ResourceKind), resourceUUID, projectID, event.Generated)
		if storeErr != nil {
			return storeErr
		}

		reduceErr := uc.reducer.Reduce(ctx, tx, r, event, decision)
		if reduceErr == nil {
			return nil
		}

		if appErr, ok := asAppError(reduceErr); ok {
			switch appErr.HTTPStatus {
			case 202:
				stopped = true
				reason = appErr.Code
				return nil
			}
		}
		return reduceErr
	})
	if txErr != nil {
		return false, "", txErr
	}
	return stopped, reason, nil
}
