package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"atmosphere.io/timeline/internal/domain"
	"atmosphere.io/timeline/internal/reducer"
	"atmosphere.io/timeline/internal/repository"
	"atmosphere.io/timeline/internal/testutil"
)

func newTestIngestUseCase(t *testing.T) *IngestUseCase {
	t.Helper()
	client := testutil.OpenEntPostgres(t, "ingest")
	resources := repository.NewResourceStore()
	specs := repository.NewSpecStore()
	return NewIngestUseCase(client, resources, reducer.New(resources, specs))
}

func rawInstanceEvent(generated, eventType, state string, extra map[string]any) domain.RawEvent {
	traits := []domain.RawTrait{
		{Name: "resource_id", TypeCode: domain.TraitTypeString, Value: "vm-1"},
		{Name: "project_id", TypeCode: domain.TraitTypeString, Value: "project-1"},
		{Name: "instance_type", TypeCode: domain.TraitTypeString, Value: "m1.small"},
		{Name: "state", TypeCode: domain.TraitTypeString, Value: state},
	}
	for name, value := range extra {
		switch v := value.(type) {
		case string:
			code := domain.TraitTypeString
			if name == "created_at" || name == "deleted_at" {
				code = domain.TraitTypeTimestamp
			}
			traits = append(traits, domain.RawTrait{Name: name, TypeCode: code, Value: v})
		}
	}
	return domain.RawEvent{Generated: generated, EventType: eventType, Traits: traits}
}

func TestIngestUseCase_Execute_EmptyBatchIsMalformed(t *testing.T) {
	uc := newTestIngestUseCase(t)
	_, err := uc.Execute(context.Background(), nil)
	require.Error(t, err)
}

func TestIngestUseCase_Execute_AppliesSingleEvent(t *testing.T) {
	uc := newTestIngestUseCase(t)

	events := []domain.RawEvent{
		rawInstanceEvent("2024-01-01T00:00:00", "compute.instance.create.end", "active", map[string]any{"created_at": "2024-01-01T00:00:00"}),
	}

	result, err := uc.Execute(context.Background(), events)
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)
	require.False(t, result.StoppedEarly)
}

func TestIngestUseCase_Execute_StopsEarlyOnUnsupportedEventType(t *testing.T) {
	uc := newTestIngestUseCase(t)

	events := []domain.RawEvent{
		{Generated: "2024-01-01T00:00:00", EventType: "totally.unknown.event", Traits: nil},
	}

	_, err := uc.Execute(context.Background(), events)
	require.Error(t, err)
}

func TestIngestUseCase_Execute_StopsEarlyOnIgnoredEventType(t *testing.T) {
	uc := newTestIngestUseCase(t)

	events := []domain.RawEvent{
		{Generated: "2024-01-01T00:00:00", EventType: "scheduler.run_instance", Traits: nil},
		rawInstanceEvent("2024-01-02T00:00:00", "compute.instance.create.end", "active", map[string]any{"created_at": "2024-01-02T00:00:00"}),
	}

	result, err := uc.Execute(context.Background(), events)
	require.NoError(t, err)
	require.True(t, result.StoppedEarly)
	require.Equal(t, 0, result.Applied, "the batch must stop before the second event is ever applied")
}

func TestIngestUseCase_Execute_StopsEarlyWhenReducerIgnoresEvent(t *testing.T) {
	uc := newTestIngestUseCase(t)

	events := []domain.RawEvent{
		rawInstanceEvent("2024-01-01T00:00:00", "compute.instance.delete.end", "deleted", nil),
	}

	result, err := uc.Execute(context.Background(), events)
	require.NoError(t, err)
	require.True(t, result.StoppedEarly)
	require.Equal(t, "IGNORED_EVENT", result.StopReason)
}
