package reducer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/period"
	"atmosphere.io/timeline/internal/domain"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
	"atmosphere.io/timeline/internal/repository"
	"atmosphere.io/timeline/internal/testutil"
)

func newTestReducer(t *testing.T) (*Reducer, *ent.Client) {
	t.Helper()
	client := testutil.OpenEntPostgres(t, "reducer")
	return New(repository.NewResourceStore(), repository.NewSpecStore()), client
}

func instanceEvent(t *testing.T, generated, createdAt, state string, extra map[string]string) domain.Event {
	t.Helper()
	traits := []domain.RawTrait{
		{Name: "instance_type", TypeCode: domain.TraitTypeString, Value: "m1.small"},
		{Name: "state", TypeCode: domain.TraitTypeString, Value: state},
	}
	if createdAt != "" {
		traits = append(traits, domain.RawTrait{Name: "created_at", TypeCode: domain.TraitTypeTimestamp, Value: createdAt})
	}
	for name, value := range extra {
		traits = append(traits, domain.RawTrait{Name: name, TypeCode: domain.TraitTypeTimestamp, Value: value})
	}
	e, err := domain.Normalize(domain.RawEvent{Generated: generated, EventType: "compute.instance.create.end", Traits: traits})
	require.NoError(t, err)
	return e
}

func getOrCreateResource(t *testing.T, ctx context.Context, tx *ent.Tx, generated time.Time) *ent.Resource {
	t.Helper()
	r, err := repository.NewResourceStore().GetOrCreate(ctx, tx, string(domain.ResourceKindInstance), "vm-1", "project-1", generated)
	require.NoError(t, err)
	return r
}

func TestReducer_BootstrapsFirstPeriod(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	e := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "active", nil)
	decision := domain.Classify(e.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, e.Generated)
		return red.Reduce(ctx, tx, r, e, decision)
	})
	require.NoError(t, err)

	periods, err := client.Period.Query().All(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	require.Nil(t, periods[0].EndedAtMs)
}

func TestReducer_DeletionClosesOpenPeriod(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	bootstrap := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "active", nil)
	decision := domain.Classify(bootstrap.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, bootstrap.Generated)
		return red.Reduce(ctx, tx, r, bootstrap, decision)
	})
	require.NoError(t, err)

	deletion := instanceEvent(t, "2024-01-02T00:00:00", "2024-01-01T00:00:00", "deleted", map[string]string{"deleted_at": "2024-01-02T00:00:00"})
	err = repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, deletion.Generated)
		return red.Reduce(ctx, tx, r, deletion, decision)
	})
	require.NoError(t, err)

	closed, err := client.Period.Query().Only(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed.EndedAtMs)
}

func TestReducer_SpecChangeSplitsPeriod(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	bootstrap := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "active", nil)
	decision := domain.Classify(bootstrap.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, bootstrap.Generated)
		return red.Reduce(ctx, tx, r, bootstrap, decision)
	})
	require.NoError(t, err)

	resize, err := domain.Normalize(domain.RawEvent{
		Generated: "2024-01-02T00:00:00",
		EventType: "compute.instance.resize.end",
		Traits: []domain.RawTrait{
			{Name: "instance_type", TypeCode: domain.TraitTypeString, Value: "m1.large"},
			{Name: "state", TypeCode: domain.TraitTypeString, Value: "active"},
		},
	})
	require.NoError(t, err)

	err = repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, resize.Generated)
		return red.Reduce(ctx, tx, r, resize, decision)
	})
	require.NoError(t, err)

	periods, err := client.Period.Query().Order(ent.Asc(period.FieldStartedAtMs)).All(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	require.NotNil(t, periods[0].EndedAtMs)
	require.Nil(t, periods[1].EndedAtMs)
}

func TestReducer_StaleEventRejected(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	newer := instanceEvent(t, "2024-01-02T00:00:00", "2024-01-02T00:00:00", "active", nil)
	decision := domain.Classify(newer.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, newer.Generated)
		return red.Reduce(ctx, tx, r, newer, decision)
	})
	require.NoError(t, err)

	stale := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "active", nil)
	err = repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, stale.Generated)
		return red.Reduce(ctx, tx, r, stale, decision)
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeEventTooOld, appErr.Code)
}

func TestReducer_IgnoredDeletionAnnouncementWithoutTimestamp(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	e := instanceEvent(t, "2024-01-01T00:00:00", "", "deleted", nil)
	decision := domain.Classify(e.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, e.Generated)
		return red.Reduce(ctx, tx, r, e, decision)
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeIgnoredEvent, appErr.Code)
}

func TestReducer_BootstrapAndDeletionInSameEventClosesPeriod(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	e := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "deleted", map[string]string{"deleted_at": "2024-01-01T00:00:00"})
	decision := domain.Classify(e.EventType)

	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, e.Generated)
		return red.Reduce(ctx, tx, r, e, decision)
	})
	require.NoError(t, err)

	periods, err := client.Period.Query().All(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 1, "bootstrap must still run steps 6-10 on the same event instead of returning early")
	require.NotNil(t, periods[0].EndedAtMs, "a created_at+deleted_at event must yield an already-closed period, not one left open forever")
	require.Equal(t, periods[0].StartedAtMs, *periods[0].EndedAtMs)
}

func TestReducer_DuplicateDeletionWithNoOpenPeriodIsNoOp(t *testing.T) {
	ctx := context.Background()
	red, client := newTestReducer(t)
	defer client.Close()

	bootstrap := instanceEvent(t, "2024-01-01T00:00:00", "2024-01-01T00:00:00", "active", nil)
	decision := domain.Classify(bootstrap.EventType)
	err := repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, bootstrap.Generated)
		return red.Reduce(ctx, tx, r, bootstrap, decision)
	})
	require.NoError(t, err)

	first := instanceEvent(t, "2024-01-02T00:00:00", "2024-01-01T00:00:00", "deleted", map[string]string{"deleted_at": "2024-01-02T00:00:00"})
	err = repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, first.Generated)
		return red.Reduce(ctx, tx, r, first, decision)
	})
	require.NoError(t, err)

	duplicate := instanceEvent(t, "2024-01-03T00:00:00", "2024-01-01T00:00:00", "deleted", map[string]string{"deleted_at": "2024-01-02T00:00:00"})
	err = repository.WithTx(ctx, client, func(tx *ent.Tx) error {
		r := getOrCreateResource(t, ctx, tx, duplicate.Generated)
		return red.Reduce(ctx, tx, r, duplicate, decision)
	})
	require.NoError(t, err, "a duplicate late deletion with no open period is a no-op, not an error")
}
