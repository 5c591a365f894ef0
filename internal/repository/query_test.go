package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/period"
	"atmosphere.io/timeline/internal/testutil"
)

func mustResource(t *testing.T, ctx context.Context, client *ent.Client, uuid, project string) *ent.Resource {
	t.Helper()
	r, err := client.Resource.Create().
		SetKind("OS::Nova::Server").
		SetUUID(uuid).
		SetProject(project).
		SetUpdatedAt(time.Now()).
		Save(ctx)
	require.NoError(t, err)
	return r
}

func mustInstanceSpec(t *testing.T, ctx context.Context, client *ent.Client, instanceType, state string) *ent.InstanceSpec {
	t.Helper()
	s, err := client.InstanceSpec.Create().SetInstanceType(instanceType).SetState(state).Save(ctx)
	require.NoError(t, err)
	return s
}

func TestRangeQueryProjector_ClampsAndFiltersByProject(t *testing.T) {
	ctx := context.Background()
	client := testutil.OpenEntPostgres(t, "query")
	defer client.Close()

	r := mustResource(t, ctx, client, "vm-1", "project-1")
	spec := mustInstanceSpec(t, ctx, client, "m1.small", "active")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ended := start.Add(48 * time.Hour)
	_, err := client.Period.Create().
		SetResource(r).
		SetSpecKind(period.SpecKindInstance).
		SetInstanceSpec(spec).
		SetStartedAtMs(start.UnixMilli()).
		SetEndedAtMs(ended.UnixMilli()).
		Save(ctx)
	require.NoError(t, err)

	other := mustResource(t, ctx, client, "vm-2", "project-2")
	_, err = client.Period.Create().
		SetResource(other).
		SetSpecKind(period.SpecKindInstance).
		SetInstanceSpec(spec).
		SetStartedAtMs(start.UnixMilli()).
		SetEndedAtMs(ended.UnixMilli()).
		Save(ctx)
	require.NoError(t, err)

	projector := NewRangeQueryProjector(client)

	queryStart := start.Add(24 * time.Hour)
	queryEnd := ended.Add(24 * time.Hour)
	views, err := projector.GetAllByTimeRange(ctx, queryStart, queryEnd, "project-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "vm-1", views[0].UUID)
	require.Len(t, views[0].Periods, 1)

	pv := views[0].Periods[0]
	require.True(t, pv.StartedAt.Equal(queryStart), "period start should clamp to the query window start")
	require.True(t, pv.EndedAt.Equal(ended), "period end should clamp to the period's own end, which is inside the window")
	require.Equal(t, "instance", pv.Spec.Kind)
	require.Equal(t, "m1.small", pv.Spec.InstanceType)
}

func TestRangeQueryProjector_DropsZeroLengthClampedPeriods(t *testing.T) {
	ctx := context.Background()
	client := testutil.OpenEntPostgres(t, "query")
	defer client.Close()

	r := mustResource(t, ctx, client, "vm-1", "project-1")
	spec := mustInstanceSpec(t, ctx, client, "m1.small", "active")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.Period.Create().
		SetResource(r).
		SetSpecKind(period.SpecKindInstance).
		SetInstanceSpec(spec).
		SetStartedAtMs(start.UnixMilli()).
		SetEndedAtMs(start.UnixMilli()).
		Save(ctx)
	require.NoError(t, err)

	projector := NewRangeQueryProjector(client)
	views, err := projector.GetAllByTimeRange(ctx, start.Add(-time.Hour), start.Add(time.Hour), "project-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Empty(t, views[0].Periods, "a period clamped to zero length must be dropped")
}
