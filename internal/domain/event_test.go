package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRawTrait_UnmarshalJSON(t *testing.T) {
	var trait RawTrait
	require.NoError(t, json.Unmarshal([]byte(`["instance_type", 1, "v1-standard-1"]`), &trait))
	require.Equal(t, "instance_type", trait.Name)
	require.Equal(t, TraitTypeString, trait.TypeCode)
	require.Equal(t, "v1-standard-1", trait.Value)
}

func TestRawTrait_UnmarshalJSON_NotATriple(t *testing.T) {
	var trait RawTrait
	require.Error(t, json.Unmarshal([]byte(`["only_two", 1]`), &trait))
}

func TestNormalize_ParsesGeneratedAndTraits(t *testing.T) {
	raw := RawEvent{
		Generated: "2020-06-07T01:42:54.736337",
		EventType: "compute.instance.exists",
		Traits: []RawTrait{
			{Name: "resource_id", TypeCode: TraitTypeString, Value: "r"},
			{Name: "project_id", TypeCode: TraitTypeString, Value: "p"},
			{Name: "instance_type", TypeCode: TraitTypeString, Value: "v1-standard-1"},
			{Name: "state", TypeCode: TraitTypeString, Value: "ACTIVE"},
			{Name: "created_at", TypeCode: TraitTypeTimestamp, Value: "2020-06-07T01:42:52"},
			{Name: "vcpus", TypeCode: TraitTypeInteger, Value: float64(2)},
			{Name: "opaque", TypeCode: 99, Value: "pass-through"},
		},
	}

	event, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, "compute.instance.exists", event.EventType)
	require.Equal(t, time.Date(2020, 6, 7, 1, 42, 54, 736337000, time.UTC), event.Generated)

	resourceID, ok := event.TraitString("resource_id")
	require.True(t, ok)
	require.Equal(t, "r", resourceID)

	createdAt, ok := event.TraitTime("created_at")
	require.True(t, ok)
	require.Equal(t, time.Date(2020, 6, 7, 1, 42, 52, 0, time.UTC), createdAt)

	vcpus, ok := event.TraitInt("vcpus")
	require.True(t, ok)
	require.Equal(t, int64(2), vcpus)

	require.Equal(t, "pass-through", event.Traits["opaque"])
	require.False(t, event.HasTrait("deleted_at"))
}

func TestNormalize_MalformedGenerated(t *testing.T) {
	_, err := Normalize(RawEvent{Generated: "not-a-timestamp", EventType: "compute.instance.exists"})
	require.Error(t, err)
}

func TestNormalize_MalformedTraitType(t *testing.T) {
	raw := RawEvent{
		Generated: "2020-06-07T01:42:54",
		EventType: "compute.instance.exists",
		Traits: []RawTrait{
			{Name: "state", TypeCode: TraitTypeString, Value: float64(1)},
		},
	}
	_, err := Normalize(raw)
	require.Error(t, err)
}
