package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// VolumeSpec holds the schema definition for an immutable, deduplicated
// block-storage volume configuration bundle (spec.md §3 "Spec" / VolumeSpec
// variant).
type VolumeSpec struct {
	ent.Schema
}

// Mixin of the VolumeSpec.
func (VolumeSpec) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the VolumeSpec.
func (VolumeSpec) Fields() []ent.Field {
	return []ent.Field{
		field.String("volume_type").
			NotEmpty().
			Immutable(),
		field.Int("volume_size").
			NonNegative().
			Immutable(),
		field.String("state").
			NotEmpty().
			Immutable(),
	}
}

// Indexes of the VolumeSpec.
// S1: two Periods referencing equal attribute tuples must share one row.
func (VolumeSpec) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("volume_type", "volume_size", "state").Unique(),
	}
}
