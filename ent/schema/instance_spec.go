package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// InstanceSpec holds the schema definition for an immutable, deduplicated
// compute-instance configuration bundle (spec.md §3 "Spec" / InstanceSpec
// variant).
type InstanceSpec struct {
	ent.Schema
}

// Mixin of the InstanceSpec.
func (InstanceSpec) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the InstanceSpec.
func (InstanceSpec) Fields() []ent.Field {
	return []ent.Field{
		field.String("instance_type").
			NotEmpty().
			Immutable(),
		field.String("state").
			NotEmpty().
			Immutable(),
	}
}

// Indexes of the InstanceSpec.
// S1: two Periods referencing equal attribute tuples must share one row.
func (InstanceSpec) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("instance_type", "state").Unique(),
	}
}
