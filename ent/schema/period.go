package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Period holds the schema definition for a half-open interval
// [started_at, ended_at) during which a Resource existed under one Spec
// (spec.md §3 "Period").
type Period struct {
	ent.Schema
}

// Fields of the Period.
func (Period) Fields() []ent.Field {
	return []ent.Field{
		// Persisted as milliseconds since epoch, signed 64-bit (spec.md §6.4).
		// Round-tripping through this representation truncates
		// sub-millisecond precision; intentional per spec.md §9.
		field.Int64("started_at_ms"),
		field.Int64("ended_at_ms").
			Optional().
			Nillable(),
		// spec_kind disambiguates which of the two optional Spec edges
		// below is populated. Ent has no single-table polymorphic
		// inheritance like the source ORM's `polymorphic_on`; two
		// nullable edges discriminated by this field is the idiomatic
		// Ent equivalent.
		field.Enum("spec_kind").
			Values("instance", "volume").
			Immutable(),
	}
}

// Edges of the Period.
func (Period) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("resource", Resource.Type).
			Ref("periods").
			Unique().
			Required().
			Immutable(),
		edge.To("instance_spec", InstanceSpec.Type).
			Unique().
			Immutable(),
		edge.To("volume_spec", VolumeSpec.Type).
			Unique().
			Immutable(),
	}
}

// Indexes of the Period.
func (Period) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("started_at_ms"),
		index.Fields("ended_at_ms"),
	}
}
