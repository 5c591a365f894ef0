package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Resource holds the schema definition for a cloud object with a stable
// identity, tracked across its lifetime (spec.md §3 "Resource").
type Resource struct {
	ent.Schema
}

// Fields of the Resource.
func (Resource) Fields() []ent.Field {
	return []ent.Field{
		// kind is the classifier's resource-kind discriminant, e.g.
		// "OS::Nova::Server" or "OS::Cinder::Volume" (spec.md §3, §6.3).
		field.String("kind").
			NotEmpty().
			Immutable(),
		field.String("uuid").
			NotEmpty().
			MaxLen(36).
			Immutable(),
		// project is the owning tenant identifier (spec.md §3).
		field.String("project").
			NotEmpty().
			MaxLen(32).
			Immutable(),
		// updated_at is the event-time watermark: the timestamp of the
		// newest event ever applied to this resource (invariant R1).
		// It is advanced explicitly by the period reducer, never by a
		// generic ORM "touch on save" default — a stale event must be
		// rejected by comparing against the *previous* watermark.
		field.Time("updated_at").
			Default(time.Now),
	}
}

// Edges of the Resource.
func (Resource) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("periods", Period.Type),
	}
}

// Indexes of the Resource.
func (Resource) Indexes() []ent.Index {
	return []ent.Index{
		// get_or_create key (spec.md §4.4): (kind, uuid, project).
		index.Fields("kind", "uuid", "project").Unique(),
		index.Fields("project"),
	}
}
