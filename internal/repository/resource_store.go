package repository

import (
	"context"
	"time"

	"entgo.io/ent/dialect/sql"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/resource"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
)

// ResourceStore implements the Resource get-or-create of spec.md §4.4.
type ResourceStore struct{}

// NewResourceStore constructs a ResourceStore.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{}
}

// GetOrCreate returns the Resource keyed by (kind, uuid, project), creating
// it with updated_at = generatedAt if absent. The returned row is locked
// with SELECT ... FOR UPDATE so the caller can serialize the period reducer
// against concurrent events for the same resource.
//
// A speculative insert is attempted first; on a uniqueness conflict (a
// concurrent writer won the race) the conflict is ignored and the
// authoritative row is fetched by the same re-read below, under lock. This
// is the Ent-native equivalent of "insert in a nested scope, roll back on
// conflict, re-read" (spec.md §4.4, §9).
func (s *ResourceStore) GetOrCreate(ctx context.Context, tx *ent.Tx, kind, uuid, project string, generatedAt time.Time) (*ent.Resource, error) {
	_, err := tx.Resource.Create().
		SetKind(kind).
		SetUUID(uuid).
		SetProject(project).
		SetUpdatedAt(generatedAt).
		OnConflict(sql.ConflictColumns(resource.FieldKind, resource.FieldUUID, resource.FieldProject)).
		DoNothing().
		ID(ctx)
	if err != nil && !ent.IsConstraintError(err) && !ent.IsNotFound(err) {
		return nil, apperrors.ErrStoref(err, "insert resource")
	}

	row, err := tx.Resource.Query().
		Where(
			resource.KindEQ(kind),
			resource.UUIDEQ(uuid),
			resource.ProjectEQ(project),
		).
		ForUpdate().
		Only(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "re-read resource after get-or-create")
	}
	return row, nil
}

// AdvanceWatermark sets updated_at within tx, so a racing stale event
// elsewhere is rejected against the new value once tx commits (spec.md §4.5
// step 2, §9 "Watermark as concurrency primitive"). The update is not
// committed separately: if tx is rolled back because the rest of this
// event's processing returns an error, the advance is rolled back with it.
func (s *ResourceStore) AdvanceWatermark(ctx context.Context, tx *ent.Tx, r *ent.Resource, generatedAt time.Time) (*ent.Resource, error) {
	updated, err := tx.Resource.UpdateOne(r).
		SetUpdatedAt(generatedAt).
		Save(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "advance resource watermark")
	}
	return updated, nil
}
