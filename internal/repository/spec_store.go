package repository

import (
	"context"

	"entgo.io/ent/dialect/sql"

	"atmosphere.io/timeline/ent"
	"atmosphere.io/timeline/ent/instancespec"
	"atmosphere.io/timeline/ent/volumespec"
	"atmosphere.io/timeline/internal/domain"
	apperrors "atmosphere.io/timeline/internal/pkg/errors"
)

// SpecStore implements the Spec get-or-create of spec.md §4.3: immutable
// rows deduplicated by their full attribute tuple, one variant per resource
// kind (invariant S1).
type SpecStore struct{}

// NewSpecStore constructs a SpecStore.
func NewSpecStore() *SpecStore {
	return &SpecStore{}
}

// GetOrCreateInstanceSpec returns the InstanceSpec matching attrs, creating
// it if no row with this exact tuple exists yet.
func (s *SpecStore) GetOrCreateInstanceSpec(ctx context.Context, tx *ent.Tx, attrs domain.InstanceSpecAttrs) (*ent.InstanceSpec, error) {
	_, err := tx.InstanceSpec.Create().
		SetInstanceType(attrs.InstanceType).
		SetState(attrs.State).
		OnConflict(sql.ConflictColumns(instancespec.FieldInstanceType, instancespec.FieldState)).
		DoNothing().
		ID(ctx)
	if err != nil && !ent.IsConstraintError(err) && !ent.IsNotFound(err) {
		return nil, apperrors.ErrStoref(err, "insert instance spec")
	}

	row, err := tx.InstanceSpec.Query().
		Where(
			instancespec.InstanceTypeEQ(attrs.InstanceType),
			instancespec.StateEQ(attrs.State),
		).
		Only(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "re-read instance spec after get-or-create")
	}
	return row, nil
}

// GetOrCreateVolumeSpec returns the VolumeSpec matching attrs, creating it
// if no row with this exact tuple exists yet.
func (s *SpecStore) GetOrCreateVolumeSpec(ctx context.Context, tx *ent.Tx, attrs domain.VolumeSpecAttrs) (*ent.VolumeSpec, error) {
	_, err := tx.VolumeSpec.Create().
		SetVolumeType(attrs.VolumeType).
		SetVolumeSize(int(attrs.VolumeSize)).
		SetState(attrs.State).
		OnConflict(sql.ConflictColumns(volumespec.FieldVolumeType, volumespec.FieldVolumeSize, volumespec.FieldState)).
		DoNothing().
		ID(ctx)
	if err != nil && !ent.IsConstraintError(err) && !ent.IsNotFound(err) {
		return nil, apperrors.ErrStoref(err, "insert volume spec")
	}

	row, err := tx.VolumeSpec.Query().
		Where(
			volumespec.VolumeTypeEQ(attrs.VolumeType),
			volumespec.VolumeSizeEQ(int(attrs.VolumeSize)),
			volumespec.StateEQ(attrs.State),
		).
		Only(ctx)
	if err != nil {
		return nil, apperrors.ErrStoref(err, "re-read volume spec after get-or-create")
	}
	return row, nil
}
