package domain

import "fmt"

// InstanceSpecAttrs is the attribute tuple identifying an InstanceSpec
// (spec.md §3). Two events projecting to equal attrs must resolve to the
// same Spec row (invariant S1).
type InstanceSpecAttrs struct {
	InstanceType string
	State        string
}

// VolumeSpecAttrs is the attribute tuple identifying a VolumeSpec (spec.md §3).
type VolumeSpecAttrs struct {
	VolumeType string
	VolumeSize int64
	State      string
}

// ProjectInstanceSpec extracts the InstanceSpec attribute tuple from a
// normalized event's traits (spec.md §4.3).
func ProjectInstanceSpec(e Event) (InstanceSpecAttrs, error) {
	instanceType, ok := e.TraitString("instance_type")
	if !ok {
		return InstanceSpecAttrs{}, fmt.Errorf("missing trait instance_type")
	}
	state, ok := e.TraitString("state")
	if !ok {
		return InstanceSpecAttrs{}, fmt.Errorf("missing trait state")
	}
	return InstanceSpecAttrs{InstanceType: instanceType, State: state}, nil
}

// ProjectVolumeSpec extracts the VolumeSpec attribute tuple from a
// normalized event's traits (spec.md §4.3).
func ProjectVolumeSpec(e Event) (VolumeSpecAttrs, error) {
	volumeType, ok := e.TraitString("volume_type")
	if !ok {
		return VolumeSpecAttrs{}, fmt.Errorf("missing trait volume_type")
	}
	volumeSize, ok := e.TraitInt("volume_size")
	if !ok {
		return VolumeSpecAttrs{}, fmt.Errorf("missing trait volume_size")
	}
	state, ok := e.TraitString("state")
	if !ok {
		return VolumeSpecAttrs{}, fmt.Errorf("missing trait state")
	}
	return VolumeSpecAttrs{VolumeType: volumeType, VolumeSize: volumeSize, State: state}, nil
}

// IsEventIgnored implements the per-kind ignore predicates of spec.md §4.5.1.
func IsEventIgnored(kind ResourceKind, e Event) bool {
	switch kind {
	case ResourceKindInstance:
		return isInstanceEventIgnored(e)
	case ResourceKindVolume:
		return isVolumeEventIgnored(e)
	default:
		return false
	}
}

// isInstanceEventIgnored: ignore a deletion *announcement* without the
// authoritative deleted_at timestamp, and ignore events that cannot
// bootstrap a period (spec.md §4.5.1).
func isInstanceEventIgnored(e Event) bool {
	state, _ := e.TraitString("state")
	if state == "deleted" && !e.HasTrait("deleted_at") {
		return true
	}
	if !e.HasTrait("created_at") && !e.HasTrait("launched_at") {
		return true
	}
	return false
}

// isVolumeEventIgnored: transient states without definitive timing
// (spec.md §4.5.1).
func isVolumeEventIgnored(e Event) bool {
	state, _ := e.TraitString("state")
	return state == "creating" || state == "deleting"
}

// PeriodStartTrait returns the trait to bootstrap a first period from, per
// resource kind (spec.md §4.5 step 5: created_at ?? launched_at for
// instances; created_at for volumes).
func PeriodStartTrait(kind ResourceKind, e Event) (int64, bool) {
	switch kind {
	case ResourceKindInstance:
		if t, ok := e.TraitTime("created_at"); ok {
			return t.UnixMilli(), true
		}
		if t, ok := e.TraitTime("launched_at"); ok {
			return t.UnixMilli(), true
		}
		return 0, false
	default:
		if t, ok := e.TraitTime("created_at"); ok {
			return t.UnixMilli(), true
		}
		return 0, false
	}
}
