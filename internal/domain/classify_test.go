package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Instance(t *testing.T) {
	d := Classify("compute.instance.exists")
	require.Equal(t, VerdictHandled, d.Verdict)
	require.Equal(t, ResourceKindInstance, d.ResourceKind)
	require.Equal(t, SpecKindInstance, d.SpecKind)
}

func TestClassify_Volume(t *testing.T) {
	d := Classify("volume.exists")
	require.Equal(t, VerdictHandled, d.Verdict)
	require.Equal(t, ResourceKindVolume, d.ResourceKind)
}

func TestClassify_VolumeDeleteEvents(t *testing.T) {
	for _, et := range []string{"volume.delete.start", "volume.delete.end"} {
		d := Classify(et)
		require.Equal(t, VerdictHandled, d.Verdict, et)
		require.Equal(t, ResourceKindVolume, d.ResourceKind, et)
	}
}

func TestClassify_VolumeUsageIgnoredNotHandled(t *testing.T) {
	d := Classify("volume.usage")
	require.Equal(t, VerdictIgnored, d.Verdict)
}

func TestClassify_IgnoredPrefixes(t *testing.T) {
	for _, et := range []string{
		"aggregate.create.start",
		"compute_task.rebuild_server",
		"compute.metrics.update",
		"flavor.create",
		"keypair.create",
		"libvirt.connection.lost",
		"metrics.update",
		"scheduler.select_destinations",
		"server_group.create",
		"service.update",
	} {
		d := Classify(et)
		require.Equal(t, VerdictIgnored, d.Verdict, et)
	}
}

func TestClassify_InstanceBeforeGeneralComputeIgnore(t *testing.T) {
	// compute.instance. must win over the general compute. ignore rule.
	d := Classify("compute.instance.update")
	require.Equal(t, VerdictHandled, d.Verdict)
}

func TestClassify_Unsupported(t *testing.T) {
	d := Classify("totally.unknown.event")
	require.Equal(t, VerdictUnsupported, d.Verdict)
}
