package room

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryBindAndRelease(t *testing.T) {
	r := NewRegistry()

	require.False(t, r.IsNameTaken("alice"))

	r.Bind("alice")
	require.True(t, r.IsNameTaken("alice"))
	require.False(t, r.IsNameTaken("Alice"), "name matching is exact")

	r.Release("alice")
	require.False(t, r.IsNameTaken("alice"))
	require.Equal(t, 0, r.Len())
}

func TestRegistryNamesKeepBindOrder(t *testing.T) {
	r := NewRegistry()
	r.Bind("carol")
	r.Bind("alice")
	r.Bind("bobby")

	require.Equal(t, []string{"carol", "alice", "bobby"}, r.Names())

	r.Release("alice")
	require.Equal(t, []string{"carol", "bobby"}, r.Names())
}

func TestRegistryNamesSnapshotIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Bind("alice")

	names := r.Names()
	r.Release("alice")

	require.Equal(t, []string{"alice"}, names)
}
