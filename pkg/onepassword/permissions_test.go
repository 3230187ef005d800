package onepassword

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	require.Equal(t, TierManaging, TierFor(true, true))
	// manage_users alone still implies the full managing tier.
	require.Equal(t, TierManaging, TierFor(true, false))
	require.Equal(t, TierEditing, TierFor(false, true))
	require.Equal(t, TierViewing, TierFor(false, false))
}

func TestTierPermissionsAreMonotonic(t *testing.T) {
	viewing := TierViewing.Permissions()
	editing := TierEditing.Permissions()
	managing := TierManaging.Permissions()

	require.Equal(t, []string{"allow_viewing"}, viewing)
	require.Subset(t, editing, viewing)
	require.Subset(t, managing, editing)
	require.Len(t, managing, 3)
}

func TestJoinPermissions(t *testing.T) {
	require.Equal(t, "allow_viewing,allow_editing", joinPermissions(TierEditing.Permissions()))
}
