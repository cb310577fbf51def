package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForDefaultsToZero(t *testing.T) {
	grants := newFakeGrantRepo()
	svc := NewPermissionService(grants)

	level, err := svc.LevelFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, level)
}

func TestLevelForUsesHighestGrant(t *testing.T) {
	grants := newFakeGrantRepo()
	grants.grant(7, 1)
	grants.grant(7, 3)
	svc := NewPermissionService(grants)

	level, err := svc.LevelFor(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, level)
}

func TestHasLevelComposesUpward(t *testing.T) {
	grants := newFakeGrantRepo()
	grants.grant(7, 3)
	svc := NewPermissionService(grants)

	for required := 1; required <= 3; required++ {
		ok, err := svc.HasLevel(context.Background(), 7, required)
		require.NoError(t, err)
		assert.True(t, ok, "level 3 should satisfy requirement %d", required)
	}

	ok, err := svc.HasLevel(context.Background(), 7, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantsForListsActiveGrants(t *testing.T) {
	grants := newFakeGrantRepo()
	grants.grant(7, 2)
	svc := NewPermissionService(grants)

	listed, err := svc.GrantsFor(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(7), listed[0].PersonID)
	assert.Equal(t, 2, listed[0].ApprovalLevel)
	assert.True(t, listed[0].IsActive)
}

func TestHasLevelDeniesUngranted(t *testing.T) {
	grants := newFakeGrantRepo()
	svc := NewPermissionService(grants)

	ok, err := svc.HasLevel(context.Background(), 99, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
