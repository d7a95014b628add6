package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victoryapp/victory/internal/common"
	"github.com/victoryapp/victory/internal/graph"
	"github.com/victoryapp/victory/internal/graph/memgraph"
)

func loggedInFollow(t *testing.T, g *memgraph.Graph, alias string) FollowService {
	t.Helper()
	h := newHarness(t, g)
	h.registerVerified(t, alias, "pw")
	return NewFollowService(h.deps)
}

func TestFollow_Unfollow(t *testing.T) {
	g := memgraph.New()
	amy := loggedInFollow(t, g, "amy")
	bob := loggedInFollow(t, g, "bob")
	ctx := context.Background()

	require.NoError(t, bob.Follow(ctx, "Amy"))

	ok, err := bob.IsFollowing(ctx, "amy")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = amy.IsFollowing(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := bob.Followers(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = bob.Following(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, bob.Unfollow(ctx, "amy"))
	ok, err = bob.IsFollowing(ctx, "amy")
	require.NoError(t, err)
	assert.False(t, ok)
	n, err = bob.Followers(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFollow_RequiresLoginAndRejectsSelf(t *testing.T) {
	g := memgraph.New()
	anon := NewFollowService(newHarness(t, g).deps)
	ctx := context.Background()
	require.ErrorIs(t, anon.Follow(ctx, "amy"), common.ErrNotLoggedIn)
	_, err := anon.IsFollowing(ctx, "amy")
	require.ErrorIs(t, err, common.ErrNotLoggedIn)

	bob := loggedInFollow(t, g, "bob")
	require.ErrorIs(t, bob.Follow(ctx, "bob"), common.ErrInvalidUser)
}

func TestFollow_PartialFailureThenRepair(t *testing.T) {
	g := memgraph.New()
	_ = loggedInFollow(t, g, "amy")
	bob := loggedInFollow(t, g, "bob")
	ctx := context.Background()

	boom := errors.New("peer dropped")
	mirror := graph.UserPath("amy").Child("followers", "bob")
	g.FailPut(mirror, boom)

	err := bob.Follow(ctx, "amy")
	require.ErrorIs(t, err, boom)
	var se *SagaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "follow", se.Op)
	assert.Equal(t, "followers", se.Step)
	assert.Equal(t, []string{"following"}, se.Completed)

	n, err := bob.Followers(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	g.FailPut(mirror, nil)
	report, err := bob.Repair(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, []string{"users/amy/followers/bob"}, report.Added)

	n, err = bob.Followers(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	report, err = bob.Repair(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, report.Added)
}

func TestRepair_FixesMissingFollowingSide(t *testing.T) {
	g := memgraph.New()
	ctx := context.Background()
	require.NoError(t, g.Add(ctx, graph.UserPath("amy").Child("followers"), "cal", graph.UserPath("cal")))

	amy := loggedInFollow(t, g, "amy")
	report, err := amy.Repair(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, []string{"users/cal/following/amy"}, report.Added)

	ok, err := NewFollowService(newHarness(t, g).deps).Following(ctx, "cal")
	require.NoError(t, err)
	assert.Equal(t, 1, ok)
}
