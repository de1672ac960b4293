package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/activity"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	seat := "a1"
	entry := &activity.ActivityEntry{
		ProjectID:    "p1",
		ActorID:      "c1",
		AssignmentID: &seat,
		ActivityType: activity.TypeSeatAccepted,
		Summary:      "seat accepted",
		Details:      `{"booking_status":"accepted"}`,
		CreatedAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Log(ctx, entry))
	require.NotZero(t, entry.ID)

	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{
		ProjectID:    "p1",
		ActivityType: activity.TypeToolExecuted,
		Summary:      "add_task",
	}))

	entries, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, activity.TypeToolExecuted, entries[0].ActivityType)
	require.Empty(t, entries[0].ActorID)

	kind := activity.TypeSeatAccepted
	entries, err = repo.List(ctx, activity.ListActivityOptions{ActivityType: &kind, AssignmentID: &seat})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "c1", entries[0].ActorID)
	require.Equal(t, "a1", *entries[0].AssignmentID)

	entries, err = repo.List(ctx, activity.ListActivityOptions{ProjectID: "p1", Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
