package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/meeting"
)

func TestMeetingRepository_ListUpcoming(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")

	now := time.Now().UTC().Truncate(time.Second)
	for i, offset := range []time.Duration{-24 * time.Hour, 2 * time.Hour, time.Hour} {
		require.NoError(t, repo.Create(ctx, &meeting.Meeting{
			ID:              []string{"past", "later", "soon"}[i],
			ProjectID:       "p1",
			Title:           "Sync",
			StartsAt:        now.Add(offset),
			DurationMinutes: 30,
			Participants:    []string{"u1"},
			VideoLink:       "https://meet.teamdash.app/x",
			CreatedAt:       now,
		}))
	}

	list, err := repo.ListUpcoming(ctx, "p1", now, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "soon", list[0].ID)
	require.Equal(t, "later", list[1].ID)
	require.Equal(t, []string{"u1"}, list[0].Participants)

	got, err := repo.Get(ctx, "past")
	require.NoError(t, err)
	require.True(t, now.Add(-24*time.Hour).Equal(got.StartsAt))
}
