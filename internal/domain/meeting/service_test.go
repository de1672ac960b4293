package meeting_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/meeting"
	"github.com/teamdash/teamdash/internal/repository/mocks"
)

func TestMeetingService_CreateGeneratesLink(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MeetingRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := meeting.NewService(repo, "https://visio.example.com/", nil)
	m, err := svc.Create(ctx, meeting.CreateRequest{
		ProjectID: "p1",
		Title:     "Kickoff",
		StartsAt:  time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, meeting.DefaultDuration, m.DurationMinutes)
	require.True(t, strings.HasPrefix(m.VideoLink, "https://visio.example.com/"+m.ID))
}

func TestMeetingService_CreateRejectsDuration(t *testing.T) {
	repo := &mocks.MeetingRepository{}
	svc := meeting.NewService(repo, "", nil)
	_, err := svc.Create(context.Background(), meeting.CreateRequest{
		ProjectID:       "p1",
		Title:           "Too short",
		StartsAt:        time.Now(),
		DurationMinutes: 5,
	})
	require.ErrorIs(t, err, meeting.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMeetingService_ListUpcomingDropsEnded(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := &mocks.MeetingRepository{}
	repo.On("ListUpcoming", ctx, "p1", mock.Anything, 20).Return([]meeting.Meeting{
		{ID: "ended", StartsAt: now.Add(-2 * time.Hour), DurationMinutes: 60},
		{ID: "running", StartsAt: now.Add(-30 * time.Minute), DurationMinutes: 60},
		{ID: "later", StartsAt: now.Add(time.Hour), DurationMinutes: 30},
	}, nil)

	svc := meeting.NewService(repo, "", nil)
	list, err := svc.ListUpcoming(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "running", list[0].ID)
}
