package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/repository"
)

func newNotification(id, candidateID, assignmentID string) *notification.Notification {
	now := time.Now()
	return &notification.Notification{
		ID:           id,
		CandidateID:  candidateID,
		AssignmentID: &assignmentID,
		Type:         notification.TypeOpportunity,
		Status:       notification.StatusUnread,
		Payload:      map[string]any{"project_id": "p1"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestNotificationRepository_CreateAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newNotification("n1", "c1", "a1")))

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "p1", got.Payload["project_id"])
	require.Equal(t, "a1", *got.AssignmentID)

	unread := notification.StatusUnread
	list, err := repo.List(ctx, notification.ListOptions{CandidateID: "c1", Status: &unread, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationRepository_ArchiveForAssignment(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newNotification("n1", "c1", "a1")))
	require.NoError(t, repo.Create(ctx, newNotification("n2", "c2", "a1")))
	require.NoError(t, repo.Create(ctx, newNotification("n3", "c3", "a1")))
	require.NoError(t, repo.Create(ctx, newNotification("n4", "c2", "other")))

	n, err := repo.ArchiveForAssignment(ctx, "a1", "c1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	kept, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, notification.StatusUnread, kept.Status)

	n, err = repo.ArchiveForCandidate(ctx, "a1", "c1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	untouched, err := repo.Get(ctx, "n4")
	require.NoError(t, err)
	require.Equal(t, notification.StatusUnread, untouched.Status)

	require.ErrorIs(t, repo.UpdateStatus(ctx, "n2", notification.StatusRead), repository.ErrNotFound)
}
