package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/message"
)

func TestThreadRepository_UpdateTypeKeepsMessages(t *testing.T) {
	db := NewTestDB(t)
	threads := NewThreadRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")

	th := &message.Thread{
		ID:           "th1",
		ProjectID:    "p1",
		Type:         message.ThreadPrivate,
		Participants: []message.Participant{{UserID: "u1"}, {UserID: "assistant", IsAI: true}},
		CreatedBy:    "u1",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, threads.Create(ctx, th))

	got, err := threads.Get(ctx, "th1")
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	require.True(t, got.Participants[1].IsAI)

	base := time.Now()
	for i, content := range []string{"one", "two", "three"} {
		require.NoError(t, messages.Create(ctx, &message.Message{
			ID:           content,
			ThreadID:     "th1",
			ProjectID:    "p1",
			SenderID:     "u1",
			Content:      content,
			IsPrivate:    true,
			Participants: []string{"u1", "assistant"},
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, threads.UpdateType(ctx, "th1", message.ThreadPublic, nil))

	list, err := messages.ListByThread(ctx, "th1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "two", list[0].Content)
	require.Equal(t, "three", list[1].Content)
	require.True(t, list[1].IsPrivate)
	require.Equal(t, []string{"u1", "assistant"}, list[1].Participants)
}
