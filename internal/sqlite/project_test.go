package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	proj := &project.Project{
		ID:        "p1",
		OwnerID:   "owner1",
		Title:     "Refonte",
		Status:    project.StatusAwaitTeam,
		Budget:    25000,
		StartDate: &start,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, proj))

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Refonte", retrieved.Title)
	require.Equal(t, 25000.0, retrieved.Budget)
	require.True(t, start.Equal(*retrieved.StartDate))
	require.Nil(t, retrieved.ArchivedAt)

	_, err = repo.Get(ctx, "nonexistent")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_UpdatePublishesOldAndNew(t *testing.T) {
	db := NewTestDB(t)
	events := &capture{}
	db.SetPublisher(events)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := seedProject(t, db, "p1")
	now := time.Now()
	proj.ArchivedAt = &now
	require.NoError(t, repo.Update(ctx, proj))

	changes := events.all()
	require.Len(t, changes, 2)
	require.Equal(t, realtime.OpInsert, changes[0].Op)

	update := changes[1]
	require.Equal(t, "projects", update.Table)
	require.Equal(t, realtime.OpUpdate, update.Op)

	var oldRow, newRow project.Project
	require.NoError(t, json.Unmarshal(update.Old, &oldRow))
	require.NoError(t, json.Unmarshal(update.New, &newRow))
	require.Nil(t, oldRow.ArchivedAt)
	require.NotNil(t, newRow.ArchivedAt)
}

func TestProjectRepository_ListHidesArchivedAndCounts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1")
	hidden := seedProject(t, db, "p2")
	now := time.Now()
	hidden.DeletedAt = &now
	require.NoError(t, repo.Update(ctx, hidden))

	_, err := db.Exec(`INSERT INTO assignments (id, project_id, profile_id, seniority, booking_status)
		VALUES ('a1', 'p1', 'dev', 'senior', 'recherche'), ('a2', 'p1', 'dev', 'senior', 'draft')`)
	require.NoError(t, err)

	list, err := repo.List(ctx, project.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "p1", list[0].ID)
	require.Equal(t, 1, list[0].SeatCount)
	require.Equal(t, 0, list[0].FilledSeats)
}

func TestProjectRepository_DeletePublishesOldRow(t *testing.T) {
	db := NewTestDB(t)
	events := &capture{}
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1")
	db.SetPublisher(events)
	require.NoError(t, repo.Delete(ctx, "p1"))

	changes := events.all()
	require.Len(t, changes, 1)
	require.Equal(t, realtime.OpDelete, changes[0].Op)
	require.Empty(t, changes[0].New)
	require.Contains(t, string(changes[0].Old), `"id":"p1"`)

	require.ErrorIs(t, repo.Delete(ctx, "p1"), repository.ErrNotFound)
}
