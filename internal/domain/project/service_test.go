package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/repository"
	"github.com/teamdash/teamdash/internal/repository/mocks"
)

func TestProjectService_CreateStartsWaitingForTeam(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Create(ctx, project.CreateRequest{OwnerID: "owner1", Title: "Site vitrine", Budget: 12000})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, project.StatusAwaitTeam, proj.Status)
	repo.AssertExpectations(t)
}

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)

	_, err := svc.Create(ctx, project.CreateRequest{OwnerID: "owner1", Title: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Create(ctx, project.CreateRequest{OwnerID: "owner1", Title: "x", Budget: -1})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = svc.Create(ctx, project.CreateRequest{OwnerID: "owner1", Title: "x", StartDate: &start, EndDate: &end})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_GetMapsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", Status: project.StatusAwaitTeam}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(p *project.Project) bool {
		return p.Status == project.StatusPlay
	})).Return(nil).Once()

	svc := project.NewService(repo, nil)
	proj, err := svc.UpdateStatus(ctx, "p1", project.StatusPlay)
	require.NoError(t, err)
	require.Equal(t, project.StatusPlay, proj.Status)

	_, err = svc.UpdateStatus(ctx, "p1", project.Status("paused"))
	require.ErrorIs(t, err, project.ErrInvalidStatus)
	repo.AssertExpectations(t)
}

func TestProjectService_ArchiveKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", ArchivedAt: &first}, nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Archive(ctx, "p1")
	require.NoError(t, err)
	require.True(t, proj.Hidden())
	require.Equal(t, first, *proj.ArchivedAt)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
