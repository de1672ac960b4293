package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/task"
	"github.com/teamdash/teamdash/internal/repository"
	"github.com/teamdash/teamdash/internal/repository/mocks"
)

func TestTaskService_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := task.NewService(repo, nil, nil)
	created, err := svc.Create(ctx, task.CreateRequest{ProjectID: "p1", Title: "Fix bug", Assignee: "alice"})
	require.NoError(t, err)
	require.Equal(t, task.StatusTodo, created.Status)
	require.Equal(t, task.PriorityMedium, created.Priority)
	repo.AssertExpectations(t)
}

func TestTaskService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	svc := task.NewService(repo, nil, nil)

	_, err := svc.Create(ctx, task.CreateRequest{ProjectID: "p1", Title: "Fix bug"})
	require.ErrorIs(t, err, task.ErrInvalidInput)

	_, err = svc.Create(ctx, task.CreateRequest{ProjectID: "p1", Title: "Fix bug", Assignee: "a", Priority: "asap"})
	require.ErrorIs(t, err, task.ErrInvalidPriority)

	hours := 1200.0
	_, err = svc.Create(ctx, task.CreateRequest{ProjectID: "p1", Title: "Fix bug", Assignee: "a", EstimatedHours: &hours})
	require.ErrorIs(t, err, task.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskService_Move(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &mocks.TaskRepository{}
	repo.On("Get", ctx, "t1").Return(&task.Task{ID: "t1", Status: task.StatusTodo, UpdatedAt: updated}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(tk *task.Task) bool {
		return tk.Status == task.StatusReview
	}), updated.UnixNano()).Return(nil)

	svc := task.NewService(repo, nil, nil)
	moved, err := svc.Move(ctx, "t1", task.StatusReview)
	require.NoError(t, err)
	require.Equal(t, task.StatusReview, moved.Status)

	_, err = svc.Move(ctx, "t1", task.Status("blocked"))
	require.ErrorIs(t, err, task.ErrInvalidStatus)
	repo.AssertExpectations(t)
}

func TestTaskService_MoveConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	repo.On("Get", ctx, "t1").Return(&task.Task{ID: "t1", Status: task.StatusTodo}, nil)
	repo.On("Update", ctx, mock.Anything, mock.Anything).Return(repository.ErrConflict)

	svc := task.NewService(repo, nil, nil)
	_, err := svc.Move(ctx, "t1", task.StatusDone)
	require.ErrorIs(t, err, task.ErrConflict)
}

func TestTaskService_BoardFillsEmptyColumns(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TaskRepository{}
	repo.On("CountByStatus", ctx, "p1").Return(task.BoardSummary{task.StatusTodo: 2}, nil)

	svc := task.NewService(repo, nil, nil)
	board, err := svc.Board(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, board, 4)
	require.Equal(t, 2, board[task.StatusTodo])
	require.Equal(t, 0, board[task.StatusDone])
}

func TestParseDueDate(t *testing.T) {
	d, err := task.ParseDueDate("2026-06-30")
	require.NoError(t, err)
	require.Equal(t, 30, d.Day())

	d, err = task.ParseDueDate("")
	require.NoError(t, err)
	require.Nil(t, d)

	_, err = task.ParseDueDate("next friday")
	require.ErrorIs(t, err, task.ErrInvalidInput)
}
