package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
	"github.com/BuzzLyutic/todo-board-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo   repo.TaskRepository
	logger *zap.Logger
}

func NewTaskService(repo repo.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

// Create validates the incoming fields and persists a new todo. A new
// todo always starts pending regardless of what the client supplied,
// description defaults to empty and priority to medium.
func (s *TaskService) Create(ctx context.Context, t model.Task, idempKey string) (model.Task, error) {
	t.ID = 0
	t.CompletedAt = nil
	t.Status = model.StatusPending
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	if vs := t.Validate(); len(vs) > 0 {
		return t, validationError(vs)
	}

	if idempKey != "" {
		existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey)
		switch {
		case err == nil:
			return s.repo.Get(ctx, existingID)
		case !errors.Is(err, repo.ErrorNotFound):
			// Key storage is best-effort: a broken lookup falls back to
			// a fresh create rather than failing the request.
			s.logger.Warn("idempotency key lookup failed", zap.String("key", idempKey), zap.Error(err))
		}
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}

	if idempKey != "" {
		if err := s.repo.SaveIdempotencyKey(ctx, idempKey, created.ID); err != nil {
			s.logger.Warn("failed to save idempotency key", zap.String("key", idempKey), zap.Error(err))
		}
	}

	return created, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error) {
	if limit < 0 {
		limit = 0
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *filter.Status)
	}
	return s.repo.List(ctx, filter, limit)
}

// UpdateStatus rejects unknown statuses before the store is touched.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status model.Status) (model.Task, error) {
	if !status.Valid() {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Complete marks a todo completed; sugar over UpdateStatus.
func (s *TaskService) Complete(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.UpdateStatus(ctx, id, model.StatusCompleted)
}

// UpdateFields applies a partial update. Validation of the present
// fields happens up front so a rejected patch leaves the record alone.
func (s *TaskService) UpdateFields(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if vs := patch.Validate(); len(vs) > 0 {
		return model.Task{}, validationError(vs)
	}
	return s.repo.UpdateFields(ctx, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) Stats(ctx context.Context) (repo.Stats, error) {
	return s.repo.CountByStatus(ctx)
}

func validationError(vs []model.Violation) error {
	return fmt.Errorf("%w: %s", ErrValidation, model.JoinViolations(vs))
}
