package repo

import (
	"context"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
)

// Stats holds per-status task counts for the board summary.
type Stats struct {
	Pending   int `json:"pending"`
	Progress  int `json:"progress"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// TaskRepository is the persistence contract for todo records.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) (model.Task, error)
	UpdateFields(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (Stats, error)
	SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, key string) (int64, error)
}
