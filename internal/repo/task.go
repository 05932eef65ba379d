package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = "id, title, description, deadline, priority, status, completed_at, created_at, updated_at"

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

// Create persists a new todo. Status is forced to 'pending' in the
// statement itself, whatever the caller put on the model.
func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todos (title, description, deadline, priority, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Deadline.Time, t.Priority,
	)
	created, err := scanTask(row)
	return created, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM todos
		WHERE id = $1
	`, id)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

// List returns todos newest-created first. A nil filter status returns
// every row; limit <= 0 means no limit.
func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM todos
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, filter.Status, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateStatus changes the workflow stage of one todo. The row is read
// under FOR UPDATE, the completedAt transform runs in Go, and the write
// commits in the same transaction, so concurrent updates serialize on
// the row.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id int64, status model.Status) (model.Task, error) {
	return r.mutate(ctx, id, func(t *model.Task, now time.Time) {
		model.ApplyStatus(t, status, now)
	})
}

// UpdateFields applies a partial update atomically: the whole patch is
// written or nothing is.
func (r *TaskRepo) UpdateFields(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	return r.mutate(ctx, id, patch.Apply)
}

func (r *TaskRepo) mutate(ctx context.Context, id int64, transform func(*model.Task, time.Time)) (model.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Task{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM todos
		WHERE id = $1
		FOR UPDATE
	`, id)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	transform(&t, time.Now().UTC())

	row = tx.QueryRow(ctx, `
		UPDATE todos
		SET title = $2, description = $3, deadline = $4, priority = $5,
		    status = $6, completed_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.Deadline.Time, t.Priority, t.Status, t.CompletedAt,
	)
	t, err = scanTask(row)
	if err != nil {
		return t, r.mapError(err)
	}

	return t, tx.Commit(ctx)
}

// Delete removes the row for good. A second delete of the same id finds
// nothing and reports ErrorNotFound rather than succeeding silently.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM todos WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) CountByStatus(ctx context.Context) (Stats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM todos
		GROUP BY status
	`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status model.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusProgress:
			stats.Progress = count
		case model.StatusCompleted:
			stats.Completed = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var deadline time.Time
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &deadline, &t.Priority, &t.Status,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	t.Deadline = model.NewDate(deadline)
	return t, nil
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
