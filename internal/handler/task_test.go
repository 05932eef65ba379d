package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
	"github.com/BuzzLyutic/todo-board-api/internal/repo"
	"github.com/BuzzLyutic/todo-board-api/internal/service"
	"github.com/BuzzLyutic/todo-board-api/tests"
)

func setupHandler(t *testing.T) (*TaskHandler, func()) {
	pool, cleanup := tests.SetupTestDB(t)

	logger := zap.NewNop()
	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo, logger)
	handler := NewTaskHandler(taskService, logger)

	return handler, cleanup
}

func withID(r *http.Request, id interface{}) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", fmt.Sprintf("%v", id))
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func createTodo(t *testing.T, handler *TaskHandler, title string) model.Task {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"title":    title,
		"deadline": "2099-01-01",
	})
	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	return created
}

func TestTaskHandler_Create(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	tests := []struct {
		name          string
		body          string
		wantCode      int
		wantErr       string
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:     "successful creation",
			body:     `{"title":"Write report","deadline":"2030-01-01","priority":"high"}`,
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task model.Task
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.NotZero(t, task.ID)
				assert.Equal(t, "Write report", task.Title)
				assert.Equal(t, model.PriorityHigh, task.Priority)
				assert.Equal(t, model.StatusPending, task.Status)
				assert.Nil(t, task.CompletedAt)
				assert.Contains(t, w.Header().Get("Location"), "/todos/")
			},
		},
		{
			name:     "defaults applied",
			body:     `{"title":"Bare minimum","deadline":"2030-01-01"}`,
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task model.Task
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.Equal(t, model.PriorityMedium, task.Priority)
				assert.Equal(t, "", task.Description)
			},
		},
		{
			name:     "status in payload is ignored",
			body:     `{"title":"Sneaky","deadline":"2030-01-01","status":"completed"}`,
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task model.Task
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.Equal(t, model.StatusPending, task.Status)
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name:     "empty body",
			body:     "",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty title",
			body:     `{"title":"","deadline":"2099-01-01"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing deadline",
			body:     `{"title":"x"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "null deadline",
			body:     `{"title":"x","deadline":null}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed deadline",
			body:     `{"title":"x","deadline":"tomorrow"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json yields the bare category",
			body:     `{"title":`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.Create(w, req)

			assert.Equal(t, tt.wantCode, w.Code)

			if tt.wantCode >= 400 {
				var errBody map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&errBody))
				assert.NotEmpty(t, errBody["error"])
				if tt.wantErr != "" {
					assert.Equal(t, tt.wantErr, errBody["error"])
				}
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTodo(t, handler, "Status lifecycle")

	t.Run("move to progress", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d/status", created.ID),
			bytes.NewReader([]byte(`{"status":"progress"}`)))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, model.StatusProgress, task.Status)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("complete stamps completedAt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d/status", created.ID),
			bytes.NewReader([]byte(`{"status":"completed"}`)))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, model.StatusCompleted, task.Status)
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("reopen clears completedAt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d/status", created.ID),
			bytesReader(`{"status":"pending"}`))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, model.StatusPending, task.Status)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("invalid status value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d/status", created.ID),
			bytesReader(`{"status":"archived"}`))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/todos/99999/status",
			bytesReader(`{"status":"progress"}`))
		req = withID(req, 99999)

		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTodo(t, handler, "Original")

	t.Run("partial update leaves absent fields alone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d", created.ID),
			bytesReader(`{"title":"Renamed","priority":"high"}`))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, "Renamed", task.Title)
		assert.Equal(t, model.PriorityHigh, task.Priority)
		assert.Equal(t, created.Deadline, task.Deadline)
		assert.Equal(t, model.StatusPending, task.Status)
	})

	t.Run("explicit null clears description, omitted leaves it", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d", created.ID),
			bytesReader(`{"description":"to be cleared"}`))
		w := httptest.NewRecorder()
		handler.Update(w, withID(req, created.ID))
		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d", created.ID),
			bytesReader(`{"description":null}`))
		w = httptest.NewRecorder()
		handler.Update(w, withID(req, created.ID))

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, "", task.Description)
		assert.Equal(t, "Renamed", task.Title)
	})

	t.Run("null status is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d", created.ID),
			bytesReader(`{"status":null}`))
		w := httptest.NewRecorder()
		handler.Update(w, withID(req, created.ID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status via full update keeps the invariant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/todos/%d", created.ID),
			bytesReader(`{"status":"completed"}`))
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, model.StatusCompleted, task.Status)
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/todos/99999", bytesReader(`{"title":"Ghost"}`))
		req = withID(req, 99999)

		w := httptest.NewRecorder()
		handler.Update(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_Complete(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTodo(t, handler, "One-shot complete")

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/todos/%d/complete", created.ID), nil)
	req = withID(req, created.ID)

	w := httptest.NewRecorder()
	handler.Complete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var task model.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
}

func TestTaskHandler_Delete(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	created := createTodo(t, handler, "To delete")

	t.Run("first delete succeeds with no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/todos/%d", created.ID), nil)
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("second delete is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/todos/%d", created.ID), nil)
		req = withID(req, created.ID)

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_ListAndStats(t *testing.T) {
	handler, cleanup := setupHandler(t)
	defer cleanup()

	var last model.Task
	for i := 0; i < 5; i++ {
		last = createTodo(t, handler, fmt.Sprintf("Todo %d", i))
	}

	completeReq := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/todos/%d/complete", last.ID), nil)
	w := httptest.NewRecorder()
	handler.Complete(w, withID(completeReq, last.ID))
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("list is newest first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var todos []model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&todos))
		require.Len(t, todos, 5)
		for i := 1; i < len(todos); i++ {
			assert.True(t, !todos[i-1].CreatedAt.Before(todos[i].CreatedAt) ||
				todos[i-1].ID > todos[i].ID)
		}
	})

	t.Run("stats add up", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos/stats", nil)
		w := httptest.NewRecorder()
		handler.Stats(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var stats repo.Stats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.Equal(t, 4, stats.Pending)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, stats.Total, stats.Pending+stats.Progress+stats.Completed)
	})

	t.Run("status filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/todos?status=completed", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		var todos []model.Task
		require.NoError(t, json.NewDecoder(w.Body).Decode(&todos))
		require.Len(t, todos, 1)
		assert.Equal(t, model.StatusCompleted, todos[0].Status)
	})
}

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
