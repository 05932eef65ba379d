package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-board-api/internal/model"
	"github.com/BuzzLyutic/todo-board-api/internal/summary"
	"github.com/BuzzLyutic/todo-board-api/pkg/respond"
)

type SummaryHandler struct {
	client summary.Client
	logger *zap.Logger
}

func NewSummaryHandler(client summary.Client, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{
		client: client,
		logger: logger,
	}
}

func (h *SummaryHandler) Register(r chi.Router) {
	r.Post("/api/summarize", h.Summarize)
}

// Summarize proxies the client's todo list to the completion service.
// Collaborator failures surface as 502 "summary unavailable" and never
// touch the task CRUD paths.
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Todos []model.Task `json:"todos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Todos == nil {
		respond.Error(w, r, http.StatusBadRequest, "request body must contain 'todos' array")
		return
	}

	text, err := h.client.Summarize(r.Context(), req.Todos)
	if err != nil {
		h.logger.Warn("summarization failed", zap.Error(err))
		respond.Error(w, r, http.StatusBadGateway, "summary unavailable")
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]string{"summary": text})
}
