package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
	"github.com/BuzzLyutic/tasktrackr/internal/repo"
	"github.com/BuzzLyutic/tasktrackr/internal/service"
	"github.com/BuzzLyutic/tasktrackr/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.CreateIdempotent(r.Context(), idempKey, req.Title, req.Description)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/tasks/"+task.ID)
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

// List отдает все задачи; ?status= фильтрует на стороне адаптера.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status, err := model.ParseStatus(v)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
		tasks = model.FilterByStatus(tasks, status)
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

// Update serves both PUT and PATCH: only the fields present in the body change.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.NoContent(w, r)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrConflict):
		h.logger.Warn("write conflict", zap.Error(err))
		respond.Error(w, r, http.StatusConflict, "conflict, retry the request")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
