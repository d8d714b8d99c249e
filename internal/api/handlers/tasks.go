package handlers

import (
	"net/http"
	"strconv"
	"time"

	"todo-app/internal/apperr"
	"todo-app/internal/repository/db"
	taskService "todo-app/internal/service/task"

	"github.com/gorilla/mux"
)

// TaskResponse is the JSON form of a task
type TaskResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTaskRequest is a partial update: absent fields stay unchanged and an
// explicit null description clears it.
type UpdateTaskRequest struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Completed   Optional[bool]   `json:"completed"`
}

func newTaskResponse(t *db.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func taskIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["task_id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid task ID")
	}
	return id, nil
}

// ListTasks handles GET /{user_id}/tasks
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.List(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, newTaskResponse(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTask handles POST /{user_id}/tasks
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), currentUserID(r), taskService.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

// GetTask handles GET /{user_id}/tasks/{task_id}
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Get(r.Context(), currentUserID(r), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// UpdateTask handles PUT /{user_id}/tasks/{task_id}
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), currentUserID(r), taskID, taskService.UpdateTaskRequest{
		Title:          req.Title.Value,
		Description:    req.Description.Value,
		DescriptionSet: req.Description.Set,
		Completed:      req.Completed.Value,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// DeleteTask handles DELETE /{user_id}/tasks/{task_id}
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.taskService.Delete(r.Context(), currentUserID(r), taskID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask handles PATCH /{user_id}/tasks/{task_id}/complete
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.ToggleComplete(r.Context(), currentUserID(r), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}
