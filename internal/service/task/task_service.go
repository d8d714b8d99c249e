package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"
	"todo-app/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Status filters for ListByStatus
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// CreateTaskRequest contains the fields of a new task
type CreateTaskRequest struct {
	Title       string
	Description *string
}

// UpdateTaskRequest is a partial update. Nil fields are left unchanged;
// DescriptionSet with a nil or blank Description clears the description.
type UpdateTaskRequest struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Completed      *bool
}

// TaskService implements the task operations, each scoped to one user
type TaskService struct {
	db        db.Database
	validator *validation.TaskRequestValidator
	now       func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(database db.Database) *TaskService {
	return &TaskService{
		db:        database,
		validator: validation.NewTaskRequestValidator(),
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create adds a task for userID
func (s *TaskService) Create(ctx context.Context, userID string, req CreateTaskRequest) (*db.Task, error) {
	title, description, err := s.validator.ValidateCreate(req.Title, req.Description)
	if err != nil {
		return nil, apperr.FromValidation(err)
	}

	ts := s.now()
	task, err := s.db.CreateTask(ctx, &db.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
	if err != nil {
		return nil, apperr.Internal("failed to create task", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "task_id": task.ID}).Info("Task created")
	return task, nil
}

// List returns all tasks of userID
func (s *TaskService) List(ctx context.Context, userID string) ([]db.Task, error) {
	return s.list(ctx, userID, db.TaskFilter{})
}

// ListByStatus returns the tasks of userID matching status (all, pending or completed)
func (s *TaskService) ListByStatus(ctx context.Context, userID, status string) ([]db.Task, error) {
	var filter db.TaskFilter
	switch status {
	case "", StatusAll:
	case StatusPending:
		completed := false
		filter.Completed = &completed
	case StatusCompleted:
		completed := true
		filter.Completed = &completed
	default:
		return nil, apperr.Validation(validation.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("Status must be one of all, pending, completed; got %q", status),
			Type:    validation.TypeInvalid,
		})
	}
	return s.list(ctx, userID, filter)
}

func (s *TaskService) list(ctx context.Context, userID string, filter db.TaskFilter) ([]db.Task, error) {
	tasks, err := s.db.GetTasksByUser(ctx, userID, filter)
	if err != nil {
		return nil, apperr.Internal("failed to list tasks", err)
	}
	return tasks, nil
}

// Get returns a task of userID
func (s *TaskService) Get(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	task, err := s.db.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, s.translate(err, taskID, "failed to get task")
	}
	return task, nil
}

// Update applies the provided fields and refreshes updated_at
func (s *TaskService) Update(ctx context.Context, userID string, taskID int64, req UpdateTaskRequest) (*db.Task, error) {
	title, description, err := s.validator.ValidateUpdate(req.Title, req.Description, req.DescriptionSet)
	if err != nil {
		return nil, apperr.FromValidation(err)
	}

	task, err := s.db.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, s.translate(err, taskID, "failed to get task")
	}

	if title != nil {
		task.Title = *title
	}
	if req.DescriptionSet {
		task.Description = description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	task.UpdatedAt = s.now()

	updated, err := s.db.UpdateTask(ctx, task)
	if err != nil {
		return nil, s.translate(err, taskID, "failed to update task")
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Info("Task updated")
	return updated, nil
}

// Complete marks a task as completed
func (s *TaskService) Complete(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	completed := true
	return s.Update(ctx, userID, taskID, UpdateTaskRequest{Completed: &completed})
}

// ToggleComplete flips the completion flag of a task
func (s *TaskService) ToggleComplete(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	task, err := s.db.ToggleTask(ctx, userID, taskID, s.now())
	if err != nil {
		return nil, s.translate(err, taskID, "failed to toggle task")
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID, "completed": task.Completed}).Info("Task toggled")
	return task, nil
}

// Delete removes a task and returns it as it was before deletion
func (s *TaskService) Delete(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	task, err := s.db.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, s.translate(err, taskID, "failed to get task")
	}

	if err := s.db.DeleteTask(ctx, userID, taskID); err != nil {
		return nil, s.translate(err, taskID, "failed to delete task")
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Info("Task deleted")
	return task, nil
}

func (s *TaskService) translate(err error, taskID int64, action string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("Task %d not found", taskID)
	}
	return apperr.Internal(action, err)
}
