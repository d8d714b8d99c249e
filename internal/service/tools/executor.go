// Package tools executes the task tools the chat model may call and
// records each call for persistence.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"
	"todo-app/internal/service/llm"
	"todo-app/internal/service/task"

	"github.com/sirupsen/logrus"
)

const internalFailureMessage = "The task could not be processed. Please try again."

// TaskOperations is the subset of the task service the tools drive
type TaskOperations interface {
	Create(ctx context.Context, userID string, req task.CreateTaskRequest) (*db.Task, error)
	ListByStatus(ctx context.Context, userID, status string) ([]db.Task, error)
	Complete(ctx context.Context, userID string, taskID int64) (*db.Task, error)
	Update(ctx context.Context, userID string, taskID int64, req task.UpdateTaskRequest) (*db.Task, error)
	Delete(ctx context.Context, userID string, taskID int64) (*db.Task, error)
}

// Executor dispatches tool calls to the task service on behalf of one user per call
type Executor struct {
	tasks TaskOperations
}

// NewExecutor creates a new Executor
func NewExecutor(tasks TaskOperations) *Executor {
	return &Executor{tasks: tasks}
}

// Definitions returns the tools this executor understands
func (e *Executor) Definitions() []llm.ToolDefinition {
	return Definitions()
}

type addTaskArgs struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type listTasksArgs struct {
	Status string `json:"status"`
}

type taskRefArgs struct {
	TaskID taskID `json:"task_id"`
}

type updateTaskArgs struct {
	TaskID      taskID  `json:"task_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Execute runs one tool call for userID. It never returns an error: every
// failure is reported inside the returned record so the model can react to it.
func (e *Executor) Execute(ctx context.Context, userID string, call llm.ToolCall) Record {
	record := Record{ToolName: call.Name, Arguments: map[string]any{}}

	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &record.Arguments); err != nil || record.Arguments == nil {
		record.Arguments = map[string]any{}
		record.Result = Err(ErrInvalidArguments, "Arguments must be a JSON object")
		e.log(userID, record)
		return record
	}

	switch call.Name {
	case AddTask:
		record.Result = e.addTask(ctx, userID, raw)
	case ListTasks:
		record.Result = e.listTasks(ctx, userID, raw)
	case CompleteTask:
		record.Result = e.completeTask(ctx, userID, raw)
	case DeleteTask:
		record.Result = e.deleteTask(ctx, userID, raw)
	case UpdateTask:
		record.Result = e.updateTask(ctx, userID, raw)
	default:
		record.Result = Err(ErrUnknownTool, fmt.Sprintf("Unknown tool %q", call.Name))
	}

	e.log(userID, record)
	return record
}

func (e *Executor) addTask(ctx context.Context, userID, raw string) Result {
	var args addTaskArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return invalidArguments(err)
	}
	t, err := e.tasks.Create(ctx, userID, task.CreateTaskRequest{Title: args.Title, Description: args.Description})
	if err != nil {
		return failure(err)
	}
	return Ok(StatusCreated, t.ID, t.Title, fmt.Sprintf("Task '%s' created", t.Title))
}

func (e *Executor) listTasks(ctx context.Context, userID, raw string) Result {
	var args listTasksArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return invalidArguments(err)
	}
	if args.Status == "" {
		args.Status = task.StatusAll
	}
	tasks, err := e.tasks.ListByStatus(ctx, userID, args.Status)
	if err != nil {
		return failure(err)
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, TaskSummary{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
		})
	}
	count := len(summaries)
	return Result{Status: StatusSuccess, Tasks: summaries, Count: &count}
}

func (e *Executor) completeTask(ctx context.Context, userID, raw string) Result {
	id, res, ok := requireTaskID(raw)
	if !ok {
		return res
	}
	t, err := e.tasks.Complete(ctx, userID, id)
	if err != nil {
		return failure(err)
	}
	return Ok(StatusCompleted, t.ID, t.Title, fmt.Sprintf("Task '%s' marked as completed", t.Title))
}

func (e *Executor) deleteTask(ctx context.Context, userID, raw string) Result {
	id, res, ok := requireTaskID(raw)
	if !ok {
		return res
	}
	t, err := e.tasks.Delete(ctx, userID, id)
	if err != nil {
		return failure(err)
	}
	return Ok(StatusDeleted, t.ID, t.Title, fmt.Sprintf("Task '%s' deleted", t.Title))
}

func (e *Executor) updateTask(ctx context.Context, userID, raw string) Result {
	var args updateTaskArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return invalidArguments(err)
	}
	if args.TaskID <= 0 {
		return Err(ErrInvalidArguments, "task_id is required and must be a positive integer")
	}

	req := task.UpdateTaskRequest{Title: args.Title}
	if args.Description != nil {
		req.Description = args.Description
		req.DescriptionSet = true
	}
	t, err := e.tasks.Update(ctx, userID, int64(args.TaskID), req)
	if err != nil {
		return failure(err)
	}
	return Ok(StatusUpdated, t.ID, t.Title, fmt.Sprintf("Task '%s' updated", t.Title))
}

func requireTaskID(raw string) (int64, Result, bool) {
	var args taskRefArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return 0, invalidArguments(err), false
	}
	if args.TaskID <= 0 {
		return 0, Err(ErrInvalidArguments, "task_id is required and must be a positive integer"), false
	}
	return int64(args.TaskID), Result{}, true
}

func invalidArguments(err error) Result {
	return Err(ErrInvalidArguments, "Invalid arguments: "+err.Error())
}

// failure converts a service error into a failed result. Internal details
// never reach the model.
func failure(err error) Result {
	appErr := apperr.As(err)
	switch appErr.Kind {
	case apperr.KindNotFound:
		return Err(ErrNotFound, appErr.Message)
	case apperr.KindValidation:
		messages := make([]string, 0, len(appErr.Fields))
		for _, f := range appErr.Fields {
			messages = append(messages, f.Message)
		}
		if len(messages) == 0 {
			messages = append(messages, appErr.Message)
		}
		return Err(ErrValidation, strings.Join(messages, "; "))
	case apperr.KindBadRequest:
		return Err(ErrInvalidArguments, appErr.Message)
	default:
		logger.Log.WithError(err).Error("Tool execution failed")
		return Err(ErrInternal, internalFailureMessage)
	}
}

func (e *Executor) log(userID string, record Record) {
	entry := logger.Log.WithFields(logrus.Fields{"user_id": userID, "tool": record.ToolName})
	if record.Result.IsOK() {
		entry.Debug("Tool executed")
		return
	}
	entry.WithField("error_kind", record.Result.Error.Kind).Info("Tool call failed")
}
