package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Result statuses
const (
	StatusCreated   = "created"
	StatusSuccess   = "success"
	StatusCompleted = "completed"
	StatusDeleted   = "deleted"
	StatusUpdated   = "updated"
	StatusFailed    = "failed"
)

// Error kinds reported back to the model
const (
	ErrInvalidArguments = "invalid_arguments"
	ErrValidation       = "validation_error"
	ErrNotFound         = "not_found"
	ErrUnknownTool      = "unknown_tool"
	ErrInternal         = "internal_error"
)

// ToolError is the failure half of a Result
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// TaskSummary is the task shape list_tasks returns
type TaskSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Result is the outcome of one tool call: Error is nil on success.
type Result struct {
	Status  string        `json:"status"`
	TaskID  int64         `json:"task_id,omitempty"`
	Title   string        `json:"title,omitempty"`
	Message string        `json:"message,omitempty"`
	Tasks   []TaskSummary `json:"tasks,omitempty"`
	Count   *int          `json:"count,omitempty"`
	Error   *ToolError    `json:"error,omitempty"`
}

// Ok builds a successful result
func Ok(status string, taskID int64, title, message string) Result {
	return Result{Status: status, TaskID: taskID, Title: title, Message: message}
}

// Err builds a failed result
func Err(kind, message string) Result {
	return Result{Status: StatusFailed, Error: &ToolError{Kind: kind, Message: message}}
}

// IsOK reports whether the call succeeded
func (r Result) IsOK() bool {
	return r.Error == nil
}

// Record is the persisted trace of one executed tool call
type Record struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    Result         `json:"result"`
}

// Content renders the result as the tool message sent back to the model
func (r Result) Content() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"status":"failed","error":{"kind":"internal_error","message":"result could not be encoded"}}`
	}
	return string(data)
}

// taskID accepts a task ID sent either as a JSON number or a numeric string
type taskID int64

func (id *taskID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("task_id must be an integer, got %s", data)
	}
	*id = taskID(n)
	return nil
}
