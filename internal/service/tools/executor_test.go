package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"todo-app/internal/repository/db"
	"todo-app/internal/service/llm"
	"todo-app/internal/service/task"
	"todo-app/internal/testutil"
)

func newTestExecutor(t *testing.T) (*Executor, *task.TaskService, string) {
	t.Helper()
	store := testutil.NewTestStore(t)
	user := testutil.CreateTestUser(t, store, "tools@example.com")
	tasks := task.NewTaskService(store)
	return NewExecutor(tasks), tasks, user.ID
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_1", Name: name, Arguments: args}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	want := []string{AddTask, ListTasks, CompleteTask, DeleteTask, UpdateTask}
	if len(defs) != len(want) {
		t.Fatalf("Definitions() returned %d tools, want %d", len(defs), len(want))
	}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("defs[%d].Name = %s, want %s", i, def.Name, want[i])
		}
		if def.Parameters["type"] != "object" {
			t.Errorf("%s parameters are not an object schema", def.Name)
		}
		if _, err := json.Marshal(def.Parameters); err != nil {
			t.Errorf("%s schema does not encode: %v", def.Name, err)
		}
	}
}

func TestExecute_AddTask(t *testing.T) {
	executor, tasks, userID := newTestExecutor(t)
	ctx := context.Background()

	record := executor.Execute(ctx, userID, call(AddTask, `{"title":"Buy groceries","description":"milk, eggs"}`))

	if record.ToolName != AddTask {
		t.Errorf("ToolName = %s, want %s", record.ToolName, AddTask)
	}
	if record.Arguments["title"] != "Buy groceries" {
		t.Errorf("Arguments = %v, want decoded arguments", record.Arguments)
	}
	if !record.Result.IsOK() || record.Result.Status != StatusCreated {
		t.Fatalf("Result = %+v, want created", record.Result)
	}
	if record.Result.Title != "Buy groceries" || record.Result.TaskID == 0 {
		t.Errorf("Result = %+v, want task id and title", record.Result)
	}

	stored, err := tasks.Get(ctx, userID, record.Result.TaskID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Description == nil || *stored.Description != "milk, eggs" {
		t.Errorf("stored description = %v, want milk, eggs", stored.Description)
	}
}

func TestExecute_ListTasks(t *testing.T) {
	executor, tasks, userID := newTestExecutor(t)
	ctx := context.Background()

	first, _ := tasks.Create(ctx, userID, task.CreateTaskRequest{Title: "First"})
	tasks.Create(ctx, userID, task.CreateTaskRequest{Title: "Second"})
	tasks.Complete(ctx, userID, first.ID)

	tests := []struct {
		name      string
		args      string
		wantCount int
	}{
		{name: "default is all", args: `{}`, wantCount: 2},
		{name: "empty arguments", args: ``, wantCount: 2},
		{name: "pending", args: `{"status":"pending"}`, wantCount: 1},
		{name: "completed", args: `{"status":"completed"}`, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := executor.Execute(ctx, userID, call(ListTasks, tt.args)).Result
			if result.Status != StatusSuccess {
				t.Fatalf("Status = %s, want success (%+v)", result.Status, result.Error)
			}
			if result.Count == nil || *result.Count != tt.wantCount || len(result.Tasks) != tt.wantCount {
				t.Errorf("got %d tasks, want %d", len(result.Tasks), tt.wantCount)
			}
		})
	}

	result := executor.Execute(ctx, userID, call(ListTasks, `{"status":"someday"}`)).Result
	if result.IsOK() || result.Error.Kind != ErrValidation {
		t.Errorf("invalid status result = %+v, want validation_error", result)
	}
}

func TestExecute_CompleteDeleteUpdate(t *testing.T) {
	executor, tasks, userID := newTestExecutor(t)
	ctx := context.Background()

	created, _ := tasks.Create(ctx, userID, task.CreateTaskRequest{Title: "Call mom"})

	result := executor.Execute(ctx, userID, call(CompleteTask, `{"task_id":"`+itoa(created.ID)+`"}`)).Result
	if result.Status != StatusCompleted || result.Title != "Call mom" {
		t.Fatalf("complete_task = %+v, want completed", result)
	}
	if got, _ := tasks.Get(ctx, userID, created.ID); !got.Completed {
		t.Error("task not completed")
	}

	result = executor.Execute(ctx, userID, call(UpdateTask, `{"task_id":`+itoa(created.ID)+`,"title":"Call dad","description":"Sunday"}`)).Result
	if result.Status != StatusUpdated || result.Title != "Call dad" {
		t.Fatalf("update_task = %+v, want updated", result)
	}
	got, _ := tasks.Get(ctx, userID, created.ID)
	if got.Description == nil || *got.Description != "Sunday" {
		t.Errorf("description = %v, want Sunday", got.Description)
	}

	result = executor.Execute(ctx, userID, call(DeleteTask, `{"task_id":`+itoa(created.ID)+`}`)).Result
	if result.Status != StatusDeleted || result.TaskID != created.ID {
		t.Fatalf("delete_task = %+v, want deleted", result)
	}

	result = executor.Execute(ctx, userID, call(DeleteTask, `{"task_id":`+itoa(created.ID)+`}`)).Result
	if result.IsOK() || result.Error.Kind != ErrNotFound {
		t.Fatalf("second delete_task = %+v, want not_found", result)
	}
	if result.Error.Message != "Task "+itoa(created.ID)+" not found" {
		t.Errorf("Message = %q", result.Error.Message)
	}
}

func TestExecute_Failures(t *testing.T) {
	executor, _, userID := newTestExecutor(t)

	tests := []struct {
		name     string
		call     llm.ToolCall
		wantKind string
	}{
		{name: "unknown tool", call: call("launch_rocket", `{}`), wantKind: ErrUnknownTool},
		{name: "malformed json", call: call(AddTask, `{"title":`), wantKind: ErrInvalidArguments},
		{name: "non-object arguments", call: call(AddTask, `["x"]`), wantKind: ErrInvalidArguments},
		{name: "wrong argument type", call: call(AddTask, `{"title":42}`), wantKind: ErrInvalidArguments},
		{name: "empty title", call: call(AddTask, `{"title":"  "}`), wantKind: ErrValidation},
		{name: "missing task id", call: call(CompleteTask, `{}`), wantKind: ErrInvalidArguments},
		{name: "non-numeric task id", call: call(DeleteTask, `{"task_id":"abc"}`), wantKind: ErrInvalidArguments},
		{name: "update missing task id", call: call(UpdateTask, `{"title":"x"}`), wantKind: ErrInvalidArguments},
		{name: "unknown task", call: call(CompleteTask, `{"task_id":999}`), wantKind: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := executor.Execute(context.Background(), userID, tt.call)
			if record.Result.IsOK() {
				t.Fatalf("Result = %+v, want failure", record.Result)
			}
			if record.Result.Status != StatusFailed {
				t.Errorf("Status = %s, want failed", record.Result.Status)
			}
			if record.Result.Error.Kind != tt.wantKind {
				t.Errorf("Error.Kind = %s, want %s (%s)", record.Result.Error.Kind, tt.wantKind, record.Result.Error.Message)
			}
			if record.Arguments == nil {
				t.Error("Arguments = nil, want an object")
			}
		})
	}
}

func TestExecute_OtherUsersTasks(t *testing.T) {
	store := testutil.NewTestStore(t)
	alice := testutil.CreateTestUser(t, store, "alice@example.com")
	bob := testutil.CreateTestUser(t, store, "bob@example.com")
	tasks := task.NewTaskService(store)
	executor := NewExecutor(tasks)
	ctx := context.Background()

	created, _ := tasks.Create(ctx, alice.ID, task.CreateTaskRequest{Title: "Private"})

	for _, name := range []string{CompleteTask, DeleteTask} {
		result := executor.Execute(ctx, bob.ID, call(name, `{"task_id":`+itoa(created.ID)+`}`)).Result
		if result.IsOK() || result.Error.Kind != ErrNotFound {
			t.Errorf("%s on another user's task = %+v, want not_found", name, result)
		}
	}

	list := executor.Execute(ctx, bob.ID, call(ListTasks, `{}`)).Result
	if *list.Count != 0 {
		t.Errorf("list_tasks for bob returned %d tasks, want 0", *list.Count)
	}
}

func TestExecute_InternalErrorsAreHidden(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		CreateTaskFunc: func(ctx context.Context, t *db.Task) (*db.Task, error) {
			return nil, errors.New("pq: relation \"tasks\" does not exist")
		},
	}
	executor := NewExecutor(task.NewTaskService(mockDB))

	result := executor.Execute(context.Background(), "user", call(AddTask, `{"title":"x"}`)).Result
	if result.IsOK() || result.Error.Kind != ErrInternal {
		t.Fatalf("Result = %+v, want internal_error", result)
	}
	if strings.Contains(result.Error.Message, "pq") {
		t.Errorf("Message leaks driver error: %q", result.Error.Message)
	}
}

func TestResult_Content(t *testing.T) {
	content := Err(ErrNotFound, "Task 7 not found").Content()

	var decoded map[string]any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("Content() is not JSON: %v", err)
	}
	if decoded["status"] != "failed" {
		t.Errorf("status = %v, want failed", decoded["status"])
	}
	errObj, _ := decoded["error"].(map[string]any)
	if errObj["kind"] != "not_found" || errObj["message"] != "Task 7 not found" {
		t.Errorf("error = %v", decoded["error"])
	}
	if _, ok := decoded["task_id"]; ok {
		t.Error("failed result carries a task_id")
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// mockTaskOperations is a TaskOperations with Func fields
type mockTaskOperations struct {
	UpdateFunc func(ctx context.Context, userID string, taskID int64, req task.UpdateTaskRequest) (*db.Task, error)
}

func (m *mockTaskOperations) Create(ctx context.Context, userID string, req task.CreateTaskRequest) (*db.Task, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskOperations) ListByStatus(ctx context.Context, userID, status string) ([]db.Task, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskOperations) Complete(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskOperations) Update(ctx context.Context, userID string, taskID int64, req task.UpdateTaskRequest) (*db.Task, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, taskID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskOperations) Delete(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	return nil, errors.New("not implemented")
}

func TestExecute_UpdateTaskArguments(t *testing.T) {
	tests := []struct {
		name           string
		args           string
		wantTitle      *string
		wantDescSet    bool
		wantDescClears bool
	}{
		{name: "title only", args: `{"task_id":3,"title":"New"}`, wantTitle: strPtr("New")},
		{name: "description only", args: `{"task_id":3,"description":"Notes"}`, wantDescSet: true},
		{name: "empty description clears", args: `{"task_id":3,"description":""}`, wantDescSet: true, wantDescClears: true},
		{name: "null description is absent", args: `{"task_id":3,"description":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got task.UpdateTaskRequest
			ops := &mockTaskOperations{
				UpdateFunc: func(ctx context.Context, userID string, taskID int64, req task.UpdateTaskRequest) (*db.Task, error) {
					if userID != "user-1" || taskID != 3 {
						t.Errorf("Update(%s, %d), want (user-1, 3)", userID, taskID)
					}
					got = req
					return &db.Task{ID: taskID, Title: "New"}, nil
				},
			}

			record := NewExecutor(ops).Execute(context.Background(), "user-1", call(UpdateTask, tt.args))
			if !record.Result.IsOK() {
				t.Fatalf("Result = %+v, want success", record.Result)
			}

			if (got.Title == nil) != (tt.wantTitle == nil) || (got.Title != nil && *got.Title != *tt.wantTitle) {
				t.Errorf("Title = %v, want %v", got.Title, tt.wantTitle)
			}
			if got.DescriptionSet != tt.wantDescSet {
				t.Errorf("DescriptionSet = %v, want %v", got.DescriptionSet, tt.wantDescSet)
			}
			if tt.wantDescClears && (got.Description == nil || *got.Description != "") {
				t.Errorf("Description = %v, want empty string to clear", got.Description)
			}
			if got.Completed != nil {
				t.Error("update_task must not touch completion")
			}
		})
	}
}

func strPtr(s string) *string { return &s }
