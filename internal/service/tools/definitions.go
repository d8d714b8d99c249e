package tools

import "todo-app/internal/service/llm"

// Tool names
const (
	AddTask      = "add_task"
	ListTasks    = "list_tasks"
	CompleteTask = "complete_task"
	DeleteTask   = "delete_task"
	UpdateTask   = "update_task"
)

func taskIDProperty(action string) map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "The ID of the task to " + action,
	}
}

// Definitions returns the tool catalog offered to the model
func Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        AddTask,
			Description: "Create a new task for the user.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "The task title (required, at most 200 characters)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional task description (at most 1000 characters)",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        ListTasks,
			Description: "List the user's tasks, optionally filtered by completion status.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type":        "string",
						"enum":        []string{"all", "pending", "completed"},
						"description": "Which tasks to return (default: all)",
					},
				},
			},
		},
		{
			Name:        CompleteTask,
			Description: "Mark a task as completed.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"task_id": taskIDProperty("complete")},
				"required":   []string{"task_id"},
			},
		},
		{
			Name:        DeleteTask,
			Description: "Delete a task permanently.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"task_id": taskIDProperty("delete")},
				"required":   []string{"task_id"},
			},
		},
		{
			Name:        UpdateTask,
			Description: "Change the title and/or description of a task.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": taskIDProperty("update"),
					"title": map[string]any{
						"type":        "string",
						"description": "New task title",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New task description; an empty string clears it",
					},
				},
				"required": []string{"task_id"},
			},
		},
	}
}
