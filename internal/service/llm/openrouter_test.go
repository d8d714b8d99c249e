package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todo-app/internal/config"
)

var testTools = []ToolDefinition{{
	Name:        "add_task",
	Description: "Create a task",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{"title": map[string]any{"type": "string"}},
		"required":   []string{"title"},
	},
}}

func testModels() *config.ModelsConfig {
	return config.NewModelsConfigFromList([]config.Model{{ID: "test/model"}})
}

func TestOpenRouterProvider_ChatWithTools(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "gen-1",
			"model": "test/model",
			"choices": [{
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "add_task", "arguments": "{\"title\":\"buy milk\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	cfg := &config.LLMConfig{APIKey: "test-key", BaseURL: server.URL + "/v1/"}
	provider := NewOpenRouterProvider(cfg, testModels(), server.Client())

	temp := 0.2
	completion, err := provider.ChatWithTools(context.Background(), CompletionRequest{
		SystemPrompt: "You are TaskAssistant.",
		Messages: []Message{
			{Role: RoleUser, Content: "earlier"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_0", Name: "list_tasks"}}},
			{Role: RoleTool, ToolCallID: "call_0", Name: "list_tasks", Content: `{"status":"success"}`},
			{Role: RoleUser, Content: "add a task to buy milk"},
		},
		Tools:       testTools,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("ChatWithTools() error = %v", err)
	}

	if got.Model != "test/model" {
		t.Errorf("request model = %s, want default test/model", got.Model)
	}
	if len(got.Messages) != 5 || got.Messages[0].Role != RoleSystem {
		t.Fatalf("request messages = %+v, want system prompt first", got.Messages)
	}
	if got.Messages[2].Content != nil {
		t.Errorf("assistant tool-call message content = %q, want null", *got.Messages[2].Content)
	}
	if got.Messages[2].ToolCalls[0].Function.Arguments != "{}" {
		t.Errorf("empty arguments sent as %q, want {}", got.Messages[2].ToolCalls[0].Function.Arguments)
	}
	if got.Messages[3].ToolCallID != "call_0" || got.Messages[3].Name != "list_tasks" {
		t.Errorf("tool message = %+v", got.Messages[3])
	}
	if len(got.Tools) != 1 || got.Tools[0].Type != "function" || got.ToolChoice != "auto" {
		t.Errorf("request tools = %+v, tool_choice = %s", got.Tools, got.ToolChoice)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("request temperature = %v, want 0.2", got.Temperature)
	}

	if completion.Content != "" {
		t.Errorf("Content = %q, want empty", completion.Content)
	}
	if len(completion.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %+v, want one call", completion.ToolCalls)
	}
	call := completion.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "add_task" || call.Arguments != `{"title":"buy milk"}` {
		t.Errorf("ToolCalls[0] = %+v", call)
	}
	if completion.FinishReason != "tool_calls" || completion.Usage == nil || completion.Usage.TotalTokens != 15 {
		t.Errorf("completion metadata = %+v", completion)
	}
}

func TestOpenRouterProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited"}}`, wantErr: "status 429"},
		{name: "error payload", status: http.StatusOK, body: `{"error":{"message":"no credits"}}`, wantErr: "no credits"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no response"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "error decoding response"},
		{
			name:    "non-function tool call",
			status:  http.StatusOK,
			body:    `{"choices":[{"message":{"role":"assistant","tool_calls":[{"id":"x","type":"retrieval","function":{"name":"add_task"}}]}}]}`,
			wantErr: "unsupported tool call type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			provider := NewOpenRouterProvider(&config.LLMConfig{APIKey: "k", BaseURL: server.URL}, testModels(), server.Client())
			_, err := provider.ChatWithTools(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ChatWithTools() error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestOpenRouterProvider_MissingAPIKey(t *testing.T) {
	provider := NewOpenRouterProvider(&config.LLMConfig{}, testModels(), nil)
	if _, err := provider.ChatWithTools(context.Background(), CompletionRequest{}); err == nil {
		t.Error("ChatWithTools() error = nil, want missing key error")
	}
}

func TestDecodeToolCalls(t *testing.T) {
	calls, err := decodeToolCalls([]chatToolCall{
		{ID: "a", Type: "function", Function: chatFunctionCall{Name: "list_tasks"}},
		{ID: "b", Function: chatFunctionCall{Name: "delete_task", Arguments: `{"task_id":3}`}},
	})
	if err != nil {
		t.Fatalf("decodeToolCalls() error = %v", err)
	}
	if calls[0].Arguments != "{}" || calls[1].Arguments != `{"task_id":3}` {
		t.Errorf("decodeToolCalls() = %+v", calls)
	}

	_, err = decodeToolCalls([]chatToolCall{{ID: "c", Type: "function"}})
	if !errors.Is(err, ErrUnsupportedToolCall) {
		t.Errorf("decodeToolCalls(nameless) error = %v, want ErrUnsupportedToolCall", err)
	}
}
