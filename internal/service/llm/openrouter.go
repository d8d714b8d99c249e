package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"todo-app/internal/config"
	"todo-app/internal/logger"

	"github.com/sirupsen/logrus"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements LLMProvider using direct calls to an
// OpenAI-compatible chat completions endpoint (OpenRouter by default)
type OpenRouterProvider struct {
	config  *config.LLMConfig
	models  *config.ModelsConfig
	client  *http.Client
	baseURL string
}

// NewOpenRouterProvider creates a new OpenRouter provider with config
func NewOpenRouterProvider(llmConfig *config.LLMConfig, modelsConfig *config.ModelsConfig, client *http.Client) *OpenRouterProvider {
	baseURL := llmConfig.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: llmConfig.RequestTimeout}
	}
	return &OpenRouterProvider{
		config:  llmConfig,
		models:  modelsConfig,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Wire types of the chat completions API

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *ResponseUsage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatWithTools sends one completion round and decodes any tool calls
func (p *OpenRouterProvider) ChatWithTools(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.GetDefaultModel()
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(req.Messages),
		"tool_count":    len(req.Tools),
	}).Info("Calling OpenRouter API")

	reqBody := chatRequest{
		Model:       model,
		Messages:    toChatMessages(withSystemPrompt(req.SystemPrompt, req.Messages)),
		Stream:      false,
		Temperature: req.Temperature,
	}
	for _, tool := range req.Tools {
		reqBody.Tools = append(reqBody.Tools, chatTool{
			Type:     "function",
			Function: chatFunction{Name: tool.Name, Description: tool.Description, Parameters: tool.Parameters},
		})
	}
	if len(reqBody.Tools) > 0 {
		reqBody.ToolChoice = "auto"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	httpReq.Header.Set("HTTP-Referer", "http://localhost:3000")
	httpReq.Header.Set("X-Title", "Todo App")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	choice := chatResp.Choices[0]
	toolCalls, err := decodeToolCalls(choice.Message.ToolCalls)
	if err != nil {
		return nil, err
	}

	completion := &Completion{
		ToolCalls:    toolCalls,
		FinishReason: choice.FinishReason,
		Model:        chatResp.Model,
		Usage:        chatResp.Usage,
	}
	if choice.Message.Content != nil {
		completion.Content = *choice.Message.Content
	}

	logger.Log.WithFields(logrus.Fields{
		"generation_id":  chatResp.ID,
		"finish_reason":  choice.FinishReason,
		"tool_calls":     len(toolCalls),
		"content_length": len(completion.Content),
	}).Debug("Received completion")

	return completion, nil
}

// GetDefaultModel returns the default model from the catalog
func (p *OpenRouterProvider) GetDefaultModel() string {
	return p.models.GetDefaultModel()
}

func toChatMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		content := msg.Content
		wire := chatMessage{
			Role:       msg.Role,
			Content:    &content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role == RoleTool {
			wire.Name = msg.Name
		}
		for _, call := range msg.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, chatToolCall{
				ID:       call.ID,
				Type:     "function",
				Function: chatFunctionCall{Name: call.Name, Arguments: normalizeArguments(call.Arguments)},
			})
		}
		if len(wire.ToolCalls) > 0 && content == "" {
			wire.Content = nil
		}
		out = append(out, wire)
	}
	return out
}

// decodeToolCalls maps wire tool calls onto ToolCall, accepting only
// function calls.
func decodeToolCalls(calls []chatToolCall) ([]ToolCall, error) {
	var out []ToolCall
	for _, call := range calls {
		if call.Type != "" && call.Type != "function" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedToolCall, call.Type)
		}
		if call.Function.Name == "" {
			return nil, fmt.Errorf("%w: missing function name", ErrUnsupportedToolCall)
		}
		out = append(out, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: normalizeArguments(call.Function.Arguments),
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
