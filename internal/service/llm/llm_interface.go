package llm

import (
	"context"
	"errors"
)

// Chat roles understood by every provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrUnsupportedToolCall is returned when a provider reports a tool call
// that is not a function call.
var ErrUnsupportedToolCall = errors.New("unsupported tool call type")

// Message is one entry of the conversation sent to a provider
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tools
	ToolCallID string     // tool messages: the call being answered
	Name       string     // tool messages: the tool that produced Content
}

// ToolCall is a function call requested by the model. Arguments is the raw
// JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a callable tool. Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CompletionRequest is one model round
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  *float64
}

// ResponseUsage reports token counts when the provider returns them
type ResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the decoded result of a model round
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Model        string
	Usage        *ResponseUsage
}

// LLMProvider defines the interface for tool-calling LLM providers
// (OpenRouter direct API, OpenAI SDK, LangChain)
type LLMProvider interface {
	// ChatWithTools runs one completion round with the given tools available
	ChatWithTools(ctx context.Context, req CompletionRequest) (*Completion, error)

	// GetDefaultModel returns the default model for this provider
	GetDefaultModel() string
}

// withSystemPrompt prepends the system prompt to the history
func withSystemPrompt(prompt string, messages []Message) []Message {
	if prompt == "" {
		return messages
	}
	return append([]Message{{Role: RoleSystem, Content: prompt}}, messages...)
}

// normalizeArguments turns an empty argument string into an empty object
func normalizeArguments(args string) string {
	if args == "" {
		return "{}"
	}
	return args
}
