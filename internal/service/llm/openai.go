package llm

import (
	"context"
	"fmt"
	"net/http"

	"todo-app/internal/config"
	"todo-app/internal/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements LLMProvider with the official openai-go SDK.
// It works against any OpenAI-compatible base URL.
type OpenAIProvider struct {
	client openai.Client
	config *config.LLMConfig
	models *config.ModelsConfig
}

// NewOpenAIProvider creates a provider backed by the openai-go client
func NewOpenAIProvider(llmConfig *config.LLMConfig, modelsConfig *config.ModelsConfig, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(llmConfig.APIKey),
		option.WithMaxRetries(0),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(llmConfig.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: llmConfig,
		models: modelsConfig,
	}
}

// ChatWithTools runs one completion round through the SDK
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.GetDefaultModel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(withSystemPrompt(req.SystemPrompt, req.Messages)),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		})
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(params.Messages),
		"tool_count":    len(params.Tools),
	}).Info("Calling OpenAI API")

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Model:        resp.Model,
		Usage: &ResponseUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, call := range choice.Message.ToolCalls {
		if call.Type != "" && string(call.Type) != "function" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedToolCall, call.Type)
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: normalizeArguments(call.Function.Arguments),
		})
	}

	return completion, nil
}

// GetDefaultModel returns the default model from the catalog
func (p *OpenAIProvider) GetDefaultModel() string {
	return p.models.GetDefaultModel()
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: normalizeArguments(call.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}
