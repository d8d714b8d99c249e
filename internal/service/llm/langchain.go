package llm

import (
	"context"
	"fmt"
	"net/http"

	"todo-app/internal/config"
	"todo-app/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider implements LLMProvider on top of langchaingo's OpenAI
// client
type LangChainProvider struct {
	llm    llms.Model
	config *config.LLMConfig
	models *config.ModelsConfig
}

// NewLangChainProvider creates a provider backed by langchaingo
func NewLangChainProvider(llmConfig *config.LLMConfig, modelsConfig *config.ModelsConfig, httpClient *http.Client) (*LangChainProvider, error) {
	if llmConfig.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(llmConfig.APIKey),
		lcopenai.WithModel(modelsConfig.GetDefaultModel()),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(llmConfig.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, lcopenai.WithHTTPClient(httpClient))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating langchain client: %w", err)
	}

	return &LangChainProvider{llm: client, config: llmConfig, models: modelsConfig}, nil
}

// ChatWithTools runs one completion round through langchaingo
func (p *LangChainProvider) ChatWithTools(ctx context.Context, req CompletionRequest) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = p.GetDefaultModel()
	}

	opts := []llms.CallOption{llms.WithModel(model)}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}

	messages := toLangChainMessages(withSystemPrompt(req.SystemPrompt, req.Messages))

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(messages),
		"tool_count":    len(req.Tools),
	}).Info("Calling LangChain model")

	resp, err := p.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Content:      choice.Content,
		FinishReason: choice.StopReason,
		Model:        model,
		Usage:        usageFromGenerationInfo(choice.GenerationInfo),
	}
	for _, call := range choice.ToolCalls {
		if call.Type != "" && call.Type != "function" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedToolCall, call.Type)
		}
		if call.FunctionCall == nil {
			return nil, fmt.Errorf("%w: missing function", ErrUnsupportedToolCall)
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: normalizeArguments(call.FunctionCall.Arguments),
		})
	}

	return completion, nil
}

// GetDefaultModel returns the default model from the catalog
func (p *LangChainProvider) GetDefaultModel() string {
	return p.models.GetDefaultModel()
}

func toLangChainMessages(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		case RoleAssistant:
			content := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				content.Parts = append(content.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: normalizeArguments(call.Arguments),
					},
				})
			}
			out = append(out, content)
		}
	}
	return out
}

func usageFromGenerationInfo(info map[string]any) *ResponseUsage {
	prompt, ok1 := info["PromptTokens"].(int)
	completion, ok2 := info["CompletionTokens"].(int)
	total, ok3 := info["TotalTokens"].(int)
	if !ok1 && !ok2 && !ok3 {
		return nil
	}
	return &ResponseUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
