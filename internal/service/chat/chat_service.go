// Package chat runs one chat turn: it resolves the conversation, lets the
// model call task tools, and persists the transcript.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-app/internal/app"
	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"
	"todo-app/internal/service/llm"
	"todo-app/internal/service/tools"
	"todo-app/pkg/validation"

	"github.com/sirupsen/logrus"
)

const (
	// MaxTitleLength bounds conversation titles derived from the first message
	MaxTitleLength = 100

	ProviderFailureReply = "I'm sorry, I couldn't process that request right now. Please try again."
	EmptyReply           = "I'm sorry, I couldn't process that request."
)

// ToolExecutor runs tool calls on behalf of a user
type ToolExecutor interface {
	Definitions() []llm.ToolDefinition
	Execute(ctx context.Context, userID string, call llm.ToolCall) tools.Record
}

// SendMessageRequest contains all the parameters needed to send a message
type SendMessageRequest struct {
	UserID         string // Extracted from auth context
	Message        string
	ConversationID *int64
	Model          string
}

// SendMessageResponse is the outcome of one chat turn
type SendMessageResponse struct {
	ConversationID int64
	Response       string
	ToolCalls      []tools.Record
	Model          string
	Usage          *llm.ResponseUsage
}

// ChatService handles the business logic for chat operations. It holds no
// per-request state and is safe for concurrent use.
type ChatService struct {
	db          db.Database
	config      *app.Config
	llmProvider llm.LLMProvider
	tools       ToolExecutor
	validator   *validation.ChatRequestValidator
	now         func() time.Time
}

// NewChatService creates a new ChatService
func NewChatService(database db.Database, config *app.Config, provider llm.LLMProvider, executor ToolExecutor) *ChatService {
	return &ChatService{
		db:          database,
		config:      config,
		llmProvider: provider,
		tools:       executor,
		validator:   validation.NewChatRequestValidator(config.ModelsConfig()),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// SendMessage runs one chat turn. Provider failures do not fail the turn:
// the user message and a fallback reply are persisted either way.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	message, err := s.validator.ValidateChatRequest(req.Message, req.ConversationID, req.Model)
	if err != nil {
		return nil, apperr.FromValidation(err)
	}

	conversation, err := s.resolveConversation(ctx, req.UserID, req.ConversationID, message)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.AddMessage(ctx, &db.Message{
		ConversationID: conversation.ID,
		UserID:         req.UserID,
		Role:           db.RoleUser,
		Content:        message,
		CreatedAt:      s.now(),
	}); err != nil {
		return nil, apperr.Internal("failed to save user message", err)
	}

	model := req.Model
	if model == "" {
		model = s.llmProvider.GetDefaultModel()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         req.UserID,
		"conversation_id": conversation.ID,
		"model":           model,
	})
	log.WithField("history_count", len(history)).Debug("Prepared for LLM call")

	// Once the user message is stored the turn must reach its assistant
	// message, even if the caller goes away during the model call.
	persistCtx := context.WithoutCancel(ctx)

	messages := append(history, llm.Message{Role: llm.RoleUser, Content: message})
	reply, records, usage := s.runToolLoop(ctx, req.UserID, model, messages, log)

	var toolCallsJSON *string
	if len(records) > 0 {
		data, err := json.Marshal(records)
		if err != nil {
			return nil, apperr.Internal("failed to encode tool calls", err)
		}
		encoded := string(data)
		toolCallsJSON = &encoded
	}

	if _, err := s.db.AddMessage(persistCtx, &db.Message{
		ConversationID: conversation.ID,
		UserID:         req.UserID,
		Role:           db.RoleAssistant,
		Content:        reply,
		ToolCalls:      toolCallsJSON,
		CreatedAt:      s.now(),
	}); err != nil {
		return nil, apperr.Internal("failed to save assistant message", err)
	}

	log.WithField("tool_calls", len(records)).Info("Chat turn completed")

	return &SendMessageResponse{
		ConversationID: conversation.ID,
		Response:       reply,
		ToolCalls:      records,
		Model:          model,
		Usage:          usage,
	}, nil
}

// runToolLoop calls the model until it answers without tool calls or the
// round limit is hit. It always produces a reply.
func (s *ChatService) runToolLoop(ctx context.Context, userID, model string, messages []llm.Message, log *logrus.Entry) (string, []tools.Record, *llm.ResponseUsage) {
	llmConfig := s.config.LLM()
	temperature := llmConfig.Temperature
	records := []tools.Record{}
	var usage *llm.ResponseUsage

	for round := 1; round <= llmConfig.MaxToolRounds; round++ {
		completion, err := s.llmProvider.ChatWithTools(ctx, llm.CompletionRequest{
			Model:        model,
			SystemPrompt: llmConfig.SystemPrompt,
			Messages:     messages,
			Tools:        s.tools.Definitions(),
			Temperature:  &temperature,
		})
		if err != nil {
			log.WithError(err).WithField("round", round).Error("LLM request failed")
			return ProviderFailureReply, records, usage
		}
		usage = addUsage(usage, completion.Usage)

		if len(completion.ToolCalls) == 0 {
			return replyOrDefault(completion.Content), records, usage
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			record := s.tools.Execute(ctx, userID, call)
			records = append(records, record)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    record.Result.Content(),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}

		if round == llmConfig.MaxToolRounds {
			log.WithField("rounds", round).Warn("Tool round limit reached")
			if strings.TrimSpace(completion.Content) != "" {
				return completion.Content, records, usage
			}
			return replyOrDefault(replyFromRecords(records)), records, usage
		}
	}

	return EmptyReply, records, usage
}

func (s *ChatService) resolveConversation(ctx context.Context, userID string, conversationID *int64, message string) (*db.Conversation, error) {
	if conversationID == nil {
		ts := s.now()
		conversation, err := s.db.CreateConversation(ctx, &db.Conversation{
			UserID:    userID,
			Title:     conversationTitle(message),
			CreatedAt: ts,
			UpdatedAt: ts,
		})
		if err != nil {
			return nil, apperr.Internal("failed to create conversation", err)
		}
		return conversation, nil
	}

	conversation, err := s.db.GetConversation(ctx, userID, *conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("Conversation %d not found", *conversationID)
		}
		return nil, apperr.Internal("failed to get conversation", err)
	}
	return conversation, nil
}

// loadHistory returns the most recent messages of the conversation as model input
func (s *ChatService) loadHistory(ctx context.Context, conversationID int64) ([]llm.Message, error) {
	limit := s.config.LLM().HistoryLimit
	if limit <= 0 {
		return nil, nil
	}

	stored, err := s.db.GetRecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve conversation history", err)
	}

	history := make([]llm.Message, 0, len(stored)+1)
	for _, msg := range stored {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return history, nil
}

func conversationTitle(message string) string {
	runes := []rune(message)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength])
	}
	return message
}

func replyOrDefault(content string) string {
	if strings.TrimSpace(content) == "" {
		return EmptyReply
	}
	return content
}

// replyFromRecords describes what the executed tools did, for turns where
// the model ran out of rounds before answering.
func replyFromRecords(records []tools.Record) string {
	var lines []string
	for _, record := range records {
		var line string
		switch {
		case record.Result.Error != nil:
			line = record.Result.Error.Message
		case record.Result.Count != nil:
			if *record.Result.Count == 1 {
				line = "Found 1 task"
			} else {
				line = fmt.Sprintf("Found %d tasks", *record.Result.Count)
			}
		default:
			line = record.Result.Message
		}
		line = strings.TrimSuffix(strings.TrimSpace(line), ".")
		if line == "" || (len(lines) > 0 && lines[len(lines)-1] == line+".") {
			continue
		}
		lines = append(lines, line+".")
	}
	return strings.Join(lines, " ")
}

func addUsage(total, round *llm.ResponseUsage) *llm.ResponseUsage {
	if round == nil {
		return total
	}
	if total == nil {
		total = &llm.ResponseUsage{}
	}
	total.PromptTokens += round.PromptTokens
	total.CompletionTokens += round.CompletionTokens
	total.TotalTokens += round.TotalTokens
	return total
}
