package conversation

import (
	"context"
	"encoding/json"
	"errors"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"
	"todo-app/internal/service/tools"

	"github.com/sirupsen/logrus"
)

// Transcript is a conversation with its full ordered message history
type Transcript struct {
	Conversation db.Conversation
	Messages     []Message
}

// Message is a stored message with its tool call records decoded
type Message struct {
	db.Message
	ToolCalls []tools.Record
}

// ConversationService handles the business logic for conversation management
type ConversationService struct {
	db db.Database
}

// NewConversationService creates a new ConversationService
func NewConversationService(database db.Database) *ConversationService {
	return &ConversationService{
		db: database,
	}
}

// GetUserConversations returns the user's conversations, most recently updated first
func (s *ConversationService) GetUserConversations(ctx context.Context, userID string) ([]db.ConversationInfo, error) {
	conversations, err := s.db.GetConversationsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve conversations", err)
	}
	return conversations, nil
}

// GetTranscript returns one conversation of the user with all its messages
func (s *ConversationService) GetTranscript(ctx context.Context, userID string, conversationID int64) (*Transcript, error) {
	conversation, err := s.db.GetConversation(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("Conversation %d not found", conversationID)
		}
		return nil, apperr.Internal("failed to get conversation", err)
	}

	stored, err := s.db.GetConversationMessages(ctx, conversation.ID)
	if err != nil {
		return nil, apperr.Internal("failed to retrieve messages", err)
	}

	messages := make([]Message, 0, len(stored))
	for _, msg := range stored {
		messages = append(messages, Message{Message: msg, ToolCalls: decodeToolCalls(msg)})
	}

	return &Transcript{Conversation: *conversation, Messages: messages}, nil
}

// decodeToolCalls parses the stored tool call records. A corrupt value is
// logged and treated as no calls so the transcript stays readable.
func decodeToolCalls(msg db.Message) []tools.Record {
	if msg.ToolCalls == nil || *msg.ToolCalls == "" {
		return nil
	}
	var records []tools.Record
	if err := json.Unmarshal([]byte(*msg.ToolCalls), &records); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"conversation_id": msg.ConversationID,
			"message_id":      msg.ID,
		}).WithError(err).Warn("Stored tool calls could not be decoded")
		return nil
	}
	return records
}
