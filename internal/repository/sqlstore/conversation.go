package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-app/internal/logger"
	"todo-app/internal/repository/db"

	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (s *SQLStore) CreateConversation(ctx context.Context, conversation *db.Conversation) (*db.Conversation, error) {
	created := *conversation
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	query := s.rebind(`
	INSERT INTO conversations (user_id, title, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	RETURNING id
	`)

	err := s.conn.QueryRowContext(ctx, query, created.UserID, created.Title, created.CreatedAt, created.UpdatedAt).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": created.ID, "user_id": created.UserID}).Info("Created new conversation")

	return &created, nil
}

// GetConversation retrieves a conversation owned by userID
func (s *SQLStore) GetConversation(ctx context.Context, userID string, id int64) (*db.Conversation, error) {
	query := s.rebind(`
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE id = ? AND user_id = ?
	`)

	var conv db.Conversation
	err := s.conn.QueryRowContext(ctx, query, id, userID).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}

	return &conv, nil
}

// GetConversationsByUser lists a user's conversations, most recently updated first
func (s *SQLStore) GetConversationsByUser(ctx context.Context, userID string) ([]db.ConversationInfo, error) {
	query := s.rebind(`
	SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count
	FROM conversations c
	WHERE c.user_id = ?
	ORDER BY c.updated_at DESC, c.id DESC
	`)

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	conversations := []db.ConversationInfo{}
	for rows.Next() {
		var info db.ConversationInfo
		if err := rows.Scan(&info.ID, &info.UserID, &info.Title, &info.CreatedAt, &info.UpdatedAt, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

// AddMessage appends a message and bumps the conversation's updated_at in
// one transaction
func (s *SQLStore) AddMessage(ctx context.Context, message *db.Message) (*db.Message, error) {
	created := *message
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	insert := s.rebind(`
	INSERT INTO messages (conversation_id, user_id, role, content, tool_calls, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id
	`)
	err = tx.QueryRowContext(ctx, insert, created.ConversationID, created.UserID, created.Role, created.Content, created.ToolCalls, created.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	touch := s.rebind(`UPDATE conversations SET updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, touch, created.CreatedAt, created.ConversationID); err != nil {
		return nil, fmt.Errorf("error updating conversation timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing message: %w", err)
	}

	return &created, nil
}

// GetConversationMessages retrieves all messages of a conversation in order
func (s *SQLStore) GetConversationMessages(ctx context.Context, conversationID int64) ([]db.Message, error) {
	query := s.rebind(`
	SELECT id, conversation_id, user_id, role, content, tool_calls, created_at
	FROM messages
	WHERE conversation_id = ?
	ORDER BY created_at ASC, id ASC
	`)
	return s.queryMessages(ctx, query, conversationID)
}

// GetRecentMessages returns the last limit messages of a conversation,
// oldest first
func (s *SQLStore) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]db.Message, error) {
	if limit <= 0 {
		return []db.Message{}, nil
	}

	query := s.rebind(`
	SELECT id, conversation_id, user_id, role, content, tool_calls, created_at
	FROM messages
	WHERE conversation_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`)
	messages, err := s.queryMessages(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...any) ([]db.Message, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	messages := []db.Message{}
	for rows.Next() {
		var msg db.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.Role, &msg.Content, &msg.ToolCalls, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
