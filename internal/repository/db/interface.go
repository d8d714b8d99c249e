package db

import (
	"context"
	"time"
)

// Database defines the interface for all database operations.
// Task and conversation lookups take the owner's ID so that rows belonging
// to another user are indistinguishable from missing ones.
type Database interface {
	// Users
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Tasks
	CreateTask(ctx context.Context, task *Task) (*Task, error)
	GetTask(ctx context.Context, userID string, taskID int64) (*Task, error)
	GetTasksByUser(ctx context.Context, userID string, filter TaskFilter) ([]Task, error)
	UpdateTask(ctx context.Context, task *Task) (*Task, error)
	ToggleTask(ctx context.Context, userID string, taskID int64, updatedAt time.Time) (*Task, error)
	DeleteTask(ctx context.Context, userID string, taskID int64) error

	// Conversations
	CreateConversation(ctx context.Context, conversation *Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, userID string, id int64) (*Conversation, error)
	GetConversationsByUser(ctx context.Context, userID string) ([]ConversationInfo, error)

	// Messages
	AddMessage(ctx context.Context, message *Message) (*Message, error)
	GetConversationMessages(ctx context.Context, conversationID int64) ([]Message, error)
	GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error)

	Ping(ctx context.Context) error
	Close() error
}
