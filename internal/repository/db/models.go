package db

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no row matches the owner-scoped lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("record already exists")
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User represents a user in the database
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Task is a todo item owned by exactly one user
type Task struct {
	ID          int64
	UserID      string
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter narrows a task listing. A nil Completed lists everything.
type TaskFilter struct {
	Completed *bool
}

// Conversation represents a conversation in the database
type Conversation struct {
	ID        int64
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationInfo is a conversation with its message count, used for listings
type ConversationInfo struct {
	Conversation
	MessageCount int
}

// Message represents a message in a conversation. ToolCalls holds the
// JSON-encoded record of tool invocations made while producing it.
type Message struct {
	ID             int64
	ConversationID int64
	UserID         string
	Role           string
	Content        string
	ToolCalls      *string
	CreatedAt      time.Time
}
