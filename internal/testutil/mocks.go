// Package testutil holds hand-written mocks and fixtures shared by tests.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo-app/internal/app"
	"todo-app/internal/config"
	"todo-app/internal/repository/db"
	"todo-app/internal/repository/sqlstore"
	"todo-app/internal/service/llm"
)

var errNotImplemented = errors.New("not implemented")

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	CreateUserFunc     func(ctx context.Context, user *db.User) (*db.User, error)
	GetUserByIDFunc    func(ctx context.Context, id string) (*db.User, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (*db.User, error)

	// Task mocks
	CreateTaskFunc     func(ctx context.Context, task *db.Task) (*db.Task, error)
	GetTaskFunc        func(ctx context.Context, userID string, taskID int64) (*db.Task, error)
	GetTasksByUserFunc func(ctx context.Context, userID string, filter db.TaskFilter) ([]db.Task, error)
	UpdateTaskFunc     func(ctx context.Context, task *db.Task) (*db.Task, error)
	ToggleTaskFunc     func(ctx context.Context, userID string, taskID int64, updatedAt time.Time) (*db.Task, error)
	DeleteTaskFunc     func(ctx context.Context, userID string, taskID int64) error

	// Conversation mocks
	CreateConversationFunc     func(ctx context.Context, conversation *db.Conversation) (*db.Conversation, error)
	GetConversationFunc        func(ctx context.Context, userID string, id int64) (*db.Conversation, error)
	GetConversationsByUserFunc func(ctx context.Context, userID string) ([]db.ConversationInfo, error)

	// Message mocks
	AddMessageFunc              func(ctx context.Context, message *db.Message) (*db.Message, error)
	GetConversationMessagesFunc func(ctx context.Context, conversationID int64) ([]db.Message, error)
	GetRecentMessagesFunc       func(ctx context.Context, conversationID int64, limit int) ([]db.Message, error)

	PingFunc func(ctx context.Context) error
}

var _ db.Database = (*MockDatabase)(nil)

// User methods
func (m *MockDatabase) CreateUser(ctx context.Context, user *db.User) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, errNotImplemented
}

// Task methods
func (m *MockDatabase) CreateTask(ctx context.Context, task *db.Task) (*db.Task, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, task)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetTask(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, userID, taskID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetTasksByUser(ctx context.Context, userID string, filter db.TaskFilter) ([]db.Task, error) {
	if m.GetTasksByUserFunc != nil {
		return m.GetTasksByUserFunc(ctx, userID, filter)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) UpdateTask(ctx context.Context, task *db.Task) (*db.Task, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, task)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) ToggleTask(ctx context.Context, userID string, taskID int64, updatedAt time.Time) (*db.Task, error) {
	if m.ToggleTaskFunc != nil {
		return m.ToggleTaskFunc(ctx, userID, taskID, updatedAt)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, userID, taskID)
	}
	return errNotImplemented
}

// Conversation methods
func (m *MockDatabase) CreateConversation(ctx context.Context, conversation *db.Conversation) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, conversation)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversation(ctx context.Context, userID string, id int64) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, userID, id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationsByUser(ctx context.Context, userID string) ([]db.ConversationInfo, error) {
	if m.GetConversationsByUserFunc != nil {
		return m.GetConversationsByUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

// Message methods
func (m *MockDatabase) AddMessage(ctx context.Context, message *db.Message) (*db.Message, error) {
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(ctx, message)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationMessages(ctx context.Context, conversationID int64) ([]db.Message, error) {
	if m.GetConversationMessagesFunc != nil {
		return m.GetConversationMessagesFunc(ctx, conversationID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetRecentMessages(ctx context.Context, conversationID int64, limit int) ([]db.Message, error) {
	if m.GetRecentMessagesFunc != nil {
		return m.GetRecentMessagesFunc(ctx, conversationID, limit)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockDatabase) Close() error {
	return nil
}

// MockLLMProvider is a mock implementation of llm.LLMProvider for testing
type MockLLMProvider struct {
	ChatWithToolsFunc   func(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error)
	GetDefaultModelFunc func() string
}

var _ llm.LLMProvider = (*MockLLMProvider)(nil)

func (m *MockLLMProvider) ChatWithTools(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	if m.ChatWithToolsFunc != nil {
		return m.ChatWithToolsFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *MockLLMProvider) GetDefaultModel() string {
	if m.GetDefaultModelFunc != nil {
		return m.GetDefaultModelFunc()
	}
	return "test/model"
}

// ScriptedProvider returns a provider that replays completions in order and
// records every request it receives. Running past the script is an error.
func ScriptedProvider(completions ...*llm.Completion) (*MockLLMProvider, *[]llm.CompletionRequest) {
	var requests []llm.CompletionRequest
	provider := &MockLLMProvider{
		ChatWithToolsFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
			requests = append(requests, req)
			if len(requests) > len(completions) {
				return nil, errors.New("unexpected completion request")
			}
			return completions[len(requests)-1], nil
		},
	}
	return provider, &requests
}

// NewMockModelsConfig creates a catalog with the given model IDs
func NewMockModelsConfig(ids ...string) *config.ModelsConfig {
	if len(ids) == 0 {
		ids = []string{"test/model", "test/other"}
	}
	models := make([]config.Model, 0, len(ids))
	for _, id := range ids {
		models = append(models, config.Model{ID: id, Name: id, Provider: "Test"})
	}
	return config.NewModelsConfigFromList(models)
}

// NewMockConfig creates an app.Config for testing around the given database
func NewMockConfig(database db.Database) *app.Config {
	return app.NewConfig(database, &config.AppConfig{
		Server: config.ServerConfig{
			Port:        "8080",
			APIPrefix:   "/api",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		LLM: config.LLMConfig{
			Provider:       config.ProviderOpenRouter,
			APIKey:         "test-api-key",
			DefaultModel:   "test/model",
			SystemPrompt:   "You are a helpful task assistant.",
			Temperature:    0.2,
			MaxToolRounds:  5,
			HistoryLimit:   20,
			RequestTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:       []byte("0123456789abcdef0123456789abcdef"),
			TokenExpiration: time.Hour,
		},
		Models: NewMockModelsConfig(),
	})
}

// NewTestStore opens a migrated in-memory SQLite store closed at test end
func NewTestStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	store, err := sqlstore.New(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// CreateTestUser inserts a user with the given email
func CreateTestUser(t *testing.T, database db.Database, email string) *db.User {
	t.Helper()
	user, err := database.CreateUser(context.Background(), &db.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}
