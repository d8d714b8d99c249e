// Package handlers exposes the HTTP API: routing, middleware and the JSON
// handlers for tasks, chat, conversations and accounts.
package handlers

import (
	"net/http"

	"todo-app/internal/app"
	"todo-app/internal/auth"
	chatService "todo-app/internal/service/chat"
	conversationService "todo-app/internal/service/conversation"
	"todo-app/internal/service/llm"
	taskService "todo-app/internal/service/task"
	"todo-app/internal/service/tools"
	userService "todo-app/internal/service/user"

	"github.com/gorilla/mux"
)

// Handlers holds the services behind every route. It is built once per
// process and shared by all requests.
type Handlers struct {
	config              *app.Config
	guard               *auth.Guard
	taskService         *taskService.TaskService
	chatService         *chatService.ChatService
	conversationService *conversationService.ConversationService
	userService         *userService.UserService
}

// NewHandlers wires the services around the configured database and LLM provider
func NewHandlers(config *app.Config, provider llm.LLMProvider) *Handlers {
	tokens := auth.NewTokenManager(config.AppConfig.Auth.JWTSecret, config.AppConfig.Auth.TokenExpiration)
	tasks := taskService.NewTaskService(config.DB)

	return &Handlers{
		config:              config,
		guard:               auth.NewGuard(tokens, config.DB),
		taskService:         tasks,
		chatService:         chatService.NewChatService(config.DB, config, provider, tools.NewExecutor(tasks)),
		conversationService: conversationService.NewConversationService(config.DB),
		userService:         userService.NewUserService(config.DB, tokens),
	}
}

// Router builds the full HTTP handler. CORS, logging and panic recovery wrap
// the router so they also apply to preflight requests and unmatched routes.
func (h *Handlers) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r
	if prefix := h.config.AppConfig.Server.APIPrefix; prefix != "" {
		api = r.PathPrefix(prefix).Subrouter()
	}

	// Public routes
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/models", h.Models).Methods(http.MethodGet)

	// Owner-scoped routes
	user := api.PathPrefix("/{user_id}").Subrouter()
	user.Use(h.requireOwner)

	user.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	user.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	user.HandleFunc("/tasks/{task_id}", h.GetTask).Methods(http.MethodGet)
	user.HandleFunc("/tasks/{task_id}", h.UpdateTask).Methods(http.MethodPut)
	user.HandleFunc("/tasks/{task_id}", h.DeleteTask).Methods(http.MethodDelete)
	user.HandleFunc("/tasks/{task_id}/complete", h.ToggleTask).Methods(http.MethodPatch)

	user.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	user.HandleFunc("/chat/ws", h.ChatWebSocket).Methods(http.MethodGet)

	user.HandleFunc("/conversations", h.ListConversations).Methods(http.MethodGet)
	user.HandleFunc("/conversations/{conversation_id}", h.GetConversation).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = corsMiddleware(h.config.AppConfig.Server.CORSOrigins)(handler)
	handler = loggingMiddleware(handler)
	handler = recoveryMiddleware(handler)
	return handler
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "Not Found", StatusCode: http.StatusNotFound})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Detail: "Method Not Allowed", StatusCode: http.StatusMethodNotAllowed})
}
