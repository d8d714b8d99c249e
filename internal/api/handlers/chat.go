package handlers

import (
	"net/http"
	"strconv"
	"time"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	chatService "todo-app/internal/service/chat"
	"todo-app/internal/service/tools"

	"github.com/gorilla/mux"
)

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	Model          string `json:"model,omitempty"`
}

type ChatResponse struct {
	ConversationID int64          `json:"conversation_id"`
	Response       string         `json:"response"`
	ToolCalls      []tools.Record `json:"tool_calls"`
	Model          string         `json:"model,omitempty"`
}

type ConversationInfo struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ConversationsResponse struct {
	Conversations []ConversationInfo `json:"conversations"`
}

type MessageData struct {
	ID        int64          `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []tools.Record `json:"tool_calls,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ConversationResponse struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []MessageData `json:"messages"`
}

func newChatResponse(resp *chatService.SendMessageResponse) ChatResponse {
	toolCalls := resp.ToolCalls
	if toolCalls == nil {
		toolCalls = []tools.Record{}
	}
	return ChatResponse{
		ConversationID: resp.ConversationID,
		Response:       resp.Response,
		ToolCalls:      toolCalls,
		Model:          resp.Model,
	}
}

// Chat handles POST /{user_id}/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	logger.Log.WithField("user_id", userID).Info("Chat request received")

	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.chatService.SendMessage(r.Context(), chatService.SendMessageRequest{
		UserID:         userID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Model:          req.Model,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newChatResponse(resp))
}

// ListConversations handles GET /{user_id}/conversations
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.conversationService.GetUserConversations(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ConversationsResponse{Conversations: make([]ConversationInfo, 0, len(conversations))}
	for _, conv := range conversations {
		resp.Conversations = append(resp.Conversations, ConversationInfo{
			ID:           conv.ID,
			Title:        conv.Title,
			MessageCount: conv.MessageCount,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConversation handles GET /{user_id}/conversations/{conversation_id}
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, err := strconv.ParseInt(mux.Vars(r)["conversation_id"], 10, 64)
	if err != nil || conversationID <= 0 {
		writeError(w, r, apperr.BadRequest("Invalid conversation ID"))
		return
	}

	transcript, err := h.conversationService.GetTranscript(r.Context(), currentUserID(r), conversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := ConversationResponse{
		ID:        transcript.Conversation.ID,
		Title:     transcript.Conversation.Title,
		CreatedAt: transcript.Conversation.CreatedAt,
		UpdatedAt: transcript.Conversation.UpdatedAt,
		Messages:  make([]MessageData, 0, len(transcript.Messages)),
	}
	for _, msg := range transcript.Messages {
		resp.Messages = append(resp.Messages, MessageData{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
			CreatedAt: msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
