package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	chatService "todo-app/internal/service/chat"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a frame to the peer
	wsWriteWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	wsPongWait = 60 * time.Second

	// Send pings with this period. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	wsMaxMessageSize = 64 * 1024
)

// ChatWebSocket handles GET /{user_id}/chat/ws. Every text frame carries a
// chat request and is answered with one chat response or error frame.
// Turns on one connection run in order.
func (h *Handlers) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := currentUserID(r)
	log := logger.Log.WithFields(logrus.Fields{"user_id": userID, "transport": "websocket"})
	log.Info("WebSocket chat connected")

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("WebSocket chat closed unexpectedly")
			}
			return
		}

		reply := h.handleChatFrame(r, userID, data)

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("WebSocket write failed")
			return
		}

		// A long turn must not eat the pong budget.
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

func (h *Handlers) handleChatFrame(r *http.Request, userID string, data []byte) any {
	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(r, apperr.BadRequest("Invalid message frame"))
	}

	resp, err := h.chatService.SendMessage(r.Context(), chatService.SendMessageRequest{
		UserID:         userID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Model:          req.Model,
	})
	if err != nil {
		return errorResponse(r, err)
	}
	return newChatResponse(resp)
}

// pingLoop keeps the connection alive until done is closed.
// WriteControl may run concurrently with the reader loop's writes.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts same-origin clients, non-browser clients and the
// configured CORS origins.
func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AppConfig.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
