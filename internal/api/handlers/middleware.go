package handlers

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"todo-app/internal/apperr"
	"todo-app/internal/auth"
	"todo-app/internal/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes the connection through for WebSocket upgrades
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Request(r.Method, r.URL.Path).WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Request(r.Method, r.URL.Path).WithField("panic", rec).Error("Handler panicked")
				writeError(w, r, apperr.Internal("panic", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requireOwner authenticates the bearer token and checks that the {user_id}
// path segment names the authenticated user. WebSocket handshakes may pass
// the token as a query parameter because browsers cannot set headers on them.
func (h *Handlers) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" && websocket.IsWebSocketUpgrade(r) {
			token = strings.TrimSpace(r.URL.Query().Get("token"))
		}

		user, err := h.guard.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, authError(err))
			return
		}

		if err := auth.CheckOwnership(user, mux.Vars(r)["user_id"]); err != nil {
			writeError(w, r, authError(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// authError translates guard failures into their HTTP errors
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return apperr.Unauthorized("Authentication required", err)
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return apperr.Unauthorized("Invalid or expired token", err)
	case errors.Is(err, auth.ErrMalformedSubject):
		return apperr.Unauthorized("Invalid token payload: malformed user ID", err)
	case errors.Is(err, auth.ErrUserNotFound):
		return apperr.Unauthorized("User not found", err)
	case errors.Is(err, auth.ErrBadUserID):
		return apperr.BadRequest("Invalid user ID format in URL")
	case errors.Is(err, auth.ErrAccessDenied):
		return apperr.Forbidden("Access denied: You can only access your own resources")
	default:
		return apperr.Internal("authentication failed", err)
	}
}

// currentUserID returns the ID of the user set by requireOwner
func currentUserID(r *http.Request) string {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return ""
	}
	return user.ID
}
