package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todo-app/internal/logger"
	"todo-app/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Guard failures. Callers match them with errors.Is.
var (
	ErrMissingCredentials    = errors.New("authentication required")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrMalformedSubject      = errors.New("invalid token payload: malformed user ID")
	ErrUserNotFound          = errors.New("user not found")

	ErrBadUserID    = errors.New("invalid user ID format in URL")
	ErrAccessDenied = errors.New("access denied: you can only access your own resources")
)

// UserLookup resolves a user by ID
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*db.User, error)
}

// Guard resolves bearer tokens to users. It holds no per-request state.
type Guard struct {
	tokens *TokenManager
	users  UserLookup
}

// NewGuard creates a Guard
func NewGuard(tokens *TokenManager, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// BearerToken extracts the token from an Authorization header value.
// Anything other than "Bearer <token>" counts as no credentials.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

// Authenticate verifies rawToken and returns the user it was issued to
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (*db.User, error) {
	if rawToken == "" {
		return nil, ErrMissingCredentials
	}

	claims, err := g.tokens.ValidateToken(rawToken)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"error": err, "expired": IsExpired(err)}).Debug("Token rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrExpiredToken, err)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrMalformedSubject
	}

	user, err := g.users.GetUserByID(ctx, subject.String())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}

	return user, nil
}

// CheckOwnership verifies that pathUserID names the authenticated user
func CheckOwnership(user *db.User, pathUserID string) error {
	target, err := uuid.Parse(pathUserID)
	if err != nil {
		return ErrBadUserID
	}

	owner, err := uuid.Parse(user.ID)
	if err != nil || owner != target {
		logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "path_user_id": pathUserID}).Warn("Cross-user access rejected")
		return ErrAccessDenied
	}
	return nil
}
