// Package user registers accounts and exchanges credentials for tokens.
package user

import (
	"context"
	"errors"

	"todo-app/internal/apperr"
	"todo-app/internal/auth"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"
	"todo-app/pkg/validation"

	"github.com/sirupsen/logrus"
)

const invalidCredentials = "Invalid email or password"

// Session is an issued token with the user it belongs to
type Session struct {
	Token string
	User  *db.User
}

// UserService handles registration and login
type UserService struct {
	db        db.Database
	tokens    *auth.TokenManager
	validator *validation.AuthRequestValidator
}

// NewUserService creates a new UserService
func NewUserService(database db.Database, tokens *auth.TokenManager) *UserService {
	return &UserService{
		db:        database,
		tokens:    tokens,
		validator: validation.NewAuthRequestValidator(),
	}
}

// Register creates an account and signs the new user in
func (s *UserService) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email, name, err := s.validator.ValidateRegisterRequest(email, password, name)
	if err != nil {
		return nil, apperr.FromValidation(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user, err := s.db.CreateUser(ctx, &db.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Validation(validation.FieldError{
				Field:   "email",
				Message: "Email is already registered",
				Type:    validation.TypeInvalid,
			})
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return s.session(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := s.validator.ValidateLoginRequest(email, password)
	if err != nil {
		return nil, apperr.FromValidation(err)
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Log.Info("Login failed: unknown email")
			return nil, apperr.Unauthorized(invalidCredentials, nil)
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	if !auth.VerifyPassword(user, password) {
		logger.Log.WithField("user_id", user.ID).Info("Login failed: invalid password")
		return nil, apperr.Unauthorized(invalidCredentials, nil)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User logged in")
	return s.session(user)
}

func (s *UserService) session(user *db.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}
	return &Session{Token: token, User: user}, nil
}
