package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-app/internal/logger"
	"todo-app/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateUser inserts a user. The ID is generated when empty.
func (s *SQLStore) CreateUser(ctx context.Context, user *db.User) (*db.User, error) {
	created := *user
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	query := s.rebind(`
	INSERT INTO "user" (id, email, name, password_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := s.conn.ExecContext(ctx, query, created.ID, created.Email, created.Name, created.PasswordHash, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, db.ErrDuplicate
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": created.ID}).Info("Created new user")

	return &created, nil
}

// GetUserByID retrieves a user by ID
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	query := s.rebind(`SELECT id, email, name, password_hash, created_at, updated_at FROM "user" WHERE id = ?`)
	return s.scanUser(s.conn.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	query := s.rebind(`SELECT id, email, name, password_hash, created_at, updated_at FROM "user" WHERE email = ?`)
	return s.scanUser(s.conn.QueryRowContext(ctx, query, email))
}

func (s *SQLStore) scanUser(row *sql.Row) (*db.User, error) {
	var user db.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}
