package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-app/internal/logger"
	"todo-app/internal/repository/db"

	"github.com/sirupsen/logrus"
)

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateTask inserts a task and returns it with its assigned ID
func (s *SQLStore) CreateTask(ctx context.Context, task *db.Task) (*db.Task, error) {
	created := *task
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	query := s.rebind(`
	INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	RETURNING id
	`)

	err := s.conn.QueryRowContext(ctx, query, created.UserID, created.Title, created.Description, created.Completed, created.CreatedAt, created.UpdatedAt).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"task_id": created.ID, "user_id": created.UserID}).Debug("Created task")

	return &created, nil
}

// GetTask retrieves a task owned by userID
func (s *SQLStore) GetTask(ctx context.Context, userID string, taskID int64) (*db.Task, error) {
	query := s.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`)

	task, err := scanTask(s.conn.QueryRowContext(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving task: %w", err)
	}
	return task, nil
}

// GetTasksByUser lists a user's tasks in insertion order
func (s *SQLStore) GetTasksByUser(ctx context.Context, userID string, filter db.TaskFilter) ([]db.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY id`

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []db.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask writes title, description, completed and updated_at of a task
// owned by task.UserID
func (s *SQLStore) UpdateTask(ctx context.Context, task *db.Task) (*db.Task, error) {
	query := s.rebind(`
	UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
	WHERE id = ? AND user_id = ?
	`)

	res, err := s.conn.ExecContext(ctx, query, task.Title, task.Description, task.Completed, task.UpdatedAt, task.ID, task.UserID)
	if err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return s.GetTask(ctx, task.UserID, task.ID)
}

// ToggleTask flips the completion flag in a single statement
func (s *SQLStore) ToggleTask(ctx context.Context, userID string, taskID int64, updatedAt time.Time) (*db.Task, error) {
	query := s.rebind(`
	UPDATE tasks SET completed = NOT completed, updated_at = ?
	WHERE id = ? AND user_id = ?
	`)

	res, err := s.conn.ExecContext(ctx, query, updatedAt, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("error toggling task: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return s.GetTask(ctx, userID, taskID)
}

// DeleteTask removes a task owned by userID
func (s *SQLStore) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	query := s.rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)

	res, err := s.conn.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	return requireAffected(res)
}

func scanTask(row rowScanner) (*db.Task, error) {
	var task db.Task
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
