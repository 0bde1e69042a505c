// Package tasks provides the PostgreSQL-backed repository for task records.
// Every read and write carries the combined id+owner predicate: a task owned
// by someone else is indistinguishable from a task that does not exist.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepr is the SQLSTATE raised when a client-supplied id cannot be
// cast to the UUID column type. Ids are opaque to clients, so a malformed one
// matches nothing rather than being a server fault.
const invalidTextRepr = "22P02"

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepr
}

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a task for its owner and returns it with the
// database-assigned creation timestamp.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, priority, due_date, completed, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.DueDate, task.Completed, task.OwnerID).
		Scan(&task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// ListByOwner returns all tasks for ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, priority, due_date, completed, owner_id, created_at FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		var item models.Task
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Priority, &item.DueDate,
			&item.Completed, &item.OwnerID, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByIDAndOwner fetches a single task by the combined id+owner predicate.
func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id string, ownerID string) (*models.Task, error) {
	query := `
		SELECT id, title, description, priority, due_date, completed, owner_id, created_at FROM tasks
		WHERE id = $1 AND owner_id = $2
	`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&task.ID, &task.Title, &task.Description, &task.Priority, &task.DueDate,
		&task.Completed, &task.OwnerID, &task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// Update writes the mutable fields of task, constrained to its owner. If no
// row matches the id+owner pair the update affects nothing and
// common.ErrorNotFound is returned. OwnerID and CreatedAt are never written.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		UPDATE tasks SET
			title = $3,
			description = $4,
			priority = $5,
			due_date = $6,
			completed = $7
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Description, task.Priority, task.DueDate, task.Completed)
	if err != nil {
		if isInvalidID(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return task, nil
	case 0:
		return nil, common.ErrorNotFound
	default:
		return nil, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Delete removes a task, constrained to its owner; same predicate and
// not-found semantics as Update.
func (r *PostgresRepository) Delete(ctx context.Context, id string, ownerID string) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		if isInvalidID(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
