package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/policy"
)

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, title, description, state, creator_id, assignee_id, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {

	query :=
		`INSERT INTO tasks (id, title, description, state, creator_id, assignee_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.State, task.CreatorID, task.AssigneeID).
		Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// List returns tasks visible under scope, newest first. Admin scope lists
// everything; a user scope matches creator or assignee.
func (r *PostgresRepository) List(ctx context.Context, scope policy.Scope) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if !scope.All {
		query += ` WHERE creator_id = $1 OR assignee_id = $1`
		args = append(args, scope.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query :=
		`UPDATE tasks SET title = $1, description = $2, updated_at = now()
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res, common.ErrorNotFound)
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id string, expected, next models.State, assigneeID *string) error {
	query :=
		`UPDATE tasks SET state = $1, assignee_id = $2, updated_at = now()
		 WHERE id = $3 AND state = $4
		 `

	res, err := r.db.ExecContext(ctx, query, next, assigneeID, id, expected)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	// Zero rows means the read state went stale before the write landed.
	return requireOneRow(res, common.ErrorConflict)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res, common.ErrorNotFound)
}

func requireOneRow(res sql.Result, miss error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return miss
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var description sql.NullString
	var assignee sql.NullString
	err := row.Scan(&task.ID, &task.Title, &description, &task.State,
		&task.CreatorID, &assignee, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	if assignee.Valid {
		task.AssigneeID = &assignee.String
	}
	return task, nil
}
