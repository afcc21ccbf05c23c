package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// PostgresRepository implements event storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload marshal error: %w", err)
	}

	query :=
		`INSERT INTO events (id, event_type, payload, task_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		event.ID, event.EventType, payload, event.TaskID).Scan(&event.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}

// ListUnprocessed returns up to limit events with no processed_at mark,
// oldest first, for downstream consumers and diagnostics.
func (r *PostgresRepository) ListUnprocessed(ctx context.Context, limit int) ([]*models.Event, error) {
	query :=
		`SELECT id, event_type, payload, task_id, processed_at, created_at FROM events
		 WHERE processed_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		var item models.Event
		var payload []byte
		var taskID sql.NullString
		if err := rows.Scan(&item.ID, &item.EventType, &payload, &taskID,
			&item.ProcessedAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &item.Payload); err != nil {
			return nil, fmt.Errorf("payload unmarshal error: %w", err)
		}
		if taskID.Valid {
			item.TaskID = &taskID.String
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
