// Package tasks provides task persistence. State changes go through a
// conditional write keyed on the previously read state, so two racing
// transitions cannot both succeed.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/policy"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, scope policy.Scope) ([]*models.Task, error)

	// Update rewrites the mutable fields (title, description).
	Update(ctx context.Context, task *models.Task) error

	// UpdateState sets state and assignee atomically, but only if the row
	// still holds expected. A lost race yields common.ErrorConflict.
	UpdateState(ctx context.Context, id string, expected, next models.State, assigneeID *string) error

	Delete(ctx context.Context, id string) error
}
