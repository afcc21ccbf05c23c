// Package users provides user persistence: lookups by id and by normalized
// email, and creation with the unique-email constraint surfaced as a
// domain error.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
