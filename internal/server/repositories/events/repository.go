// Package events provides append-only persistence for domain events.
// Events are recorded by the services and consumed elsewhere; this server
// never reads them back except for diagnostics.
package events

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)

	// ListUnprocessed is the pickup point for a downstream consumer
	// (worker or export job) that marks events processed after handling
	// them. The server itself only writes events.
	ListUnprocessed(ctx context.Context, limit int) ([]*models.Event, error)
}
