// Package media persists MediaRecords. The ingestion pipeline depends only
// on the Repository interface, never on the Postgres implementation.
package media

import (
	"context"

	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, record *models.MediaRecord) error
	GetByID(ctx context.Context, id string) (*models.MediaRecord, error)
	ListByEntity(ctx context.Context, entityID string) ([]*models.MediaRecord, error)
	Delete(ctx context.Context, id string) error
}
