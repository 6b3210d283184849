// Package entities is the ownership-lookup collaborator: given an entity id
// it answers which user owns it. The pipeline needs nothing else from the
// wider trip model.
package entities

import (
	"context"

	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.TripEntity, error)
}
