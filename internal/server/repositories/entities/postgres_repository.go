package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/dbx"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.TripEntity, error) {
	query := `SELECT id, user_id, kind, title, created_at FROM trip_entities WHERE id=$1`

	entity := &models.TripEntity{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entity.ID, &entity.UserID, &entity.Kind, &entity.Title, &entity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select trip entity: %w", err)
	}

	return entity, nil
}
