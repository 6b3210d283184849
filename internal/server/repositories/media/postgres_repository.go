package media

import (
	"context"
	"database/sql"
	"encoding/json"
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

const recordColumns = `id, entity_id, owner_id, url, storage_key, original_name, category, comment,
	size_bytes, taken_at, latitude, longitude, width, height, variants, metadata, created_at`

func (r *PostgresRepository) Create(ctx context.Context, record *models.MediaRecord) error {

	variants, err := json.Marshal(record.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = []byte("null")
	}

	query :=
		`INSERT INTO media_records (id, entity_id, owner_id, url, storage_key, original_name, category, comment,
			size_bytes, taken_at, latitude, longitude, width, height, variants, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.EntityID, record.OwnerID, record.URL, record.StorageKey,
		record.OriginalName, record.Category, record.Comment, record.SizeBytes,
		record.TakenAt, record.Latitude, record.Longitude, record.Width, record.Height,
		variants, metadata)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media_records WHERE id=$1`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select media record: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) ListByEntity(ctx context.Context, entityID string) ([]*models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media_records WHERE entity_id=$1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to select media records: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_records WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.MediaRecord, error) {
	record := &models.MediaRecord{}
	var variants []byte

	err := row.Scan(&record.ID, &record.EntityID, &record.OwnerID, &record.URL,
		&record.StorageKey, &record.OriginalName, &record.Category, &record.Comment,
		&record.SizeBytes, &record.TakenAt, &record.Latitude, &record.Longitude,
		&record.Width, &record.Height, &variants, &record.Metadata, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &record.Variants); err != nil {
			return nil, fmt.Errorf("unmarshal variants: %w", err)
		}
	}

	return record, nil
}
