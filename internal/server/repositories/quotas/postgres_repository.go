package quotas

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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	query := `SELECT user_id, storage_bytes_used, storage_bytes_reserved, storage_bytes_limit,
		entity_count, entity_limit, period_credits_used, period_credits_limit
		FROM quota_ledgers WHERE user_id=$1`

	ledger := &models.QuotaLedger{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&ledger.UserID, &ledger.StorageBytesUsed, &ledger.StorageBytesReserved,
		&ledger.StorageBytesLimit, &ledger.EntityCount, &ledger.EntityLimit,
		&ledger.PeriodCreditsUsed, &ledger.PeriodCreditsLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select quota ledger: %w", err)
	}

	return ledger, nil
}

func (r *PostgresRepository) Reserve(ctx context.Context, userID string, bytes int64) error {
	query := `UPDATE quota_ledgers
		SET storage_bytes_reserved = storage_bytes_reserved + $2
		WHERE user_id=$1
		AND storage_bytes_used + storage_bytes_reserved + $2 <= storage_bytes_limit`

	n, err := r.exec(ctx, query, userID, bytes)
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is missing or the limit would be passed.
		if _, err := r.Get(ctx, userID); err != nil {
			return err
		}
		return common.ErrQuotaExceeded
	}
	return nil
}

func (r *PostgresRepository) CommitReservation(ctx context.Context, userID string, reservedBytes, chargedBytes int64) error {
	query := `UPDATE quota_ledgers
		SET storage_bytes_used = storage_bytes_used + $3,
			storage_bytes_reserved = GREATEST(0, storage_bytes_reserved - $2)
		WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID, reservedBytes, chargedBytes)
}

func (r *PostgresRepository) ReleaseReservation(ctx context.Context, userID string, bytes int64) error {
	query := `UPDATE quota_ledgers
		SET storage_bytes_reserved = GREATEST(0, storage_bytes_reserved - $2)
		WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID, bytes)
}

func (r *PostgresRepository) IncrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	query := `UPDATE quota_ledgers SET storage_bytes_used = storage_bytes_used + $2 WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID, bytes)
}

func (r *PostgresRepository) DecrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	query := `UPDATE quota_ledgers
		SET storage_bytes_used = GREATEST(0, storage_bytes_used - $2)
		WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID, bytes)
}

func (r *PostgresRepository) IncrementEntityCount(ctx context.Context, userID string) error {
	query := `UPDATE quota_ledgers SET entity_count = entity_count + 1 WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID)
}

func (r *PostgresRepository) DecrementEntityCount(ctx context.Context, userID string) error {
	query := `UPDATE quota_ledgers SET entity_count = GREATEST(0, entity_count - 1) WHERE user_id=$1`
	return r.mustUpdate(ctx, query, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) mustUpdate(ctx context.Context, query string, args ...any) error {
	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
