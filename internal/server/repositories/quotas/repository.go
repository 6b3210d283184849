// Package quotas persists the per-user QuotaLedger row. All mutating
// operations are single SQL statements so concurrent requests never race an
// application-level read-modify-write.
package quotas

import (
	"context"

	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.QuotaLedger, error)

	// Reserve atomically claims bytes against the storage limit. Fails with
	// common.ErrQuotaExceeded when used+reserved+bytes would pass the limit.
	Reserve(ctx context.Context, userID string, bytes int64) error
	// CommitReservation finishes a reservation: reservedBytes leave the
	// reserved pool and chargedBytes (what actually landed on disk, original
	// plus variants) are added to used, in one statement.
	CommitReservation(ctx context.Context, userID string, reservedBytes, chargedBytes int64) error
	// ReleaseReservation gives reserved bytes back, flooring at zero.
	ReleaseReservation(ctx context.Context, userID string, bytes int64) error

	IncrementStorageUsage(ctx context.Context, userID string, bytes int64) error
	// DecrementStorageUsage lowers used bytes, flooring at zero.
	DecrementStorageUsage(ctx context.Context, userID string, bytes int64) error

	IncrementEntityCount(ctx context.Context, userID string) error
	DecrementEntityCount(ctx context.Context, userID string) error
}
