// Package quotas implements the metered-resource ledger: per-user storage
// bytes and entity counts with checked, atomic adjustments.
package quotas

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
	qr "github.com/dmitrijs2005/wayfare/internal/server/repositories/quotas"
)

type Service struct {
	repo qr.Repository
}

func NewService(repo qr.Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's ledger row.
func (s *Service) Get(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	return s.repo.Get(ctx, userID)
}

// CheckStorageQuota is a pure read: it fails with common.ErrQuotaExceeded
// if incomingBytes would pass the user's storage limit. Callers that go on
// to write bytes must use Reserve instead, which closes the check/increment
// race.
func (s *Service) CheckStorageQuota(ctx context.Context, userID string, incomingBytes int64) error {
	ledger, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	if ledger.StorageBytesFree() < incomingBytes {
		return fmt.Errorf("%w: %d bytes requested, %d free",
			common.ErrQuotaExceeded, incomingBytes, ledger.StorageBytesFree())
	}
	return nil
}

// Reserve atomically claims incomingBytes against the limit. The claim must
// later be finished with CommitReservation or ReleaseReservation.
func (s *Service) Reserve(ctx context.Context, userID string, incomingBytes int64) error {
	if incomingBytes < 0 {
		return fmt.Errorf("%w: negative byte count", common.ErrValidation)
	}
	return s.repo.Reserve(ctx, userID, incomingBytes)
}

// CommitReservation finishes a reservation, charging chargedBytes as used.
// Called only after the MediaRecord is persisted, so a crash in between
// undercounts rather than overcounts.
func (s *Service) CommitReservation(ctx context.Context, userID string, reservedBytes, chargedBytes int64) error {
	return s.repo.CommitReservation(ctx, userID, reservedBytes, chargedBytes)
}

// ReleaseReservation returns reservedBytes unused.
func (s *Service) ReleaseReservation(ctx context.Context, userID string, reservedBytes int64) error {
	return s.repo.ReleaseReservation(ctx, userID, reservedBytes)
}

// IncrementStorageUsage charges bytes directly, outside the reservation
// flow. Only backfill-style callers should need it.
func (s *Service) IncrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	return s.repo.IncrementStorageUsage(ctx, userID, bytes)
}

// DecrementStorageUsage releases bytes after their files are deleted.
// Floors at zero for any input.
func (s *Service) DecrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("%w: negative byte count", common.ErrValidation)
	}
	return s.repo.DecrementStorageUsage(ctx, userID, bytes)
}

// CheckEntityCreationQuota fails with common.ErrQuotaExceeded when the user
// cannot create another trip entity.
func (s *Service) CheckEntityCreationQuota(ctx context.Context, userID string) error {
	ledger, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	if ledger.EntityCount >= ledger.EntityLimit {
		return fmt.Errorf("%w: entity limit %d reached", common.ErrQuotaExceeded, ledger.EntityLimit)
	}
	return nil
}

func (s *Service) IncrementEntityCount(ctx context.Context, userID string) error {
	return s.repo.IncrementEntityCount(ctx, userID)
}

func (s *Service) DecrementEntityCount(ctx context.Context, userID string) error {
	return s.repo.DecrementEntityCount(ctx, userID)
}
