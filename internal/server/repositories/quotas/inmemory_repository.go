package quotas

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

// InMemoryRepository keeps ledgers in a map with the same atomicity
// guarantees the SQL implementation gets from single-statement updates.
// Used by tests and by single-process development setups.
type InMemoryRepository struct {
	mu      sync.Mutex
	ledgers map[string]*models.QuotaLedger
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{ledgers: make(map[string]*models.QuotaLedger)}
}

// Put seeds or replaces a ledger row.
func (r *InMemoryRepository) Put(ledger *models.QuotaLedger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ledger
	r.ledgers[ledger.UserID] = &copied
}

func (r *InMemoryRepository) Get(ctx context.Context, userID string) (*models.QuotaLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *ledger
	return &copied, nil
}

func (r *InMemoryRepository) Reserve(ctx context.Context, userID string, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}

	if ledger.StorageBytesUsed+ledger.StorageBytesReserved+bytes > ledger.StorageBytesLimit {
		return fmt.Errorf("%w: %d bytes requested", common.ErrQuotaExceeded, bytes)
	}

	ledger.StorageBytesReserved += bytes
	return nil
}

func (r *InMemoryRepository) CommitReservation(ctx context.Context, userID string, reservedBytes, chargedBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}

	ledger.StorageBytesUsed += chargedBytes
	ledger.StorageBytesReserved -= reservedBytes
	if ledger.StorageBytesReserved < 0 {
		ledger.StorageBytesReserved = 0
	}
	return nil
}

func (r *InMemoryRepository) ReleaseReservation(ctx context.Context, userID string, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}

	ledger.StorageBytesReserved -= bytes
	if ledger.StorageBytesReserved < 0 {
		ledger.StorageBytesReserved = 0
	}
	return nil
}

func (r *InMemoryRepository) IncrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}
	ledger.StorageBytesUsed += bytes
	return nil
}

func (r *InMemoryRepository) DecrementStorageUsage(ctx context.Context, userID string, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}

	ledger.StorageBytesUsed -= bytes
	if ledger.StorageBytesUsed < 0 {
		ledger.StorageBytesUsed = 0
	}
	return nil
}

func (r *InMemoryRepository) IncrementEntityCount(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}
	ledger.EntityCount++
	return nil
}

func (r *InMemoryRepository) DecrementEntityCount(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return common.ErrNotFound
	}
	if ledger.EntityCount > 0 {
		ledger.EntityCount--
	}
	return nil
}
