package quotas

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func ledgerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "storage_bytes_used", "storage_bytes_reserved",
		"storage_bytes_limit", "entity_count", "entity_limit", "period_credits_used",
		"period_credits_limit"}).
		AddRow("u1", int64(100), int64(0), int64(1000), int64(2), int64(50), int64(0), int64(0))
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT .+ FROM quota_ledgers WHERE user_id=`).
		WithArgs("u1").
		WillReturnRows(ledgerRows())

	ledger, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), ledger.StorageBytesUsed)
	assert.Equal(t, int64(900), ledger.StorageBytesFree())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT .+ FROM quota_ledgers`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReserve_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE quota_ledgers\s+SET storage_bytes_reserved = storage_bytes_reserved \+`).
		WithArgs("u1", int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Reserve(context.Background(), "u1", 500))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_QuotaExceeded(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// Conditional update touches no row, follow-up read finds the ledger:
	// the limit is what blocked it.
	mock.ExpectExec(`^UPDATE quota_ledgers\s+SET storage_bytes_reserved`).
		WithArgs("u1", int64(5000)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT .+ FROM quota_ledgers`).
		WithArgs("u1").
		WillReturnRows(ledgerRows())

	err := repo.Reserve(context.Background(), "u1", 5000)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
}

func TestReserve_MissingLedger(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE quota_ledgers\s+SET storage_bytes_reserved`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT .+ FROM quota_ledgers`).
		WillReturnError(sql.ErrNoRows)

	err := repo.Reserve(context.Background(), "nobody", 10)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCommitReservation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE quota_ledgers\s+SET storage_bytes_used = storage_bytes_used \+ \$3,\s+storage_bytes_reserved = GREATEST`).
		WithArgs("u1", int64(500), int64(520)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CommitReservation(context.Background(), "u1", 500, 520))
}

func TestDecrementStorageUsage_Floored(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// The floor lives in SQL (GREATEST); assert the statement carries it.
	mock.ExpectExec(`^UPDATE quota_ledgers\s+SET storage_bytes_used = GREATEST\(0, storage_bytes_used - \$2\)`).
		WithArgs("u1", int64(999999)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementStorageUsage(context.Background(), "u1", 999999))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityCountOps(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE quota_ledgers SET entity_count = entity_count \+ 1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE quota_ledgers SET entity_count = GREATEST\(0, entity_count - 1\)`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementEntityCount(context.Background(), "u1"))
	require.NoError(t, repo.DecrementEntityCount(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
