package media

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^INSERT INTO media_records`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.MediaRecord{
		ID:           "m1",
		EntityID:     "e1",
		OwnerID:      "u1",
		URL:          "http://host/media/m1/orig.jpg",
		StorageKey:   "media/m1/orig.jpg",
		OriginalName: "beach.jpg",
		SizeBytes:    1234,
		Variants:     map[string]string{"thumb": "media/m1/thumb.jpg"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT .+ FROM media_records WHERE id=`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByID_ScansVariants(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cols := []string{"id", "entity_id", "owner_id", "url", "storage_key", "original_name",
		"category", "comment", "size_bytes", "taken_at", "latitude", "longitude",
		"width", "height", "variants", "metadata", "created_at"}

	mock.ExpectQuery(`^SELECT .+ FROM media_records WHERE id=`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"m1", "e1", "u1", "http://x/orig.jpg", "media/m1/orig.jpg", "beach.jpg",
			"photo", "", int64(1234), nil, nil, nil, nil, nil,
			[]byte(`{"thumb":"media/m1/thumb.jpg"}`), []byte(`{}`), time.Now()))

	record, err := repo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "media/m1/thumb.jpg", record.Variants["thumb"])
	assert.Equal(t, int64(1234), record.SizeBytes)
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM media_records WHERE id=`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM media_records WHERE id=`).
		WillReturnError(errors.New("db down"))

	err := repo.Delete(context.Background(), "m1")
	assert.Error(t, err)
}
