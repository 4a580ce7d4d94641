package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

func TestStoreRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	s := sampleStore()

	mock.ExpectExec(`INSERT INTO stores .+ VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, 0, 0, \$9, \$10\)`).
		WithArgs(s.ID, s.Name, s.Description, s.Address, s.Email, s.Phone, s.OwnerID, s.IsActive, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_Create_UnknownOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	s := sampleStore()

	mock.ExpectExec(`INSERT INTO stores`).
		WithArgs(s.ID, s.Name, s.Description, s.Address, s.Email, s.Phone, s.OwnerID, s.IsActive, s.CreatedAt, s.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "stores_owner_id_fkey"})

	err := repo.Create(context.Background(), &s)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStoreRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	s := sampleStore()

	mock.ExpectQuery(`FROM stores WHERE id = \$1`).
		WithArgs(storeID).
		WillReturnRows(addStore(storeRows(), s))

	got, err := repo.GetByID(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, s, *got)
}

func TestStoreRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)

	mock.ExpectQuery(`FROM stores WHERE id = \$1`).
		WithArgs(storeID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), storeID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoreRepository_List_OwnerActiveSearch(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	s := sampleStore()

	filter := domain.StoreFilter{OwnerID: ownerID, ActiveOnly: true, Search: " sweets ", SortBy: "rating", Desc: true}

	mock.ExpectQuery(q(`WHERE owner_id = $1 AND is_active = TRUE AND (name ILIKE $2 OR address ILIKE $2) ORDER BY average_rating DESC, id ASC LIMIT $3 OFFSET $4`)).
		WithArgs(ownerID, "%sweets%", 20, 0).
		WillReturnRows(addStore(storeRows("total_count"), s, 1))

	stores, total, err := repo.List(context.Background(), filter, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, stores, 1)
	assert.Equal(t, 4.7, stores[0].AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_List_DefaultOrder(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)

	mock.ExpectQuery(q(`FROM stores ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`)).
		WithArgs(20, 0).
		WillReturnRows(storeRows("total_count"))

	stores, _, err := repo.List(context.Background(), domain.StoreFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, stores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_ListAll_StopsOnCallbackError(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	first := sampleStore()
	second := sampleStore()
	second.ID = "s-2"

	mock.ExpectQuery(`FROM stores ORDER BY id`).
		WillReturnRows(addStore(addStore(storeRows(), first), second))

	stop := errors.New("stop")
	var seen []string
	err := repo.ListAll(context.Background(), func(s domain.Store) error {
		seen = append(seen, s.ID)
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{storeID}, seen)
}

func TestStoreRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)
	s := sampleStore()
	s.Name = "Sharma Sweets & Snacks"

	mock.ExpectExec(`UPDATE stores\s+SET name = \$1`).
		WithArgs(s.Name, s.Description, s.Address, s.Email, s.Phone, s.IsActive, pgxmock.AnyArg(), s.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), &s))
	assert.True(t, s.UpdatedAt.After(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewStoreRepository(mock)

	mock.ExpectExec(q(`DELETE FROM stores WHERE id = $1`)).
		WithArgs(storeID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), storeID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
