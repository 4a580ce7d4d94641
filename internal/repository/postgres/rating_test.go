package postgres

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

func newRatingRepo(t *testing.T) (*RatingRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	repo := NewRatingRepository(mock)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func sampleWrite() domain.RatingWrite {
	return domain.RatingWrite{
		StoreID:   storeID,
		UserID:    customerID,
		Value:     5,
		Comment:   "great jalebi",
		Sentiment: domain.SentimentPositive,
	}
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestRatingRepository_Submit_Success(t *testing.T) {
	repo, mock := newRatingRepo(t)
	w := sampleWrite()
	w.Photos = []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(ratingExistsSQL)).
		WithArgs(storeID, customerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(q(insertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(insertPhotoSQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "https://cdn.example.com/a.jpg", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(insertPhotoSQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "https://cdn.example.com/b.jpg", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectRecompute(mock, storeID, 14, 3, 4.7)
	mock.ExpectCommit()

	res, err := repo.Submit(context.Background(), w)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Rating.ID)
	assert.Equal(t, 5, res.Rating.Value)
	assert.True(t, res.Rating.Verified)
	assert.Len(t, res.Rating.Photos, 2)
	assert.Equal(t, ownerID, res.StoreOwnerID)
	assert.Equal(t, domain.StoreAggregate{StoreID: storeID, AverageRating: 4.7, ReviewCount: 3}, res.Aggregate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Submit_AlreadyRated(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(ratingExistsSQL)).
		WithArgs(storeID, customerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	res, err := repo.Submit(context.Background(), sampleWrite())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Submit_RacingInsertIsConflict(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(ratingExistsSQL)).
		WithArgs(storeID, customerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(q(insertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: ratingUniqueConstraint})
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), sampleWrite())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Submit_StoreMissing(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	mock.ExpectQuery(q(lockStoreSQL)).WithArgs(storeID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), sampleWrite())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Submit_AuthorDeleted(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(ratingExistsSQL)).
		WithArgs(storeID, customerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(q(insertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: ratingUserForeignKey})
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), sampleWrite())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Submit_PhotoFailureRollsBack(t *testing.T) {
	repo, mock := newRatingRepo(t)
	w := sampleWrite()
	w.Photos = []string{"https://cdn.example.com/a.jpg"}

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(ratingExistsSQL)).
		WithArgs(storeID, customerID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(q(insertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q(insertPhotoSQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "https://cdn.example.com/a.jpg", pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert rating photo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Upsert
// ---------------------------------------------------------------------------

func upsertReturning(id string, helpful int, inserted bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "helpful_count", "verified", "created_at", "updated_at", "inserted"}).
		AddRow(id, helpful, true, now, now, inserted)
}

func TestRatingRepository_Upsert_Creates(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(upsertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnRows(upsertReturning(ratingID, 0, true))
	expectRecompute(mock, storeID, 5, 1, 5.0)
	mock.ExpectCommit()

	res, err := repo.Upsert(context.Background(), sampleWrite())
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Rating.Verified)
	assert.Equal(t, ratingID, res.Rating.ID)
	assert.Empty(t, res.Rating.Photos)
	assert.Equal(t, 1, res.Aggregate.ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Upsert_AuthorDeleted(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(upsertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: ratingUserForeignKey})
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), sampleWrite())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	assert.Contains(t, appErr.Message, customerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Upsert_UpdatesKeepsPhotos(t *testing.T) {
	repo, mock := newRatingRepo(t)
	w := sampleWrite()
	w.Value = 3

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(upsertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 3, "great jalebi", domain.SentimentPositive, now).
		WillReturnRows(upsertReturning(ratingID, 2, false))
	mock.ExpectQuery(q(loadPhotosSQL)).
		WithArgs([]string{ratingID}).
		WillReturnRows(photoRows().AddRow(ratingID, "p-1", "https://cdn.example.com/old.jpg"))
	expectRecompute(mock, storeID, 3, 1, 3.0)
	mock.ExpectCommit()

	res, err := repo.Upsert(context.Background(), w)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 2, res.Rating.HelpfulCount)
	require.Len(t, res.Rating.Photos, 1)
	assert.Equal(t, "https://cdn.example.com/old.jpg", res.Rating.Photos[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Upsert_ReplacesPhotos(t *testing.T) {
	repo, mock := newRatingRepo(t)
	w := sampleWrite()
	w.Photos = []string{}

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(upsertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnRows(upsertReturning(ratingID, 0, false))
	mock.ExpectExec(q(deletePhotosSQL)).
		WithArgs(ratingID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	expectRecompute(mock, storeID, 5, 1, 5.0)
	mock.ExpectCommit()

	res, err := repo.Upsert(context.Background(), w)
	require.NoError(t, err)
	assert.Empty(t, res.Rating.Photos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Upsert_RecomputeFailureRollsBack(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(upsertRatingSQL)).
		WithArgs(pgxmock.AnyArg(), storeID, customerID, 5, "great jalebi", domain.SentimentPositive, now).
		WillReturnRows(upsertReturning(ratingID, 0, true))
	mock.ExpectQuery(q(sumRatingsSQL)).WithArgs(storeID).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Upsert(context.Background(), sampleWrite())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum ratings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestRatingRepository_Update_Success(t *testing.T) {
	repo, mock := newRatingRepo(t)
	rt := sampleRating()
	rt.Value = 2
	rt.Comment = "mediocre"
	rt.Sentiment = domain.SentimentNegative

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(updateRatingSQL)).
		WithArgs(2, "mediocre", domain.SentimentNegative, now, ratingID).
		WillReturnRows(pgxmock.NewRows([]string{"helpful_count", "verified", "created_at"}).AddRow(1, false, now))
	mock.ExpectQuery(q(loadPhotosSQL)).
		WithArgs([]string{ratingID}).
		WillReturnRows(photoRows())
	expectRecompute(mock, storeID, 2, 1, 2.0)
	mock.ExpectCommit()

	res, err := repo.Update(context.Background(), &rt, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rating.HelpfulCount)
	assert.Equal(t, 2.0, res.Aggregate.AverageRating)
	assert.NotNil(t, res.Rating.Photos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Update_NotFound(t *testing.T) {
	repo, mock := newRatingRepo(t)
	rt := sampleRating()

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectQuery(q(updateRatingSQL)).
		WithArgs(5, "great jalebi", domain.SentimentPositive, now, ratingID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), &rt, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Delete_Success(t *testing.T) {
	repo, mock := newRatingRepo(t)
	rt := sampleRating()

	mock.ExpectBeginTx(database.ReadCommitted)
	mock.ExpectQuery(q(ratingStoreSQL)).
		WithArgs(ratingID).
		WillReturnRows(pgxmock.NewRows([]string{"store_id"}).AddRow(storeID))
	expectLockStore(mock, storeID, ownerID)
	mock.ExpectExec(q(deletePhotosSQL)).WithArgs(ratingID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(q(deleteHelpfulMarksSQL)).WithArgs(ratingID).WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectQuery(q(deleteRatingSQL)).
		WithArgs(ratingID).
		WillReturnRows(addRating(ratingRows(), rt))
	expectRecompute(mock, storeID, 0, 0, 0)
	mock.ExpectCommit()

	res, err := repo.Delete(context.Background(), ratingID)
	require.NoError(t, err)
	assert.Equal(t, customerID, res.Rating.UserID)
	assert.Equal(t, domain.StoreAggregate{StoreID: storeID}, res.Aggregate)
	assert.Equal(t, ownerID, res.StoreOwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	mock.ExpectQuery(q(ratingStoreSQL)).WithArgs(ratingID).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), ratingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestRatingRepository_GetByID(t *testing.T) {
	repo, mock := newRatingRepo(t)
	rt := sampleRating()

	mock.ExpectQuery(`FROM ratings r\s+JOIN users u .+ WHERE r.id = \$1`).
		WithArgs(ratingID).
		WillReturnRows(addRating(ratingRows("user_name", "store_name"), rt, "Priya", "Sharma Sweets"))
	mock.ExpectQuery(q(loadPhotosSQL)).
		WithArgs([]string{ratingID}).
		WillReturnRows(photoRows().AddRow(ratingID, "p-1", "https://cdn.example.com/a.jpg"))

	got, err := repo.GetByID(context.Background(), ratingID)
	require.NoError(t, err)
	assert.Equal(t, "Priya", got.UserName)
	assert.Equal(t, "Sharma Sweets", got.StoreName)
	assert.Len(t, got.Photos, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`FROM ratings r`).WithArgs(ratingID).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), ratingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRatingRepository_ListByStore(t *testing.T) {
	repo, mock := newRatingRepo(t)
	first := sampleRating()
	second := sampleRating()
	second.ID = "r-2"
	second.UserID = "u-2"

	mock.ExpectQuery(`FROM ratings r\s+JOIN users u ON u.id = r.user_id\s+WHERE r.store_id = \$1`).
		WithArgs(storeID, 10, 10).
		WillReturnRows(
			ratingRows("user_name", "total_count").
				AddRow(first.ID, first.StoreID, first.UserID, first.Value, first.Comment, first.Sentiment,
					first.HelpfulCount, first.Verified, first.CreatedAt, first.UpdatedAt, "Priya", 12).
				AddRow(second.ID, second.StoreID, second.UserID, second.Value, second.Comment, second.Sentiment,
					second.HelpfulCount, second.Verified, second.CreatedAt, second.UpdatedAt, "Arjun", 12),
		)
	mock.ExpectQuery(q(loadPhotosSQL)).
		WithArgs([]string{first.ID, "r-2"}).
		WillReturnRows(photoRows().AddRow("r-2", "p-9", "https://cdn.example.com/z.jpg"))

	ratings, total, err := repo.ListByStore(context.Background(), storeID, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, ratings, 2)
	assert.Equal(t, "Priya", ratings[0].UserName)
	assert.Empty(t, ratings[0].Photos)
	assert.Len(t, ratings[1].Photos, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_ListByUser_Empty(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`FROM ratings r\s+JOIN stores s ON s.id = r.store_id\s+WHERE r.user_id = \$1`).
		WithArgs(customerID, 20, 0).
		WillReturnRows(ratingRows("store_name", "total_count"))

	ratings, total, err := repo.ListByUser(context.Background(), customerID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, ratings)
	assert.Empty(t, ratings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_ListByStore_StoreMissing(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`FROM ratings r\s+JOIN users u ON u.id = r.user_id\s+WHERE r.store_id = \$1`).
		WithArgs(storeID, 20, 0).
		WillReturnRows(ratingRows("user_name", "total_count"))
	mock.ExpectQuery(q(storeRatingCountSQL)).
		WithArgs(storeID).
		WillReturnError(pgx.ErrNoRows)

	_, _, err := repo.ListByStore(context.Background(), storeID, 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_ListByStore_PastLastPageKeepsTotal(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`FROM ratings r\s+JOIN users u ON u.id = r.user_id\s+WHERE r.store_id = \$1`).
		WithArgs(storeID, 20, 80).
		WillReturnRows(ratingRows("user_name", "total_count"))
	mock.ExpectQuery(q(storeRatingCountSQL)).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	ratings, total, err := repo.ListByStore(context.Background(), storeID, 5, 20)
	require.NoError(t, err)
	assert.Empty(t, ratings)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_ListByUser_PastLastPageKeepsTotal(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`FROM ratings r\s+JOIN stores s ON s.id = r.store_id\s+WHERE r.user_id = \$1`).
		WithArgs(customerID, 10, 30).
		WillReturnRows(ratingRows("store_name", "total_count"))
	mock.ExpectQuery(q(userRatingCountSQL)).
		WithArgs(customerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	_, total, err := repo.ListByUser(context.Background(), customerID, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Stats_StoreMissing(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`SELECT value, sentiment, COUNT\(\*\)\s+FROM ratings`).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"value", "sentiment", "count"}))
	mock.ExpectQuery(q(storeExistsSQL)).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Stats(context.Background(), storeID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Stats_NoRatingsYet(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`SELECT value, sentiment, COUNT\(\*\)\s+FROM ratings`).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"value", "sentiment", "count"}))
	mock.ExpectQuery(q(storeExistsSQL)).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	stats, err := repo.Stats(context.Background(), storeID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRatings)
	assert.Zero(t, stats.AverageRating)
	assert.Len(t, stats.Distribution, 6)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Stats(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(`SELECT value, sentiment, COUNT\(\*\)\s+FROM ratings`).
		WithArgs(storeID).
		WillReturnRows(pgxmock.NewRows([]string{"value", "sentiment", "count"}).
			AddRow(5, domain.SentimentPositive, 2).
			AddRow(4, domain.SentimentNeutral, 1).
			AddRow(1, domain.SentimentNegative, 1))

	stats, err := repo.Stats(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRatings)
	assert.Equal(t, 3.8, stats.AverageRating)
	assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 0, 3: 0, 4: 1, 5: 2}, stats.Distribution)
	assert.Equal(t, domain.SentimentSplit{Positive: 2, Neutral: 1, Negative: 1}, stats.Sentiment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Aggregate recompute
// ---------------------------------------------------------------------------

func TestRatingRepository_RecomputeAggregate(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, storeID, ownerID)
	expectRecompute(mock, storeID, 14, 3, 4.7)
	mock.ExpectCommit()

	agg, err := repo.RecomputeAggregate(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateOf(storeID, []int{5, 4, 5}), agg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_RecomputeAll(t *testing.T) {
	repo, mock := newRatingRepo(t)

	mock.ExpectQuery(q(`SELECT id FROM stores ORDER BY id`)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("s-1").AddRow("s-2"))
	mock.ExpectBeginTx(database.ReadCommitted)
	expectLockStore(mock, "s-1", ownerID)
	expectRecompute(mock, "s-1", 9, 2, 4.5)
	mock.ExpectCommit()
	mock.ExpectBeginTx(database.ReadCommitted)
	mock.ExpectQuery(q(lockStoreSQL)).WithArgs("s-2").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	aggs, err := repo.RecomputeAll(context.Background())
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 4.5, aggs[0].AverageRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
