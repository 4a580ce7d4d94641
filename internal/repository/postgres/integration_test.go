//go:build integration

package postgres

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/migrations"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// startPostgres runs a throwaway Postgres container with the schema applied.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "rating",
				"POSTGRES_PASSWORD": "rating",
				"POSTGRES_DB":       "store_rating",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := database.DefaultPostgresConfig()
	cfg.Host = host
	cfg.Port = portNum
	cfg.User = "rating"
	cfg.Password = "rating"
	cfg.DBName = "store_rating"
	cfg.SSLMode = "disable"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool, err := database.NewPostgresPool(ctx, &cfg, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool, migrations.FS, logger))
	return pool
}

func seedUser(t *testing.T, repo *UserRepository, role domain.Role) domain.User {
	t.Helper()
	id := uuid.NewString()
	u := domain.User{
		ID:           id,
		Name:         "Integration User " + id[:8],
		Email:        id[:8] + "@example.com",
		PasswordHash: "$2a$10$hash",
		Address:      "1 Test Street",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), &u))
	return u
}

func seedStore(t *testing.T, repo *StoreRepository, ownerID string) domain.Store {
	t.Helper()
	s := domain.Store{
		ID:        uuid.NewString(),
		Name:      "Integration Store",
		Address:   "2 Test Street",
		OwnerID:   ownerID,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), &s))
	return s
}

func TestIntegration_RatingLifecycle(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)
	helpful := NewHelpfulRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)
	alice := seedUser(t, users, domain.RoleCustomer)
	bob := seedUser(t, users, domain.RoleCustomer)

	res, err := ratings.Submit(ctx, domain.RatingWrite{
		StoreID: store.ID, UserID: alice.ID, Value: 5, Comment: "great", Sentiment: domain.SentimentPositive,
		Photos: []string{"https://cdn.example.com/1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Aggregate.AverageRating)

	_, err = ratings.Submit(ctx, domain.RatingWrite{StoreID: store.ID, UserID: alice.ID, Value: 1})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	up, err := ratings.Upsert(ctx, domain.RatingWrite{StoreID: store.ID, UserID: bob.ID, Value: 4, Sentiment: domain.SentimentNeutral})
	require.NoError(t, err)
	assert.True(t, up.Created)
	assert.Equal(t, domain.StoreAggregate{StoreID: store.ID, AverageRating: 4.5, ReviewCount: 2}, up.Aggregate)

	up, err = ratings.Upsert(ctx, domain.RatingWrite{StoreID: store.ID, UserID: bob.ID, Value: 2, Sentiment: domain.SentimentNeutral})
	require.NoError(t, err)
	assert.False(t, up.Created)
	assert.Equal(t, 3.5, up.Aggregate.AverageRating)

	marked, err := helpful.Mark(ctx, res.Rating.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, marked.HelpfulCount)
	_, err = helpful.Mark(ctx, res.Rating.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	got, err := ratings.GetByID(ctx, res.Rating.ID)
	require.NoError(t, err)
	assert.Len(t, got.Photos, 1)
	assert.Equal(t, 1, got.HelpfulCount)

	stored, err := stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, stored.AverageRating)
	assert.Equal(t, 2, stored.ReviewCount)

	del, err := users.Delete(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, del.Aggregates, 1)
	assert.Equal(t, domain.StoreAggregate{StoreID: store.ID, AverageRating: 2.0, ReviewCount: 1}, del.Aggregates[0])

	del, err = users.Delete(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{store.ID}, del.DeletedStoreIDs)
	_, err = stores.GetByID(ctx, store.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIntegration_ConcurrentUpsertsKeepAggregateConsistent(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	ratings := NewRatingRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, NewStoreRepository(pool), owner.ID)

	const n = 12
	raters := make([]domain.User, n)
	for i := range raters {
		raters[i] = seedUser(t, users, domain.RoleCustomer)
	}

	var wg sync.WaitGroup
	values := make([]int, n)
	for i := range raters {
		values[i] = i % 6
		wg.Add(1)
		go func(u domain.User, v int) {
			defer wg.Done()
			_, err := ratings.Upsert(ctx, domain.RatingWrite{StoreID: store.ID, UserID: u.ID, Value: v, Sentiment: domain.SentimentNeutral})
			assert.NoError(t, err)
		}(raters[i], values[i])
	}
	wg.Wait()

	agg, err := ratings.RecomputeAggregate(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AggregateOf(store.ID, values), agg)

	stored, err := NewStoreRepository(pool).GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, agg.AverageRating, stored.AverageRating)
	assert.Equal(t, n, stored.ReviewCount)
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestIntegration_AggregateRoundsHalfUp(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)

	var last domain.StoreAggregate
	for _, v := range []int{5, 4, 5} {
		u := seedUser(t, users, domain.RoleCustomer)
		res, err := ratings.Submit(ctx, domain.RatingWrite{StoreID: store.ID, UserID: u.ID, Value: v, Sentiment: domain.SentimentNeutral})
		require.NoError(t, err)
		assert.True(t, res.Rating.Verified)
		last = res.Aggregate
	}

	assert.Equal(t, domain.StoreAggregate{StoreID: store.ID, AverageRating: 4.7, ReviewCount: 3}, last)
	stored, err := stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.7, stored.AverageRating)
	assert.Equal(t, 3, stored.ReviewCount)
}

func TestIntegration_RepeatedUpsertIsIdempotent(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)
	u := seedUser(t, users, domain.RoleCustomer)
	w := domain.RatingWrite{StoreID: store.ID, UserID: u.ID, Value: 4, Comment: "ok", Sentiment: domain.SentimentNeutral}

	first, err := ratings.Upsert(ctx, w)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := ratings.Upsert(ctx, w)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Rating.ID, second.Rating.ID)
	assert.Equal(t, first.Aggregate, second.Aggregate)
	assert.Equal(t, 1, second.Aggregate.ReviewCount)

	assert.Equal(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM ratings WHERE store_id = $1 AND user_id = $2`, store.ID, u.ID))
	got, err := ratings.GetByID(ctx, first.Rating.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Value)
	assert.Equal(t, "ok", got.Comment)

	stored, err := stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReviewCount)
	assert.Equal(t, 4.0, stored.AverageRating)
}

func TestIntegration_DeleteRemovesPhotosAndMarks(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)
	helpful := NewHelpfulRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)
	alice := seedUser(t, users, domain.RoleCustomer)
	bob := seedUser(t, users, domain.RoleCustomer)

	doomed, err := ratings.Submit(ctx, domain.RatingWrite{
		StoreID: store.ID, UserID: alice.ID, Value: 1, Sentiment: domain.SentimentNegative,
		Photos: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
	})
	require.NoError(t, err)
	_, err = ratings.Submit(ctx, domain.RatingWrite{StoreID: store.ID, UserID: bob.ID, Value: 4, Sentiment: domain.SentimentNeutral})
	require.NoError(t, err)
	_, err = helpful.Mark(ctx, doomed.Rating.ID, bob.ID)
	require.NoError(t, err)

	require.Equal(t, 2, countRows(t, pool, `SELECT COUNT(*) FROM rating_photos WHERE rating_id = $1`, doomed.Rating.ID))
	require.Equal(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM helpful_marks WHERE rating_id = $1`, doomed.Rating.ID))

	del, err := ratings.Delete(ctx, doomed.Rating.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreAggregate{StoreID: store.ID, AverageRating: 4.0, ReviewCount: 1}, del.Aggregate)

	assert.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM ratings WHERE id = $1`, doomed.Rating.ID))
	assert.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM rating_photos WHERE rating_id = $1`, doomed.Rating.ID))
	assert.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM helpful_marks WHERE rating_id = $1`, doomed.Rating.ID))

	stored, err := stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.AverageRating)
	assert.Equal(t, 1, stored.ReviewCount)
}

func TestIntegration_PhotoFailureLeavesNoRating(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)
	u := seedUser(t, users, domain.RoleCustomer)

	// Postgres rejects NUL bytes in text, so the second photo insert fails
	// after the rating row and the first photo were written.
	_, err := ratings.Submit(ctx, domain.RatingWrite{
		StoreID: store.ID, UserID: u.ID, Value: 5, Sentiment: domain.SentimentPositive,
		Photos: []string{"https://cdn.example.com/ok.jpg", "https://cdn.example.com/bad\x00.jpg"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert rating photo")

	assert.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM ratings WHERE store_id = $1`, store.ID))
	assert.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM rating_photos`))

	stored, err := stores.GetByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.ReviewCount)

	_, err = ratings.Submit(ctx, domain.RatingWrite{StoreID: store.ID, UserID: u.ID, Value: 5, Sentiment: domain.SentimentPositive})
	assert.NoError(t, err, "the rolled back submit must not block a retry")
}

func TestIntegration_DeletedAuthorCannotRate(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	stores := NewStoreRepository(pool)
	ratings := NewRatingRepository(pool)

	owner := seedUser(t, users, domain.RoleStoreOwner)
	store := seedStore(t, stores, owner.ID)
	gone := seedUser(t, users, domain.RoleCustomer)
	_, err := users.Delete(ctx, gone.ID)
	require.NoError(t, err)

	w := domain.RatingWrite{StoreID: store.ID, UserID: gone.ID, Value: 3, Sentiment: domain.SentimentNeutral}
	_, err = ratings.Submit(ctx, w)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = ratings.Upsert(ctx, w)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, _, err = ratings.ListByStore(ctx, uuid.NewString(), 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
