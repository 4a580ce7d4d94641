package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, filter domain.UserFilter, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) (*domain.UserDeletion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserDeletion), args.Error(1)
}

// --- Mock Store Repository ---

type mockStoreRepository struct {
	mock.Mock
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) List(ctx context.Context, filter domain.StoreFilter, page, perPage int) ([]domain.Store, int, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Store), args.Int(1), args.Error(2)
}

func (m *mockStoreRepository) ListAll(ctx context.Context, fn func(domain.Store) error) error {
	args := m.Called(ctx, fn)
	if stores, ok := args.Get(0).([]domain.Store); ok {
		for _, s := range stores {
			if err := fn(s); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *mockStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Rating Repository ---

type mockRatingRepository struct {
	mock.Mock
}

func (m *mockRatingRepository) Submit(ctx context.Context, w domain.RatingWrite) (*domain.WriteResult, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WriteResult), args.Error(1)
}

func (m *mockRatingRepository) Upsert(ctx context.Context, w domain.RatingWrite) (*domain.UpsertResult, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UpsertResult), args.Error(1)
}

func (m *mockRatingRepository) Update(ctx context.Context, rating *domain.Rating, photos []string) (*domain.WriteResult, error) {
	args := m.Called(ctx, rating, photos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WriteResult), args.Error(1)
}

func (m *mockRatingRepository) Delete(ctx context.Context, id string) (*domain.WriteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WriteResult), args.Error(1)
}

func (m *mockRatingRepository) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *mockRatingRepository) ListByStore(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	args := m.Called(ctx, storeID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Rating), args.Int(1), args.Error(2)
}

func (m *mockRatingRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Rating), args.Int(1), args.Error(2)
}

func (m *mockRatingRepository) Stats(ctx context.Context, storeID string) (*domain.RatingStats, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingStats), args.Error(1)
}

func (m *mockRatingRepository) RecomputeAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(domain.StoreAggregate), args.Error(1)
}

func (m *mockRatingRepository) RecomputeAll(ctx context.Context) ([]domain.StoreAggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreAggregate), args.Error(1)
}

// --- Mock Helpful Repository ---

type mockHelpfulRepository struct {
	mock.Mock
}

func (m *mockHelpfulRepository) Mark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error) {
	args := m.Called(ctx, ratingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpfulResult), args.Error(1)
}

func (m *mockHelpfulRepository) Unmark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error) {
	args := m.Called(ctx, ratingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpfulResult), args.Error(1)
}

// --- Mock Dashboard Repository ---

type mockDashboardRepository struct {
	mock.Mock
}

func (m *mockDashboardRepository) Admin(ctx context.Context) (*domain.AdminDashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminDashboard), args.Error(1)
}

func (m *mockDashboardRepository) Owner(ctx context.Context, ownerID string) (*domain.OwnerDashboard, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerDashboard), args.Error(1)
}

func (m *mockDashboardRepository) Customer(ctx context.Context, userID string) (*domain.CustomerDashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerDashboard), args.Error(1)
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRatingWritten(ctx context.Context, rating *domain.Rating, created bool, agg domain.StoreAggregate) error {
	args := m.Called(ctx, rating, created, agg)
	return args.Error(0)
}

func (m *mockPublisher) PublishRatingDeleted(ctx context.Context, rating *domain.Rating, agg domain.StoreAggregate) error {
	args := m.Called(ctx, rating, agg)
	return args.Error(0)
}

func (m *mockPublisher) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockPublisher) PublishStoreUpdated(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockPublisher) PublishStoreDeleted(ctx context.Context, storeID string) error {
	args := m.Called(ctx, storeID)
	return args.Error(0)
}

func (m *mockPublisher) PublishAggregateUpdated(ctx context.Context, agg domain.StoreAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

// --- Mock Cache ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	if len(args) > 2 {
		if fill, ok := args.Get(2).(func(any)); ok {
			fill(dst)
		}
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// --- Mock Search Engine ---

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Index(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockEngine) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockEngine) Search(ctx context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreSearchResult), args.Error(1)
}

func (m *mockEngine) BulkIndex(ctx context.Context, stores []domain.Store) error {
	// Copy: the caller reuses its batch slice.
	cp := append([]domain.Store(nil), stores...)
	args := m.Called(ctx, cp)
	return args.Error(0)
}

// --- Mock Storage ---

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockStorage) GetURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
