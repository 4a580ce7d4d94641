package repository

import (
	"context"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A case-insensitive email collision returns
	// an AlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email, ignoring case.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users matching filter and the total match count.
	List(ctx context.Context, filter domain.UserFilter, page, perPage int) ([]domain.User, int, error)

	// UpdateProfile writes the user's name and address.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// Delete removes the user together with their ratings and owned stores,
	// and recomputes the aggregate of every surviving store they had rated.
	Delete(ctx context.Context, id string) (*domain.UserDeletion, error)
}

// StoreRepository defines the interface for store persistence operations.
type StoreRepository interface {
	// Create inserts a new store.
	Create(ctx context.Context, store *domain.Store) error

	// GetByID retrieves a store by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Store, error)

	// List returns a page of stores matching filter and the total match count.
	List(ctx context.Context, filter domain.StoreFilter, page, perPage int) ([]domain.Store, int, error)

	// ListAll streams every store to fn in id order. Used for reindexing.
	ListAll(ctx context.Context, fn func(domain.Store) error) error

	// Update writes the store's descriptive fields. Aggregates are untouched.
	Update(ctx context.Context, store *domain.Store) error

	// Delete removes a store and, by cascade, its ratings.
	Delete(ctx context.Context, id string) error
}

// RatingRepository defines the interface for rating persistence. Every write
// runs in one transaction that locks the store row and ends with the store
// aggregate recomputed from scratch.
type RatingRepository interface {
	// Submit inserts a new rating and fails with a Conflict error when the
	// user has already rated the store.
	Submit(ctx context.Context, w domain.RatingWrite) (*domain.WriteResult, error)

	// Upsert creates the user's rating for the store or overwrites it.
	Upsert(ctx context.Context, w domain.RatingWrite) (*domain.UpsertResult, error)

	// Update writes value, comment and sentiment of an existing rating.
	// A non-nil photos slice replaces the rating's photos.
	Update(ctx context.Context, rating *domain.Rating, photos []string) (*domain.WriteResult, error)

	// Delete removes a rating with its photos and helpful marks.
	Delete(ctx context.Context, id string) (*domain.WriteResult, error)

	// GetByID retrieves a rating with its photos.
	GetByID(ctx context.Context, id string) (*domain.Rating, error)

	// ListByStore returns a page of a store's ratings with reviewer names.
	ListByStore(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error)

	// ListByUser returns a page of a user's ratings with store names.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error)

	// Stats returns the value distribution and sentiment split of a store.
	Stats(ctx context.Context, storeID string) (*domain.RatingStats, error)

	// RecomputeAggregate rebuilds one store's aggregate from its ratings.
	RecomputeAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error)

	// RecomputeAll rebuilds every store's aggregate.
	RecomputeAll(ctx context.Context) ([]domain.StoreAggregate, error)
}

// HelpfulRepository tracks which users found a rating helpful.
type HelpfulRepository interface {
	// Mark records userID's helpful mark. Marking twice is a no-op.
	Mark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error)

	// Unmark removes userID's helpful mark if present.
	Unmark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error)
}

// DashboardRepository runs the read-only dashboard aggregation queries.
type DashboardRepository interface {
	Admin(ctx context.Context) (*domain.AdminDashboard, error)
	Owner(ctx context.Context, ownerID string) (*domain.OwnerDashboard, error)
	Customer(ctx context.Context, userID string) (*domain.CustomerDashboard, error)
}
