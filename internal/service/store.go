package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/search"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

const (
	maxDescriptionLength = 2000
	maxPhoneLength       = 30
)

// StoreService implements store management and lookup.
type StoreService struct {
	stores   repository.StoreRepository
	users    repository.UserRepository
	engine   search.Engine
	producer EventPublisher
	cache    cache.Cache
	logger   *slog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(
	stores repository.StoreRepository,
	users repository.UserRepository,
	engine search.Engine,
	producer EventPublisher,
	dashboards cache.Cache,
	logger *slog.Logger,
) *StoreService {
	return &StoreService{
		stores:   stores,
		users:    users,
		engine:   engine,
		producer: producer,
		cache:    dashboards,
		logger:   logger,
	}
}

// CreateStoreInput holds the parameters for creating a store. OwnerID is
// only honoured for administrators; store owners always own what they create.
type CreateStoreInput struct {
	Name        string
	Description string
	Address     string
	Email       string
	Phone       string
	OwnerID     string
}

// UpdateStoreInput holds the parameters for updating a store.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Address     *string
	Email       *string
	Phone       *string
	IsActive    *bool
}

// CreateStore creates a store owned by the caller, or by input.OwnerID when
// the caller is an administrator.
func (s *StoreService) CreateStore(ctx context.Context, p domain.Principal, input CreateStoreInput) (*domain.Store, error) {
	if !domain.Can(p, domain.CapManageStores) {
		return nil, apperrors.Forbidden("only store owners and administrators can create stores")
	}

	ownerID := p.ID
	if domain.Can(p, domain.CapManageAnyStore) && input.OwnerID != "" && input.OwnerID != p.ID {
		owner, err := s.users.GetByID(ctx, input.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("get store owner: %w", err)
		}
		if owner.Role != domain.RoleStoreOwner {
			return nil, apperrors.InvalidInput("store owner must have the store_owner role")
		}
		ownerID = owner.ID
	}

	now := time.Now().UTC()
	store := &domain.Store{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Email:       normalizeEmail(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		OwnerID:     ownerID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateStore(store); err != nil {
		return nil, err
	}

	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	logPublishError(ctx, s.logger, "store.created", store.ID, s.producer.PublishStoreCreated(ctx, store))
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey(), cache.OwnerDashboardKey(ownerID))

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID),
		slog.String("owner_id", ownerID),
	)
	return store, nil
}

// GetStore retrieves a store by its ID.
func (s *StoreService) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store by id: %w", err)
	}
	return store, nil
}

// ListStores returns a page of stores with their averages and counts.
func (s *StoreService) ListStores(ctx context.Context, filter domain.StoreFilter, page, perPage int) ([]domain.Store, int, error) {
	stores, total, err := s.stores.List(ctx, filter, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}
	return stores, total, nil
}

// ListByOwner returns a page of the stores owned by ownerID.
func (s *StoreService) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]domain.Store, int, error) {
	return s.ListStores(ctx, domain.StoreFilter{OwnerID: ownerID}, page, perPage)
}

// UpdateStore changes a store's descriptive fields. Owner or admin only.
func (s *StoreService) UpdateStore(ctx context.Context, p domain.Principal, id string, input UpdateStoreInput) (*domain.Store, error) {
	store, err := s.authorizeStore(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		store.Description = strings.TrimSpace(*input.Description)
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.Email != nil {
		store.Email = normalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		store.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}
	if err := validateStore(store); err != nil {
		return nil, err
	}

	store.UpdatedAt = time.Now().UTC()
	if err := s.stores.Update(ctx, store); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}

	logPublishError(ctx, s.logger, "store.updated", store.ID, s.producer.PublishStoreUpdated(ctx, store))
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey(), cache.OwnerDashboardKey(store.OwnerID))

	s.logger.InfoContext(ctx, "store updated", slog.String("store_id", store.ID))
	return store, nil
}

// DeleteStore removes a store and its ratings. Owner or admin only.
func (s *StoreService) DeleteStore(ctx context.Context, p domain.Principal, id string) error {
	store, err := s.authorizeStore(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.stores.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	logPublishError(ctx, s.logger, "store.deleted", id, s.producer.PublishStoreDeleted(ctx, id))
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey(), cache.OwnerDashboardKey(store.OwnerID))

	s.logger.InfoContext(ctx, "store deleted",
		slog.String("store_id", id),
		slog.String("deleted_by", p.ID),
	)
	return nil
}

// Search runs a full-text query against the search index.
func (s *StoreService) Search(ctx context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error) {
	query.Text = strings.TrimSpace(query.Text)
	if query.MinRating < domain.MinRatingValue || query.MinRating > domain.MaxRatingValue {
		return nil, apperrors.InvalidInput(fmt.Sprintf("min_rating must be between %d and %d", domain.MinRatingValue, domain.MaxRatingValue))
	}
	query.Page, query.PerPage = search.NormalizePage(query.Page, query.PerPage)

	result, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search stores: %w", err)
	}

	s.logger.DebugContext(ctx, "store search executed",
		slog.String("query", query.Text),
		slog.Int("total", result.Total),
	)
	return result, nil
}

// Reindex loads every store from the database into the search index in
// batches of batchSize and returns the number indexed.
func (s *StoreService) Reindex(ctx context.Context, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 500
	}

	batch := make([]domain.Store, 0, batchSize)
	indexed := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.engine.BulkIndex(ctx, batch); err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}
		indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.stores.ListAll(ctx, func(store domain.Store) error {
		batch = append(batch, store)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("reindex stores: %w", err)
	}
	if err := flush(); err != nil {
		return indexed, err
	}

	s.logger.InfoContext(ctx, "search reindex completed", slog.Int("count", indexed))
	return indexed, nil
}

func (s *StoreService) authorizeStore(ctx context.Context, p domain.Principal, id string) (*domain.Store, error) {
	if !domain.Can(p, domain.CapManageStores) {
		return nil, apperrors.Forbidden("only store owners and administrators can manage stores")
	}
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store by id: %w", err)
	}
	if store.OwnerID != p.ID && !domain.Can(p, domain.CapManageAnyStore) {
		return nil, apperrors.Forbidden("you do not own this store")
	}
	return store, nil
}

func validateStore(store *domain.Store) error {
	if n := len([]rune(store.Name)); n < minNameLength || n > maxNameLength {
		return apperrors.InvalidInput(fmt.Sprintf("store name must be between %d and %d characters", minNameLength, maxNameLength))
	}
	if store.Address == "" {
		return apperrors.InvalidInput("store address is required")
	}
	if len([]rune(store.Address)) > maxAddressLength {
		return apperrors.InvalidInput(fmt.Sprintf("address must be at most %d characters", maxAddressLength))
	}
	if len([]rune(store.Description)) > maxDescriptionLength {
		return apperrors.InvalidInput(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	if store.Email != "" {
		if _, err := mail.ParseAddress(store.Email); err != nil {
			return apperrors.InvalidInput("store email is not valid")
		}
	}
	if len(store.Phone) > maxPhoneLength {
		return apperrors.InvalidInput(fmt.Sprintf("phone must be at most %d characters", maxPhoneLength))
	}
	return nil
}
