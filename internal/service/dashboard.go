package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// DashboardService serves the role dashboards, caching each result for ttl.
// Rating and store writes drop the affected entries.
type DashboardService struct {
	repo   repository.DashboardRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewDashboardService creates a new dashboard service. A nil cache or a
// non-positive ttl disables caching.
func NewDashboardService(repo repository.DashboardRepository, dashboards cache.Cache, ttl time.Duration, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		cache:  dashboards,
		ttl:    ttl,
		logger: logger,
	}
}

// Admin returns the global overview.
func (s *DashboardService) Admin(ctx context.Context, p domain.Principal) (*domain.AdminDashboard, error) {
	if !domain.Can(p, domain.CapViewAdminDashboard) {
		return nil, apperrors.Forbidden("admin dashboard requires the admin role")
	}
	return cached(ctx, s, cache.AdminDashboardKey(), s.repo.Admin)
}

// Owner returns the dashboard of the stores owned by the caller.
func (s *DashboardService) Owner(ctx context.Context, p domain.Principal) (*domain.OwnerDashboard, error) {
	if !domain.Can(p, domain.CapViewOwnerDashboard) {
		return nil, apperrors.Forbidden("store owner dashboard requires the store_owner role")
	}
	return cached(ctx, s, cache.OwnerDashboardKey(p.ID), func(ctx context.Context) (*domain.OwnerDashboard, error) {
		return s.repo.Owner(ctx, p.ID)
	})
}

// Customer returns the caller's activity summary.
func (s *DashboardService) Customer(ctx context.Context, p domain.Principal) (*domain.CustomerDashboard, error) {
	if !domain.Can(p, domain.CapViewCustomerDashboard) {
		return nil, apperrors.Forbidden("customer dashboard requires the customer role")
	}
	return cached(ctx, s, cache.CustomerDashboardKey(p.ID), func(ctx context.Context) (*domain.CustomerDashboard, error) {
		return s.repo.Customer(ctx, p.ID)
	})
}

// cached returns the value under key, loading and storing it on a miss.
// Cache failures are logged and fall through to the database.
func cached[T any](ctx context.Context, s *DashboardService, key string, load func(context.Context) (*T, error)) (*T, error) {
	useCache := s.cache != nil && s.ttl > 0

	if useCache {
		var hit T
		found, err := s.cache.Get(ctx, key, &hit)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "dashboard cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		case found:
			return &hit, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dashboard %s: %w", key, err)
	}

	if useCache {
		if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "dashboard cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return value, nil
}
