// Package service implements the business logic of the store rating
// application on top of the repositories.
package service

import (
	"context"
	"log/slog"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

// EventPublisher publishes domain events after a write commits. Satisfied by
// *event.Producer.
type EventPublisher interface {
	PublishRatingWritten(ctx context.Context, rating *domain.Rating, created bool, agg domain.StoreAggregate) error
	PublishRatingDeleted(ctx context.Context, rating *domain.Rating, agg domain.StoreAggregate) error
	PublishStoreCreated(ctx context.Context, store *domain.Store) error
	PublishStoreUpdated(ctx context.Context, store *domain.Store) error
	PublishStoreDeleted(ctx context.Context, storeID string) error
	PublishAggregateUpdated(ctx context.Context, agg domain.StoreAggregate) error
}

// logPublishError records a failed publish. Events are best effort and
// never fail the write that produced them.
func logPublishError(ctx context.Context, logger *slog.Logger, event, id string, err error) {
	if err == nil {
		return
	}
	logger.ErrorContext(ctx, "failed to publish "+event+" event",
		slog.String("aggregate_id", id),
		slog.String("error", err.Error()),
	)
}

// invalidateDashboards drops cached dashboards affected by a write.
func invalidateDashboards(ctx context.Context, c cache.Cache, logger *slog.Logger, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.WarnContext(ctx, "failed to invalidate dashboard cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

// ratingDashboardKeys lists the dashboards a rating write touches: the admin
// overview, the author's customer view and the store owner's view.
func ratingDashboardKeys(authorID, storeOwnerID string) []string {
	keys := []string{cache.AdminDashboardKey(), cache.CustomerDashboardKey(authorID)}
	if storeOwnerID != "" {
		keys = append(keys, cache.OwnerDashboardKey(storeOwnerID))
	}
	return keys
}
