package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	lockStoreSQL = `SELECT owner_id FROM stores WHERE id = $1 FOR UPDATE`

	sumRatingsSQL = `SELECT COALESCE(SUM(value), 0), COUNT(*) FROM ratings WHERE store_id = $1`

	writeAggregateSQL = `
		UPDATE stores SET average_rating = $1, review_count = $2, updated_at = NOW()
		WHERE id = $3`
)

// lockStore takes the row lock that serializes every rating write on one
// store and returns the store's owner.
func lockStore(ctx context.Context, tx querier, storeID string) (string, error) {
	var ownerID string
	if err := tx.QueryRow(ctx, lockStoreSQL, storeID).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("store", storeID)
		}
		return "", fmt.Errorf("lock store: %w", err)
	}
	return ownerID, nil
}

// recomputeStoreAggregate rebuilds a store's average and count from its
// ratings and writes them back. It must run inside the transaction that
// changed the ratings, after lockStore.
func recomputeStoreAggregate(ctx context.Context, tx querier, storeID string) (domain.StoreAggregate, error) {
	var sum, count int64
	if err := tx.QueryRow(ctx, sumRatingsSQL, storeID).Scan(&sum, &count); err != nil {
		return domain.StoreAggregate{}, fmt.Errorf("sum ratings: %w", err)
	}

	agg := domain.NewStoreAggregate(storeID, sum, count)
	if _, err := tx.Exec(ctx, writeAggregateSQL, agg.AverageRating, agg.ReviewCount, storeID); err != nil {
		return domain.StoreAggregate{}, fmt.Errorf("write store aggregate: %w", err)
	}
	return agg, nil
}

// RecomputeAggregate rebuilds one store's aggregate in its own transaction.
func (r *RatingRepository) RecomputeAggregate(ctx context.Context, storeID string) (agg domain.StoreAggregate, err error) {
	ctx, end := database.TraceQuery(ctx, "RecomputeAggregate", sumRatingsSQL)
	defer func() { end(err) }()

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		if _, err := lockStore(ctx, tx, storeID); err != nil {
			return err
		}
		var err error
		agg, err = recomputeStoreAggregate(ctx, tx, storeID)
		return err
	})
	return agg, err
}

// RecomputeAll rebuilds every store's aggregate, one transaction per store.
func (r *RatingRepository) RecomputeAll(ctx context.Context) ([]domain.StoreAggregate, error) {
	ids, err := collectIDs(ctx, r.pool, `SELECT id FROM stores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	out := make([]domain.StoreAggregate, 0, len(ids))
	for _, id := range ids {
		agg, err := r.RecomputeAggregate(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return out, fmt.Errorf("recompute store %s: %w", id, err)
		}
		out = append(out, agg)
	}
	return out, nil
}
