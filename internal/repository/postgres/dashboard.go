package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
)

const qualifiedStoreColumns = `s.id, s.name, s.description, s.address, s.email, s.phone, s.owner_id, s.is_active,
		s.average_rating, s.review_count, s.created_at, s.updated_at`

const (
	adminCountsSQL = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM stores),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM users WHERE role = 'store_owner'),
			(SELECT COUNT(*) FROM rating_photos),
			(SELECT COUNT(*) FROM ratings WHERE created_at >= NOW() - make_interval(days => $1)),
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - make_interval(days => $2)),
			(SELECT COUNT(*) FROM stores WHERE created_at >= NOW() - make_interval(days => $2))`

	recentUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1`

	recentStoresSQL = `
		SELECT ` + qualifiedStoreColumns + `, u.name
		FROM stores s
		JOIN users u ON u.id = s.owner_id
		ORDER BY s.created_at DESC, s.id
		LIMIT $1`

	topStoresSQL = `
		SELECT ` + qualifiedStoreColumns + `, u.name
		FROM stores s
		JOIN users u ON u.id = s.owner_id
		WHERE s.review_count > 0
		ORDER BY s.average_rating DESC, s.review_count DESC, s.id
		LIMIT $1`

	ownerStoreStatsSQL = `
		SELECT ` + qualifiedStoreColumns + `,
			COUNT(r.id),
			COALESCE(SUM(r.value), 0),
			COUNT(r.id) FILTER (WHERE r.created_at >= NOW() - make_interval(days => $2)),
			COUNT(r.id) FILTER (WHERE r.sentiment = 'positive'),
			COUNT(r.id) FILTER (WHERE r.sentiment = 'negative'),
			(SELECT COUNT(*) FROM rating_photos rp JOIN ratings r2 ON r2.id = rp.rating_id WHERE r2.store_id = s.id)
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		WHERE s.owner_id = $1
		GROUP BY s.id
		ORDER BY s.name, s.id`

	ownerRecentRatingsSQL = `
		SELECT ` + ratingColumns + `, u.name, s.name
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		JOIN users u ON u.id = r.user_id
		WHERE s.owner_id = $1
		ORDER BY r.created_at DESC, r.id
		LIMIT $2`

	ownerTrendSQL = `
		SELECT DATE(r.created_at) AS day, COUNT(*), SUM(r.value)
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		WHERE s.owner_id = $1 AND r.created_at >= NOW() - make_interval(days => $2)
		GROUP BY day
		ORDER BY day`

	customerStatsSQL = `
		SELECT
			COUNT(*),
			COUNT(DISTINCT store_id),
			COALESCE(SUM(value), 0),
			(SELECT COUNT(*) FROM helpful_marks hm JOIN ratings r2 ON r2.id = hm.rating_id WHERE r2.user_id = $1)
		FROM ratings
		WHERE user_id = $1`

	customerRecentRatingsSQL = `
		SELECT ` + ratingColumns + `, s.name
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id
		LIMIT $2`

	customerFavoritesSQL = `
		SELECT ` + qualifiedStoreColumns + `, r.value
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		WHERE r.user_id = $1
		ORDER BY r.value DESC, s.review_count DESC, s.name, s.id
		LIMIT $2`

	customerContributionsSQL = `
		SELECT
			(SELECT COUNT(*) FROM rating_photos rp JOIN ratings r ON r.id = rp.rating_id WHERE r.user_id = $1),
			(SELECT COUNT(*) FROM helpful_marks WHERE user_id = $1)`
)

// DashboardRepository implements repository.DashboardRepository using
// PostgreSQL. Each dashboard is read inside one read-only snapshot.
type DashboardRepository struct {
	pool database.DBTX
}

// NewDashboardRepository creates a new PostgreSQL-backed dashboard repository.
func NewDashboardRepository(pool database.DBTX) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// Admin builds the global overview.
func (r *DashboardRepository) Admin(ctx context.Context) (*domain.AdminDashboard, error) {
	d := &domain.AdminDashboard{}

	err := database.RunInTx(ctx, r.pool, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, adminCountsSQL, domain.RecentActivityDays, domain.GrowthWindowDays).Scan(
			&d.Stats.TotalUsers,
			&d.Stats.TotalStores,
			&d.Stats.TotalRatings,
			&d.Stats.TotalStoreOwners,
			&d.Stats.TotalPhotos,
			&d.RecentActivity.RatingsLastWeek,
			&d.RecentActivity.NewUsersLastMonth,
			&d.RecentActivity.NewStoresLastMonth,
		)
		if err != nil {
			return fmt.Errorf("admin counts: %w", err)
		}

		if d.RecentUsers, err = queryUsers(ctx, tx, recentUsersSQL, domain.DashboardRecentLimit); err != nil {
			return fmt.Errorf("recent users: %w", err)
		}
		if d.RecentStores, err = queryStoresWithOwner(ctx, tx, recentStoresSQL, domain.DashboardRecentLimit); err != nil {
			return fmt.Errorf("recent stores: %w", err)
		}
		if d.TopStores, err = queryStoresWithOwner(ctx, tx, topStoresSQL, domain.DashboardTopStoresLimit); err != nil {
			return fmt.Errorf("top stores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Owner builds the dashboard for every store owned by ownerID.
func (r *DashboardRepository) Owner(ctx context.Context, ownerID string) (*domain.OwnerDashboard, error) {
	d := &domain.OwnerDashboard{}

	err := database.RunInTx(ctx, r.pool, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		var err error
		if d.Stores, err = ownerStoreStats(ctx, tx, ownerID); err != nil {
			return fmt.Errorf("owner store stats: %w", err)
		}
		if d.RecentRatings, err = queryRatings(ctx, tx, ownerRecentRatingsSQL, func(rt *domain.Rating) []any {
			return []any{&rt.UserName, &rt.StoreName}
		}, ownerID, domain.DashboardRecentLimit); err != nil {
			return fmt.Errorf("owner recent ratings: %w", err)
		}
		if d.Trend, err = ownerTrend(ctx, tx, ownerID); err != nil {
			return fmt.Errorf("owner rating trend: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Customer builds the dashboard of one user's own activity.
func (r *DashboardRepository) Customer(ctx context.Context, userID string) (*domain.CustomerDashboard, error) {
	d := &domain.CustomerDashboard{}

	err := database.RunInTx(ctx, r.pool, database.ReadOnlySnapshot, func(tx pgx.Tx) error {
		var sum int64
		err := tx.QueryRow(ctx, customerStatsSQL, userID).Scan(
			&d.Stats.TotalRatings,
			&d.Stats.RatedStores,
			&sum,
			&d.Stats.HelpfulMarksReceived,
		)
		if err != nil {
			return fmt.Errorf("customer stats: %w", err)
		}
		d.Stats.AverageRatingGiven = domain.NewStoreAggregate("", sum, int64(d.Stats.TotalRatings)).AverageRating

		if d.RecentRatings, err = queryRatings(ctx, tx, customerRecentRatingsSQL, func(rt *domain.Rating) []any {
			return []any{&rt.StoreName}
		}, userID, domain.DashboardRecentLimit); err != nil {
			return fmt.Errorf("customer recent ratings: %w", err)
		}
		if d.FavoriteStores, err = customerFavorites(ctx, tx, userID); err != nil {
			return fmt.Errorf("customer favorites: %w", err)
		}
		err = tx.QueryRow(ctx, customerContributionsSQL, userID).Scan(
			&d.Contributions.TotalPhotos,
			&d.Contributions.HelpfulMarksGiven,
		)
		if err != nil {
			return fmt.Errorf("customer contributions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func queryUsers(ctx context.Context, q querier, query string, args ...any) ([]domain.User, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func queryStoresWithOwner(ctx context.Context, q querier, query string, args ...any) ([]domain.Store, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := scanStore(rows, &s, &s.OwnerName); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func queryRatings(
	ctx context.Context, q querier, query string, extra func(*domain.Rating) []any, args ...any,
) ([]domain.Rating, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		var rt domain.Rating
		if err := scanRating(rows, &rt, extra(&rt)...); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := attachPhotos(ctx, q, ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

func ownerStoreStats(ctx context.Context, q querier, ownerID string) ([]domain.OwnerStoreStats, error) {
	rows, err := q.Query(ctx, ownerStoreStatsSQL, ownerID, domain.RecentActivityDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.OwnerStoreStats{}
	for rows.Next() {
		var (
			st  domain.OwnerStoreStats
			sum int64
		)
		if err := scanStore(rows, &st.Store,
			&st.TotalRatings,
			&sum,
			&st.RatingsLastWeek,
			&st.PositiveRatings,
			&st.NegativeRatings,
			&st.TotalPhotos,
		); err != nil {
			return nil, err
		}
		st.AverageRating = domain.NewStoreAggregate(st.Store.ID, sum, int64(st.TotalRatings)).AverageRating
		out = append(out, st)
	}
	return out, rows.Err()
}

func ownerTrend(ctx context.Context, q querier, ownerID string) ([]domain.TrendPoint, error) {
	rows, err := q.Query(ctx, ownerTrendSQL, ownerID, domain.TrendDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TrendPoint{}
	for rows.Next() {
		var (
			day   time.Time
			count int
			sum   int64
		)
		if err := rows.Scan(&day, &count, &sum); err != nil {
			return nil, err
		}
		out = append(out, domain.TrendPoint{
			Date:          day,
			RatingCount:   count,
			AverageRating: domain.NewStoreAggregate("", sum, int64(count)).AverageRating,
		})
	}
	return out, rows.Err()
}

func customerFavorites(ctx context.Context, q querier, userID string) ([]domain.FavoriteStore, error) {
	rows, err := q.Query(ctx, customerFavoritesSQL, userID, domain.DashboardFavoritesLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FavoriteStore{}
	for rows.Next() {
		var f domain.FavoriteStore
		if err := scanStore(rows, &f.Store, &f.UserRating); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
