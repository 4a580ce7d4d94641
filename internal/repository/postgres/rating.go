package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

const (
	ratingUniqueConstraint = "ratings_store_user_key"
	ratingUserForeignKey   = "ratings_user_id_fkey"

	ratingColumns = `r.id, r.store_id, r.user_id, r.value, r.comment, r.sentiment,
		r.helpful_count, r.verified, r.created_at, r.updated_at`

	ratingExistsSQL = `SELECT EXISTS (SELECT 1 FROM ratings WHERE store_id = $1 AND user_id = $2)`

	insertRatingSQL = `
		INSERT INTO ratings (id, store_id, user_id, value, comment, sentiment, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)`

	upsertRatingSQL = `
		INSERT INTO ratings (id, store_id, user_id, value, comment, sentiment, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
		ON CONFLICT ON CONSTRAINT ratings_store_user_key DO UPDATE
		SET value = EXCLUDED.value,
		    comment = EXCLUDED.comment,
		    sentiment = EXCLUDED.sentiment,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, helpful_count, verified, created_at, updated_at, (xmax = 0) AS inserted`

	updateRatingSQL = `
		UPDATE ratings SET value = $1, comment = $2, sentiment = $3, updated_at = $4
		WHERE id = $5
		RETURNING helpful_count, verified, created_at`

	ratingStoreSQL = `SELECT store_id FROM ratings WHERE id = $1`

	deleteRatingSQL = `
		DELETE FROM ratings WHERE id = $1
		RETURNING id, store_id, user_id, value, comment, sentiment, helpful_count, verified, created_at, updated_at`

	deleteHelpfulMarksSQL = `DELETE FROM helpful_marks WHERE rating_id = $1`

	storeRatingCountSQL = `
		SELECT (SELECT COUNT(*) FROM ratings WHERE store_id = s.id)
		FROM stores s WHERE s.id = $1`

	userRatingCountSQL = `SELECT COUNT(*) FROM ratings WHERE user_id = $1`

	storeExistsSQL = `SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1)`
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
type RatingRepository struct {
	pool database.DBTX
	now  func() time.Time
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(pool database.DBTX) *RatingRepository {
	return &RatingRepository{pool: pool, now: time.Now}
}

func (r *RatingRepository) newRating(w domain.RatingWrite) *domain.Rating {
	now := r.now().UTC()
	return &domain.Rating{
		ID:        uuid.NewString(),
		StoreID:   w.StoreID,
		UserID:    w.UserID,
		Value:     w.Value,
		Comment:   w.Comment,
		Sentiment: w.Sentiment,
		Verified:  true,
		Photos:    []domain.PhotoRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Submit inserts a rating, refusing to overwrite an existing one.
func (r *RatingRepository) Submit(ctx context.Context, w domain.RatingWrite) (res *domain.WriteResult, err error) {
	ctx, end := database.TraceQuery(ctx, "SubmitRating", insertRatingSQL)
	defer func() { end(err) }()

	rating := r.newRating(w)
	res = &domain.WriteResult{Rating: rating}

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		ownerID, err := lockStore(ctx, tx, w.StoreID)
		if err != nil {
			return err
		}
		res.StoreOwnerID = ownerID

		var exists bool
		if err := tx.QueryRow(ctx, ratingExistsSQL, w.StoreID, w.UserID).Scan(&exists); err != nil {
			return fmt.Errorf("check existing rating: %w", err)
		}
		if exists {
			return apperrors.Conflict("you have already rated this store")
		}

		_, err = tx.Exec(ctx, insertRatingSQL,
			rating.ID, rating.StoreID, rating.UserID, rating.Value, rating.Comment, rating.Sentiment, rating.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, ratingUniqueConstraint) {
				return apperrors.Conflict("you have already rated this store")
			}
			if database.IsForeignKeyViolation(err, ratingUserForeignKey) {
				return apperrors.NotFound("user", w.UserID)
			}
			return fmt.Errorf("insert rating: %w", err)
		}

		if len(w.Photos) > 0 {
			if rating.Photos, err = insertPhotos(ctx, tx, rating.ID, w.Photos); err != nil {
				return err
			}
		}

		res.Aggregate, err = recomputeStoreAggregate(ctx, tx, w.StoreID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert creates or overwrites the user's rating for the store.
func (r *RatingRepository) Upsert(ctx context.Context, w domain.RatingWrite) (res *domain.UpsertResult, err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertRating", upsertRatingSQL)
	defer func() { end(err) }()

	rating := r.newRating(w)
	res = &domain.UpsertResult{Rating: rating}

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		ownerID, err := lockStore(ctx, tx, w.StoreID)
		if err != nil {
			return err
		}
		res.StoreOwnerID = ownerID

		err = tx.QueryRow(ctx, upsertRatingSQL,
			rating.ID, rating.StoreID, rating.UserID, rating.Value, rating.Comment, rating.Sentiment, rating.CreatedAt,
		).Scan(&rating.ID, &rating.HelpfulCount, &rating.Verified, &rating.CreatedAt, &rating.UpdatedAt, &res.Created)
		if err != nil {
			if database.IsForeignKeyViolation(err, ratingUserForeignKey) {
				return apperrors.NotFound("user", w.UserID)
			}
			return fmt.Errorf("upsert rating: %w", err)
		}

		switch {
		case w.Photos != nil:
			rating.Photos, err = replacePhotos(ctx, tx, rating.ID, w.Photos)
		case !res.Created:
			err = attachOne(ctx, tx, rating)
		}
		if err != nil {
			return err
		}

		res.Aggregate, err = recomputeStoreAggregate(ctx, tx, w.StoreID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update writes the value, comment and sentiment carried by rating.
func (r *RatingRepository) Update(ctx context.Context, rating *domain.Rating, photos []string) (res *domain.WriteResult, err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateRating", updateRatingSQL)
	defer func() { end(err) }()

	res = &domain.WriteResult{Rating: rating}
	rating.UpdatedAt = r.now().UTC()

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		ownerID, err := lockStore(ctx, tx, rating.StoreID)
		if err != nil {
			return err
		}
		res.StoreOwnerID = ownerID

		err = tx.QueryRow(ctx, updateRatingSQL,
			rating.Value, rating.Comment, rating.Sentiment, rating.UpdatedAt, rating.ID,
		).Scan(&rating.HelpfulCount, &rating.Verified, &rating.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("rating", rating.ID)
			}
			return fmt.Errorf("update rating: %w", err)
		}

		if photos != nil {
			rating.Photos, err = replacePhotos(ctx, tx, rating.ID, photos)
		} else {
			err = attachOne(ctx, tx, rating)
		}
		if err != nil {
			return err
		}

		res.Aggregate, err = recomputeStoreAggregate(ctx, tx, rating.StoreID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes a rating together with its photos and helpful marks and
// returns the removed rating.
func (r *RatingRepository) Delete(ctx context.Context, id string) (res *domain.WriteResult, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteRating", deleteRatingSQL)
	defer func() { end(err) }()

	res = &domain.WriteResult{}

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		var storeID string
		if err := tx.QueryRow(ctx, ratingStoreSQL, id).Scan(&storeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("rating", id)
			}
			return fmt.Errorf("find rating: %w", err)
		}

		ownerID, err := lockStore(ctx, tx, storeID)
		if err != nil {
			return err
		}
		res.StoreOwnerID = ownerID

		if _, err := tx.Exec(ctx, deletePhotosSQL, id); err != nil {
			return fmt.Errorf("delete rating photos: %w", err)
		}
		if _, err := tx.Exec(ctx, deleteHelpfulMarksSQL, id); err != nil {
			return fmt.Errorf("delete helpful marks: %w", err)
		}

		var deleted domain.Rating
		if err := scanRating(tx.QueryRow(ctx, deleteRatingSQL, id), &deleted); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("rating", id)
			}
			return fmt.Errorf("delete rating: %w", err)
		}
		deleted.Photos = []domain.PhotoRef{}
		res.Rating = &deleted

		res.Aggregate, err = recomputeStoreAggregate(ctx, tx, storeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetByID retrieves a rating with reviewer and store names and its photos.
func (r *RatingRepository) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	query := `
		SELECT ` + ratingColumns + `, u.name, s.name
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN stores s ON s.id = r.store_id
		WHERE r.id = $1`

	var rt domain.Rating
	if err := scanRating(r.pool.QueryRow(ctx, query, id), &rt, &rt.UserName, &rt.StoreName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", id)
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	if err := attachOne(ctx, r.pool, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

// ListByStore returns a page of a store's ratings, newest first, with the
// reviewer's name and photos.
func (r *RatingRepository) ListByStore(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	query := `
		SELECT ` + ratingColumns + `, u.name, count(*) OVER() AS total_count
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		WHERE r.store_id = $1
		ORDER BY r.created_at DESC, r.id
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, storeID, page, perPage,
		func(rt *domain.Rating) any { return &rt.UserName },
		func(ctx context.Context, _ int) (int, error) {
			var total int
			if err := r.pool.QueryRow(ctx, storeRatingCountSQL, storeID).Scan(&total); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return 0, apperrors.NotFound("store", storeID)
				}
				return 0, fmt.Errorf("count store ratings: %w", err)
			}
			return total, nil
		},
	)
}

// ListByUser returns a page of a user's ratings, newest first, with the
// store's name and photos.
func (r *RatingRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error) {
	query := `
		SELECT ` + ratingColumns + `, s.name, count(*) OVER() AS total_count
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, userID, page, perPage,
		func(rt *domain.Rating) any { return &rt.StoreName },
		func(ctx context.Context, offset int) (int, error) {
			if offset == 0 {
				return 0, nil
			}
			var total int
			if err := r.pool.QueryRow(ctx, userRatingCountSQL, userID).Scan(&total); err != nil {
				return 0, fmt.Errorf("count user ratings: %w", err)
			}
			return total, nil
		},
	)
}

// list runs a windowed listing query. An empty page carries no window total,
// so emptyTotal supplies it and may reject a missing parent.
func (r *RatingRepository) list(
	ctx context.Context, query, key string, page, perPage int,
	name func(*domain.Rating) any,
	emptyTotal func(ctx context.Context, offset int) (int, error),
) ([]domain.Rating, int, error) {
	limit, offset := limitOffset(page, perPage)

	rows, err := r.pool.Query(ctx, query, key, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	total := 0
	for rows.Next() {
		var rt domain.Rating
		if err := scanRating(rows, &rt, name(&rt), &total); err != nil {
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}
	rows.Close()

	if len(ratings) == 0 {
		if total, err = emptyTotal(ctx, offset); err != nil {
			return nil, 0, err
		}
		return ratings, total, nil
	}

	if err := attachPhotos(ctx, r.pool, ratings); err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}

// Stats returns the distribution of values 0-5, the sentiment split and the
// average for one store.
func (r *RatingRepository) Stats(ctx context.Context, storeID string) (*domain.RatingStats, error) {
	query := `
		SELECT value, sentiment, COUNT(*)
		FROM ratings
		WHERE store_id = $1
		GROUP BY value, sentiment`

	rows, err := r.pool.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.RatingStats{StoreID: storeID, Distribution: make(map[int]int, domain.MaxRatingValue+1)}
	for v := domain.MinRatingValue; v <= domain.MaxRatingValue; v++ {
		stats.Distribution[v] = 0
	}

	var sum int64
	for rows.Next() {
		var (
			value int
			s     domain.Sentiment
			n     int
		)
		if err := rows.Scan(&value, &s, &n); err != nil {
			return nil, fmt.Errorf("scan rating stats: %w", err)
		}
		stats.Distribution[value] += n
		stats.TotalRatings += n
		sum += int64(value * n)
		switch s {
		case domain.SentimentPositive:
			stats.Sentiment.Positive += n
		case domain.SentimentNegative:
			stats.Sentiment.Negative += n
		default:
			stats.Sentiment.Neutral += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating stats: %w", err)
	}
	rows.Close()

	if stats.TotalRatings == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, storeExistsSQL, storeID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check store: %w", err)
		}
		if !exists {
			return nil, apperrors.NotFound("store", storeID)
		}
	}

	stats.AverageRating = domain.NewStoreAggregate(storeID, sum, int64(stats.TotalRatings)).AverageRating
	return stats, nil
}

func attachOne(ctx context.Context, q querier, rt *domain.Rating) error {
	photos, err := loadPhotos(ctx, q, []string{rt.ID})
	if err != nil {
		return err
	}
	rt.Photos = photos[rt.ID]
	if rt.Photos == nil {
		rt.Photos = []domain.PhotoRef{}
	}
	return nil
}

func scanRating(row pgx.Row, rt *domain.Rating, extra ...any) error {
	dest := append([]any{
		&rt.ID,
		&rt.StoreID,
		&rt.UserID,
		&rt.Value,
		&rt.Comment,
		&rt.Sentiment,
		&rt.HelpfulCount,
		&rt.Verified,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	}, extra...)
	return row.Scan(dest...)
}
