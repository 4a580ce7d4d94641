package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

const (
	insertPhotoSQL = `INSERT INTO rating_photos (id, rating_id, url, created_at) VALUES ($1, $2, $3, $4)`

	deletePhotosSQL = `DELETE FROM rating_photos WHERE rating_id = $1`

	loadPhotosSQL = `
		SELECT rating_id, id, url FROM rating_photos
		WHERE rating_id = ANY($1)
		ORDER BY created_at, id`
)

// insertPhotos attaches urls to a rating in order.
func insertPhotos(ctx context.Context, tx querier, ratingID string, urls []string) ([]domain.PhotoRef, error) {
	refs := make([]domain.PhotoRef, 0, len(urls))
	now := time.Now().UTC()
	for i, url := range urls {
		ref := domain.PhotoRef{ID: uuid.NewString(), URL: url}
		// Offset by index so created_at ordering matches submission order.
		if _, err := tx.Exec(ctx, insertPhotoSQL, ref.ID, ratingID, url, now.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return nil, fmt.Errorf("insert rating photo: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// replacePhotos swaps a rating's photo set for urls.
func replacePhotos(ctx context.Context, tx querier, ratingID string, urls []string) ([]domain.PhotoRef, error) {
	if _, err := tx.Exec(ctx, deletePhotosSQL, ratingID); err != nil {
		return nil, fmt.Errorf("delete rating photos: %w", err)
	}
	return insertPhotos(ctx, tx, ratingID, urls)
}

// loadPhotos returns the photos of the given ratings keyed by rating id.
func loadPhotos(ctx context.Context, q querier, ratingIDs []string) (map[string][]domain.PhotoRef, error) {
	out := make(map[string][]domain.PhotoRef, len(ratingIDs))
	if len(ratingIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, loadPhotosSQL, ratingIDs)
	if err != nil {
		return nil, fmt.Errorf("load rating photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ratingID string
		var ref domain.PhotoRef
		if err := rows.Scan(&ratingID, &ref.ID, &ref.URL); err != nil {
			return nil, fmt.Errorf("scan rating photo: %w", err)
		}
		out[ratingID] = append(out[ratingID], ref)
	}
	return out, rows.Err()
}

// attachPhotos fills the Photos field of every rating. Ratings without
// photos get an empty slice.
func attachPhotos(ctx context.Context, q querier, ratings []domain.Rating) error {
	ids := make([]string, len(ratings))
	for i := range ratings {
		ids[i] = ratings[i].ID
	}
	photos, err := loadPhotos(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range ratings {
		ratings[i].Photos = photos[ratings[i].ID]
		if ratings[i].Photos == nil {
			ratings[i].Photos = []domain.PhotoRef{}
		}
	}
	return nil
}
