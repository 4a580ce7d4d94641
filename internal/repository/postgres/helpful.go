package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/database"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

const (
	lockRatingSQL = `SELECT user_id FROM ratings WHERE id = $1 FOR UPDATE`

	markHelpfulSQL = `
		INSERT INTO helpful_marks (rating_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (rating_id, user_id) DO NOTHING`

	unmarkHelpfulSQL = `DELETE FROM helpful_marks WHERE rating_id = $1 AND user_id = $2`

	syncHelpfulCountSQL = `
		UPDATE ratings
		SET helpful_count = (SELECT COUNT(*) FROM helpful_marks WHERE rating_id = $1)
		WHERE id = $1
		RETURNING helpful_count`
)

// HelpfulRepository implements repository.HelpfulRepository using PostgreSQL.
type HelpfulRepository struct {
	pool database.DBTX
}

// NewHelpfulRepository creates a new PostgreSQL-backed helpful-mark repository.
func NewHelpfulRepository(pool database.DBTX) *HelpfulRepository {
	return &HelpfulRepository{pool: pool}
}

// Mark records a helpful mark. Authors cannot mark their own rating.
func (r *HelpfulRepository) Mark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error) {
	return r.toggle(ctx, ratingID, userID, true)
}

// Unmark removes a helpful mark. Unmarking an unmarked rating is a no-op.
func (r *HelpfulRepository) Unmark(ctx context.Context, ratingID, userID string) (*domain.HelpfulResult, error) {
	return r.toggle(ctx, ratingID, userID, false)
}

// toggle applies the mark change and resyncs helpful_count from the live
// mark count under the rating's row lock.
func (r *HelpfulRepository) toggle(ctx context.Context, ratingID, userID string, mark bool) (res *domain.HelpfulResult, err error) {
	stmt := unmarkHelpfulSQL
	if mark {
		stmt = markHelpfulSQL
	}
	ctx, end := database.TraceQuery(ctx, "ToggleHelpful", stmt)
	defer func() { end(err) }()

	res = &domain.HelpfulResult{RatingID: ratingID, Marked: mark}

	err = database.RunInTx(ctx, r.pool, database.ReadCommitted, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, lockRatingSQL, ratingID).Scan(&res.AuthorID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("rating", ratingID)
			}
			return fmt.Errorf("lock rating: %w", err)
		}
		if mark && res.AuthorID == userID {
			return apperrors.InvalidInput("you cannot mark your own rating as helpful")
		}

		if _, err := tx.Exec(ctx, stmt, ratingID, userID); err != nil {
			return fmt.Errorf("write helpful mark: %w", err)
		}

		if err := tx.QueryRow(ctx, syncHelpfulCountSQL, ratingID).Scan(&res.HelpfulCount); err != nil {
			return fmt.Errorf("sync helpful count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
