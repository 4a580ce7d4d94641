package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/sentiment"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// RatingService implements rating submission, editing, helpful marks and
// aggregate maintenance.
type RatingService struct {
	ratings    repository.RatingRepository
	helpful    repository.HelpfulRepository
	classifier *sentiment.Classifier
	producer   EventPublisher
	cache      cache.Cache
	metrics    *Metrics
	logger     *slog.Logger
}

// NewRatingService creates a new rating service. metrics may be nil.
func NewRatingService(
	ratings repository.RatingRepository,
	helpful repository.HelpfulRepository,
	classifier *sentiment.Classifier,
	producer EventPublisher,
	dashboards cache.Cache,
	metrics *Metrics,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		ratings:    ratings,
		helpful:    helpful,
		classifier: classifier,
		producer:   producer,
		cache:      dashboards,
		metrics:    metrics,
		logger:     logger,
	}
}

// RatingInput holds the parameters of a submit or upsert. A nil Sentiment is
// derived from the comment. A nil Photos slice leaves an existing rating's
// photos unchanged.
type RatingInput struct {
	StoreID   string
	Value     int
	Comment   string
	Sentiment *domain.Sentiment
	Photos    []string
}

// Submit creates the caller's rating for a store. It fails with a Conflict
// error when the caller has already rated the store.
func (s *RatingService) Submit(ctx context.Context, p domain.Principal, input RatingInput) (*domain.WriteResult, error) {
	w, err := s.prepareWrite(p, input)
	if err != nil {
		return nil, err
	}

	res, err := s.ratings.Submit(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("submit rating: %w", err)
	}

	s.afterWrite(ctx, opSubmit, res.Rating, true, res.Aggregate, res.StoreOwnerID)
	return res, nil
}

// Upsert creates the caller's rating for a store or overwrites the existing
// one. Repeating the same upsert leaves one rating and the same aggregate.
func (s *RatingService) Upsert(ctx context.Context, p domain.Principal, input RatingInput) (*domain.UpsertResult, error) {
	w, err := s.prepareWrite(p, input)
	if err != nil {
		return nil, err
	}

	res, err := s.ratings.Upsert(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	op := opUpdate
	if res.Created {
		op = opCreate
	}
	s.afterWrite(ctx, op, res.Rating, res.Created, res.Aggregate, res.StoreOwnerID)
	return res, nil
}

// Update edits a rating on behalf of its author or a moderator. The sentiment
// is re-derived when the comment changes unless an explicit sentiment is
// supplied.
func (s *RatingService) Update(ctx context.Context, p domain.Principal, id string, patch domain.RatingPatch) (*domain.WriteResult, error) {
	if patch.Value == nil && patch.Comment == nil && patch.Sentiment == nil && patch.Photos == nil {
		return nil, apperrors.InvalidInput("nothing to update")
	}

	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rating by id: %w", err)
	}
	if rating.UserID != p.ID && !domain.Can(p, domain.CapModerateRatings) {
		return nil, apperrors.Forbidden("only the author or an administrator can edit this rating")
	}

	if patch.Value != nil {
		rating.Value = *patch.Value
	}
	commentChanged := false
	if patch.Comment != nil {
		comment := strings.TrimSpace(*patch.Comment)
		commentChanged = comment != rating.Comment
		rating.Comment = comment
	}
	switch {
	case patch.Sentiment != nil:
		rating.Sentiment = *patch.Sentiment
	case commentChanged:
		rating.Sentiment = s.classifier.Classify(rating.Comment)
	}

	if err := validateRating(rating.Value, rating.Comment, patch.Photos); err != nil {
		return nil, err
	}
	if err := validateSentiment(rating.Sentiment); err != nil {
		return nil, err
	}

	res, err := s.ratings.Update(ctx, rating, patch.Photos)
	if err != nil {
		return nil, fmt.Errorf("update rating: %w", err)
	}

	s.afterWrite(ctx, opEdit, res.Rating, false, res.Aggregate, res.StoreOwnerID)
	return res, nil
}

// Delete removes a rating. Allowed for its author and for moderators.
func (s *RatingService) Delete(ctx context.Context, p domain.Principal, id string) error {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get rating by id: %w", err)
	}
	if rating.UserID != p.ID && !domain.Can(p, domain.CapModerateRatings) {
		return apperrors.Forbidden("only the author or an administrator can delete this rating")
	}

	res, err := s.ratings.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	s.metrics.recordWrite(opDelete, "")
	logPublishError(ctx, s.logger, "rating.deleted", id, s.producer.PublishRatingDeleted(ctx, res.Rating, res.Aggregate))
	logPublishError(ctx, s.logger, "store.aggregate_updated", res.Aggregate.StoreID, s.producer.PublishAggregateUpdated(ctx, res.Aggregate))
	invalidateDashboards(ctx, s.cache, s.logger, ratingDashboardKeys(rating.UserID, res.StoreOwnerID)...)

	s.logger.InfoContext(ctx, "rating deleted",
		slog.String("rating_id", id),
		slog.String("store_id", rating.StoreID),
		slog.String("deleted_by", p.ID),
		slog.Float64("average_rating", res.Aggregate.AverageRating),
		slog.Int("review_count", res.Aggregate.ReviewCount),
	)
	return nil
}

// GetRating retrieves a rating by its ID.
func (s *RatingService) GetRating(ctx context.Context, id string) (*domain.Rating, error) {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rating by id: %w", err)
	}
	return rating, nil
}

// ListByStore returns a page of a store's ratings.
func (s *RatingService) ListByStore(ctx context.Context, storeID string, page, perPage int) ([]domain.Rating, int, error) {
	ratings, total, err := s.ratings.ListByStore(ctx, storeID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings by store: %w", err)
	}
	return ratings, total, nil
}

// ListByUser returns a page of a user's ratings.
func (s *RatingService) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rating, int, error) {
	ratings, total, err := s.ratings.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings by user: %w", err)
	}
	return ratings, total, nil
}

// Stats returns a store's rating distribution and sentiment split.
func (s *RatingService) Stats(ctx context.Context, storeID string) (*domain.RatingStats, error) {
	stats, err := s.ratings.Stats(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}
	return stats, nil
}

// MarkHelpful records that the caller found a rating helpful.
func (s *RatingService) MarkHelpful(ctx context.Context, p domain.Principal, ratingID string) (*domain.HelpfulResult, error) {
	res, err := s.helpful.Mark(ctx, ratingID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("mark rating helpful: %w", err)
	}
	s.afterHelpful(ctx, p, res)
	return res, nil
}

// UnmarkHelpful withdraws the caller's helpful mark.
func (s *RatingService) UnmarkHelpful(ctx context.Context, p domain.Principal, ratingID string) (*domain.HelpfulResult, error) {
	res, err := s.helpful.Unmark(ctx, ratingID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("unmark rating helpful: %w", err)
	}
	s.afterHelpful(ctx, p, res)
	return res, nil
}

// RecomputeAggregate rebuilds one store's aggregate from its ratings.
func (s *RatingService) RecomputeAggregate(ctx context.Context, storeID string) (domain.StoreAggregate, error) {
	agg, err := s.ratings.RecomputeAggregate(ctx, storeID)
	if err != nil {
		return domain.StoreAggregate{}, fmt.Errorf("recompute aggregate: %w", err)
	}
	logPublishError(ctx, s.logger, "store.aggregate_updated", storeID, s.producer.PublishAggregateUpdated(ctx, agg))
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey())
	return agg, nil
}

// RecomputeAll rebuilds every store's aggregate.
func (s *RatingService) RecomputeAll(ctx context.Context) ([]domain.StoreAggregate, error) {
	aggs, err := s.ratings.RecomputeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("recompute all aggregates: %w", err)
	}
	for _, agg := range aggs {
		logPublishError(ctx, s.logger, "store.aggregate_updated", agg.StoreID, s.producer.PublishAggregateUpdated(ctx, agg))
	}
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey())

	s.logger.InfoContext(ctx, "aggregates recomputed", slog.Int("stores", len(aggs)))
	return aggs, nil
}

func (s *RatingService) prepareWrite(p domain.Principal, input RatingInput) (domain.RatingWrite, error) {
	if !domain.Can(p, domain.CapRateStores) {
		return domain.RatingWrite{}, apperrors.Forbidden("your role cannot rate stores")
	}
	if input.StoreID == "" {
		return domain.RatingWrite{}, apperrors.InvalidInput("store id is required")
	}

	comment := strings.TrimSpace(input.Comment)
	if err := validateRating(input.Value, comment, input.Photos); err != nil {
		return domain.RatingWrite{}, err
	}
	if input.Sentiment != nil {
		if err := validateSentiment(*input.Sentiment); err != nil {
			return domain.RatingWrite{}, err
		}
	}

	return domain.RatingWrite{
		StoreID:   input.StoreID,
		UserID:    p.ID,
		Value:     input.Value,
		Comment:   comment,
		Sentiment: s.classifier.Resolve(input.Sentiment, comment),
		Photos:    input.Photos,
	}, nil
}

func (s *RatingService) afterWrite(ctx context.Context, op string, rating *domain.Rating, created bool, agg domain.StoreAggregate, storeOwnerID string) {
	s.metrics.recordWrite(op, rating.Sentiment)

	event := "rating.updated"
	if created {
		event = "rating.submitted"
	}
	logPublishError(ctx, s.logger, event, rating.ID, s.producer.PublishRatingWritten(ctx, rating, created, agg))
	logPublishError(ctx, s.logger, "store.aggregate_updated", agg.StoreID, s.producer.PublishAggregateUpdated(ctx, agg))
	invalidateDashboards(ctx, s.cache, s.logger, ratingDashboardKeys(rating.UserID, storeOwnerID)...)

	s.logger.InfoContext(ctx, "rating written",
		slog.String("operation", op),
		slog.String("rating_id", rating.ID),
		slog.String("store_id", rating.StoreID),
		slog.String("sentiment", string(rating.Sentiment)),
		slog.Float64("average_rating", agg.AverageRating),
		slog.Int("review_count", agg.ReviewCount),
	)
}

func (s *RatingService) afterHelpful(ctx context.Context, p domain.Principal, res *domain.HelpfulResult) {
	invalidateDashboards(ctx, s.cache, s.logger,
		cache.CustomerDashboardKey(res.AuthorID),
		cache.CustomerDashboardKey(p.ID),
	)
	s.logger.DebugContext(ctx, "helpful mark changed",
		slog.String("rating_id", res.RatingID),
		slog.Bool("marked", res.Marked),
		slog.Int("helpful_count", res.HelpfulCount),
	)
}

func validateRating(value int, comment string, photos []string) error {
	if value < domain.MinRatingValue || value > domain.MaxRatingValue {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRatingValue, domain.MaxRatingValue))
	}
	if len([]rune(comment)) > domain.MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
	}
	if len(photos) > domain.MaxPhotos {
		return apperrors.InvalidInput(fmt.Sprintf("at most %d photos can be attached", domain.MaxPhotos))
	}
	for _, raw := range photos {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperrors.InvalidInput(fmt.Sprintf("photo %q is not a valid URL", raw))
		}
	}
	return nil
}

func validateSentiment(s domain.Sentiment) error {
	if _, err := domain.ParseSentiment(string(s)); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}
