package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	pkgkafka "github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/logger"
)

// Topics of the rating service's domain events. The event type of every
// event equals its topic.
var (
	TopicRatingSubmitted = pkgkafka.Topic("rating", "submitted")
	TopicRatingUpdated   = pkgkafka.Topic("rating", "updated")
	TopicRatingDeleted   = pkgkafka.Topic("rating", "deleted")

	TopicStoreCreated          = pkgkafka.Topic("store", "created")
	TopicStoreUpdated          = pkgkafka.Topic("store", "updated")
	TopicStoreDeleted          = pkgkafka.Topic("store", "deleted")
	TopicStoreAggregateUpdated = pkgkafka.Topic("store", "aggregate_updated")
)

// Aggregate types.
const (
	AggregateTypeRating = "rating"
	AggregateTypeStore  = "store"
)

// Source identifies events produced by this service.
const Source = "store-rating"

// RatingEventData is the payload of rating.submitted and rating.updated.
type RatingEventData struct {
	ID        string                `json:"id"`
	StoreID   string                `json:"store_id"`
	UserID    string                `json:"user_id"`
	Value     int                   `json:"rating"`
	Sentiment domain.Sentiment      `json:"sentiment"`
	Created   bool                  `json:"created"`
	Aggregate domain.StoreAggregate `json:"store_aggregate"`
}

// RatingDeletedData is the payload of rating.deleted.
type RatingDeletedData struct {
	ID        string                `json:"id"`
	StoreID   string                `json:"store_id"`
	UserID    string                `json:"user_id"`
	Aggregate domain.StoreAggregate `json:"store_aggregate"`
}

// StoreDeletedData is the payload of store.deleted.
type StoreDeletedData struct {
	ID string `json:"id"`
}

// Publisher sends an event to a topic. Satisfied by *pkgkafka.Producer and
// LocalPublisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes the rating service's domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishRatingWritten publishes rating.submitted for a new rating and
// rating.updated for an overwritten one.
func (p *Producer) PublishRatingWritten(ctx context.Context, rating *domain.Rating, created bool, agg domain.StoreAggregate) error {
	topic := TopicRatingUpdated
	if created {
		topic = TopicRatingSubmitted
	}
	return p.publish(ctx, topic, rating.ID, AggregateTypeRating, RatingEventData{
		ID:        rating.ID,
		StoreID:   rating.StoreID,
		UserID:    rating.UserID,
		Value:     rating.Value,
		Sentiment: rating.Sentiment,
		Created:   created,
		Aggregate: agg,
	})
}

// PublishRatingDeleted publishes rating.deleted.
func (p *Producer) PublishRatingDeleted(ctx context.Context, rating *domain.Rating, agg domain.StoreAggregate) error {
	return p.publish(ctx, TopicRatingDeleted, rating.ID, AggregateTypeRating, RatingDeletedData{
		ID:        rating.ID,
		StoreID:   rating.StoreID,
		UserID:    rating.UserID,
		Aggregate: agg,
	})
}

// PublishStoreCreated publishes store.created with the full store.
func (p *Producer) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	return p.publish(ctx, TopicStoreCreated, store.ID, AggregateTypeStore, store)
}

// PublishStoreUpdated publishes store.updated with the full store.
func (p *Producer) PublishStoreUpdated(ctx context.Context, store *domain.Store) error {
	return p.publish(ctx, TopicStoreUpdated, store.ID, AggregateTypeStore, store)
}

// PublishStoreDeleted publishes store.deleted.
func (p *Producer) PublishStoreDeleted(ctx context.Context, storeID string) error {
	return p.publish(ctx, TopicStoreDeleted, storeID, AggregateTypeStore, StoreDeletedData{ID: storeID})
}

// PublishAggregateUpdated publishes store.aggregate_updated.
func (p *Producer) PublishAggregateUpdated(ctx context.Context, agg domain.StoreAggregate) error {
	return p.publish(ctx, TopicStoreAggregateUpdated, agg.StoreID, AggregateTypeStore, agg)
}
