package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/search"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	pkgkafka "github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka"
)

// StoreReader loads the current state of a store.
type StoreReader interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
}

// Indexer keeps the search index in step with store events.
type Indexer struct {
	engine search.Engine
	stores StoreReader
	logger *slog.Logger
}

// NewIndexer creates a new search indexer.
func NewIndexer(engine search.Engine, stores StoreReader, logger *slog.Logger) *Indexer {
	return &Indexer{engine: engine, stores: stores, logger: logger}
}

// Topics lists the topics the indexer consumes.
func (i *Indexer) Topics() []string {
	return []string{TopicStoreCreated, TopicStoreUpdated, TopicStoreDeleted, TopicStoreAggregateUpdated}
}

// Handle processes one store event.
func (i *Indexer) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	switch evt.EventType {
	case TopicStoreCreated, TopicStoreUpdated:
		var store domain.Store
		if err := evt.UnmarshalData(&store); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", evt.EventType, err)
		}
		if err := i.engine.Index(ctx, &store); err != nil {
			return fmt.Errorf("index store %s: %w", store.ID, err)
		}

	case TopicStoreAggregateUpdated:
		var agg domain.StoreAggregate
		if err := evt.UnmarshalData(&agg); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", evt.EventType, err)
		}
		return i.reindex(ctx, agg.StoreID)

	case TopicStoreDeleted:
		var data StoreDeletedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", evt.EventType, err)
		}
		if err := i.engine.Delete(ctx, data.ID); err != nil {
			return fmt.Errorf("delete store %s from index: %w", data.ID, err)
		}

	default:
		i.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", evt.EventType),
			slog.String("event_id", evt.EventID),
		)
		return nil
	}

	i.logger.DebugContext(ctx, "search index updated",
		slog.String("event_type", evt.EventType),
		slog.String("store_id", evt.AggregateID),
	)
	return nil
}

// reindex reloads a store so its document carries the committed aggregate.
// A store deleted in the meantime is dropped from the index.
func (i *Indexer) reindex(ctx context.Context, storeID string) error {
	store, err := i.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return i.engine.Delete(ctx, storeID)
		}
		return fmt.Errorf("load store %s: %w", storeID, err)
	}
	if err := i.engine.Index(ctx, store); err != nil {
		return fmt.Errorf("index store %s: %w", storeID, err)
	}
	return nil
}
