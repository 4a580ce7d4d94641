package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pkgkafka "github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka"
)

// LocalPublisher delivers events to in-process handlers synchronously. It
// stands in for Kafka when no brokers are configured so the search index
// still follows store changes.
type LocalPublisher struct {
	mu       sync.RWMutex
	handlers map[string][]pkgkafka.Handler
	logger   *slog.Logger
}

// NewLocalPublisher creates a publisher with no subscribers.
func NewLocalPublisher(logger *slog.Logger) *LocalPublisher {
	return &LocalPublisher{handlers: make(map[string][]pkgkafka.Handler), logger: logger}
}

// Subscribe registers h for every topic in topics.
func (p *LocalPublisher) Subscribe(h pkgkafka.Handler, topics ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range topics {
		p.handlers[t] = append(p.handlers[t], h)
	}
}

// Publish runs every handler subscribed to topic and joins their errors.
func (p *LocalPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	p.mu.RLock()
	handlers := p.handlers[topic]
	p.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handle %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}
