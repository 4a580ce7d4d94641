package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxHandlerRetries bounds handler attempts before a message is dead-lettered
// (or dropped when no DLQ is configured) and committed.
const maxHandlerRetries = 3

// Handler processes one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int
	Metrics  *Metrics
	// DLQ receives messages whose handler failed every retry. Optional.
	DLQ *DLQProducer
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// Consumer reads events for a consumer group and dispatches them to a
// Handler with bounded retries.
type Consumer struct {
	reader       messageReader
	handler      Handler
	group        string
	topics       []string
	dlq          deadLetterPublisher
	metrics      *Metrics
	logger       *slog.Logger
	retryBackoff time.Duration
	closeOnce    sync.Once
}

// NewConsumer creates a consumer subscribed to cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})

	c := &Consumer{
		reader:       r,
		handler:      handler,
		group:        cfg.GroupID,
		topics:       cfg.Topics,
		metrics:      cfg.Metrics,
		logger:       logger,
		retryBackoff: 100 * time.Millisecond,
	}
	if cfg.DLQ != nil {
		c.dlq = cfg.DLQ
	}
	return c
}

// Start consumes until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topics", strings.Join(c.topics, ",")),
		slog.String("group", c.group),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping", slog.String("group", c.group))
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !sleepCtx(ctx, c.retryBackoff) {
				return nil
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process handles one message and commits it. Only commit failures and
// cancellation are returned: handler failures are retried, dead-lettered
// and committed so a poison message cannot stall the partition.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	c.metrics.recordConsumed(msg.Topic, c.group, outcomeReceived)

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
		)
		c.deadLetter(ctx, msg, err)
		return c.reader.CommitMessages(ctx, msg)
	}

	headers := msg.Headers
	ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &headers})
	ctx, span := otel.Tracer("github.com/OmSonawane4/Roxiler-Assignment/pkg/kafka").Start(ctx,
		"consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.String("event.type", event.EventType),
		),
	)
	defer span.End()

	start := time.Now()
	lastErr := c.handleWithRetry(ctx, msg, event)
	c.metrics.observeHandle(msg.Topic, c.group, time.Since(start).Seconds())
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		c.metrics.recordConsumed(msg.Topic, c.group, outcomeFailed)
		c.logger.ErrorContext(ctx, "handler failed after all retries, skipping message",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)
		c.deadLetter(ctx, msg, lastErr)
	} else {
		c.metrics.recordConsumed(msg.Topic, c.group, outcomeProcessed)
	}

	return c.reader.CommitMessages(ctx, msg)
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("attempt", attempt),
		)
		if attempt < maxHandlerRetries && !sleepCtx(ctx, time.Duration(attempt)*c.retryBackoff) {
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		return
	}
	c.metrics.recordConsumed(msg.Topic, c.group, outcomeDeadLetter)
}

// Close closes the reader. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	if err != nil {
		return fmt.Errorf("close consumer: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
