package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

var tracer = otel.Tracer("adapter/events")

// Publisher emits domain events. Delivery is best effort: callers log
// failures but never roll back state because of them.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event model.OrderEvent) error
	PublishUserEvent(ctx context.Context, event model.UserEvent) error
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON encoded events keyed by aggregate id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		topic:  topic,
		logger: logger,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event model.OrderEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, string(event.Type), "order-"+strconv.FormatInt(event.OrderID, 10), event)
}

func (p *KafkaPublisher) PublishUserEvent(ctx context.Context, event model.UserEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, string(event.Type), "user-"+strconv.FormatInt(event.UserID, 10), event)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.topic),
			attribute.String("messaging.kafka.message.key", key),
			attribute.String("event.type", eventType),
		),
	)
	defer span.End()

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(eventType)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the application log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderEvent(_ context.Context, event model.OrderEvent) error {
	p.logger.Info("order event",
		slog.String("type", string(event.Type)),
		slog.Int64("order_id", event.OrderID),
		slog.String("status", string(event.Status)),
	)
	return nil
}

func (p *LogPublisher) PublishUserEvent(_ context.Context, event model.UserEvent) error {
	p.logger.Info("user event",
		slog.String("type", string(event.Type)),
		slog.Int64("user_id", event.UserID),
		slog.String("verification_link", event.VerificationLink),
	)
	return nil
}
