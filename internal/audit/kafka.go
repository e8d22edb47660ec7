package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON, keyed by user id so one user's events
// stay ordered within a partition.
type KafkaSink struct {
	w            MessageWriter
	topic        string
	writeTimeout time.Duration
	log          *zap.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(w MessageWriter, topic string, writeTimeout time.Duration, log *zap.Logger) *KafkaSink {
	if log == nil {
		log = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaSink{
		w:            w,
		topic:        topic,
		writeTimeout: writeTimeout,
		log:          log.With(zap.String("component", "audit.kafka"), zap.String("topic", topic)),
	}
}

func (s *KafkaSink) Emit(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		s.log.Error("audit marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	ctx, span := otel.Tracer("audit.kafka").Start(ctx, "kafka.produce "+s.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", s.topic),
			attribute.String("audit.event_type", e.EventType),
		),
	)
	defer span.End()

	msg := kafka.Message{Key: []byte(e.UserID), Value: value}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		s.log.Error("kafka write failed", zap.String("event_type", e.EventType), zap.Error(err))
		return
	}
	s.log.Debug("audit event published", zap.String("event_type", e.EventType), zap.Int("value_len", len(value)))
}

func (s *KafkaSink) Close() error { return s.w.Close() }
