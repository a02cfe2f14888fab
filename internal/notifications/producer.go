package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"pujasetu/internal/shared/config"
	"pujasetu/pkg/logger"
)

// Sender publishes notifications. Implementations must be safe for
// concurrent use; callers treat Send as fire-and-forget and never fail a
// financial operation on a send error.
type Sender interface {
	Send(ctx context.Context, notification *Notification) error
	Close() error
}

// KafkaSender publishes notifications to a Kafka topic via a sync producer.
type KafkaSender struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaSender creates a Kafka-backed sender from broker configuration.
func NewKafkaSender(cfg config.KafkaConfig, log *logger.Logger) (*KafkaSender, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaSender{
		producer: producer,
		topic:    cfg.NotificationTopic,
		log:      log,
	}, nil
}

// Send publishes a single notification. Failures are logged and returned,
// but callers on payment paths ignore the error after logging.
func (s *KafkaSender) Send(ctx context.Context, notification *Notification) error {
	payload, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     s.topic,
		Key:       sarama.StringEncoder(notification.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   s.headers(notification),
		Timestamp: notification.CreatedAt,
	}

	partition, offset, err := s.producer.SendMessage(message)
	if err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish notification", err, map[string]interface{}{
			"notification_id":   notification.ID.String(),
			"notification_type": string(notification.Type),
		})
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	s.log.InfoWithContext(ctx, "notification published", map[string]interface{}{
		"notification_id":   notification.ID.String(),
		"notification_type": string(notification.Type),
		"partition":         partition,
		"offset":            offset,
	})
	return nil
}

func (s *KafkaSender) headers(notification *Notification) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(notification.ID.String())},
		{Key: []byte("notification_type"), Value: []byte(notification.Type)},
		{Key: []byte("recipient_id"), Value: []byte(notification.RecipientID.String())},
		{Key: []byte("created_at"), Value: []byte(notification.CreatedAt.Format(time.RFC3339))},
	}
	if notification.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("booking_id"),
			Value: []byte(notification.BookingID.String()),
		})
	}
	return headers
}

// Close shuts down the underlying producer.
func (s *KafkaSender) Close() error {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NopSender discards notifications. Used when the broker is disabled and in
// tests.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, notification *Notification) error { return nil }
func (NopSender) Close() error                                               { return nil }
