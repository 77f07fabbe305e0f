// Package kafka implements the EventPublisher port on top of sarama.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/config"
)

// Producer publishes outbox events and waits for broker acknowledgement.
type Producer struct {
	producer    sarama.SyncProducer
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewProducer builds a synchronous producer that waits for acks from all
// in-sync replicas, bounded by sendTimeout.
func NewProducer(cfg config.KafkaConfig, sendTimeout time.Duration, logger *slog.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	// Idempotent production needs at least the 0.11 protocol.
	saramaCfg.Version = sarama.V2_1_0_0
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Net.MaxOpenRequests = 1
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	saramaCfg.Producer.Timeout = sendTimeout
	saramaCfg.Net.DialTimeout = sendTimeout
	saramaCfg.Net.WriteTimeout = sendTimeout
	saramaCfg.Net.ReadTimeout = sendTimeout

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("kafka producer ready", "brokers", cfg.Brokers, "client_id", cfg.ClientID)

	return &Producer{
		producer:    producer,
		sendTimeout: sendTimeout,
		logger:      logger,
	}, nil
}

// Publish sends one message and blocks until the broker acknowledges it or
// the producer timeouts fire. key selects the partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka publish to %s failed: %w", topic, err)
	}

	p.logger.Debug("published event",
		"topic", topic,
		"key", key,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

var _ application.EventPublisher = (*Producer)(nil)
