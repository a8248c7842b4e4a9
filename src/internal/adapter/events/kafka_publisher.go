package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ledger events to a topic keyed by account id, so the
// events of one account stay on one partition in commit order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            5,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
	}

	logger.Info("kafka publisher created", logger.Fields{
		"brokers": brokers,
		"topic":   topic,
	})
	return newKafkaPublisher(writer, topic)
}

func newKafkaPublisher(writer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AccountID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write ledger event to %s: %w", p.topic, err)
	}

	logger.Info("ledger event published", logger.Fields{
		"driver":    "kafka",
		"topic":     p.topic,
		"type":      event.Type,
		"accountId": event.AccountID,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
