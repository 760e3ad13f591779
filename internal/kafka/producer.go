package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

// NewProducer hashes on the message key so every event for one menu lands on
// the same partition, and waits for all in-sync replicas. Writes are async:
// PublishVoteCast only queues, and delivery is reported through completed.
func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	p := &Producer{topic: topic, log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

func (p *Producer) completed(messages []kafka.Message, err error) {
	for _, m := range messages {
		if err != nil {
			p.log.Error("KAFKA", fmt.Sprintf("delivery to %s failed for menu %s: %v", p.topic, m.Key, err))
			continue
		}
		p.log.LogKafka("DELIVERED", p.topic, fmt.Sprintf("menu %s offset %d", m.Key, m.Offset))
	}
}

// PublishVoteCast queues the vote event for Kafka.
func (p *Producer) PublishVoteCast(ctx context.Context, ev models.VoteCastEvent) error {
	msgBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.MenuID, 10)),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.log.LogKafka("QUEUED", p.topic, fmt.Sprintf("vote %d for menu %d", ev.VoteID, ev.MenuID))
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
