package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer follows the vote.cast topic. The service runs one to keep an
// audit trail of committed votes in its log.
type Consumer struct {
	reader messageReader
	topic  string
	log    *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	return &Consumer{reader: reader, topic: topic, log: log}
}

// Run reads events until ctx is canceled or the reader is closed.
// Undecodable messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(models.VoteCastEvent)) error {
	c.log.LogKafka("START", c.topic, "consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.log.LogKafka("STOP", c.topic, "consumer stopped")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		var ev models.VoteCastEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}
		handle(ev)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
