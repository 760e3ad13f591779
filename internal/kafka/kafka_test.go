package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"

	"github.com/fatih/color"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs []kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) Close() error { return nil }

var event = models.VoteCastEvent{
	VoteID:       5,
	UserID:       "u1",
	MenuID:       42,
	RestaurantID: 3,
	MenuDate:     "2026-10-16",
	CastAt:       time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC),
}

func TestPublishVoteCast(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "lunch.vote.cast", log: logger.New(io.Discard, "test")}

	require.NoError(t, p.PublishVoteCast(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var got models.VoteCastEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, event, got)

	w.err = errors.New("leader not available")
	assert.Error(t, p.PublishVoteCast(context.Background(), event))
}

func TestConsumerRun(t *testing.T) {
	value, err := json.Marshal(event)
	require.NoError(t, err)
	r := &fakeReader{msgs: []kafka.Message{
		{Value: []byte("not json"), Offset: 1},
		{Value: value, Offset: 2},
	}}
	c := &Consumer{reader: r, topic: "lunch.vote.cast", log: logger.New(io.Discard, "test")}

	var seen []models.VoteCastEvent
	err = c.Run(context.Background(), func(ev models.VoteCastEvent) {
		seen = append(seen, ev)
	})
	require.NoError(t, err)
	assert.Equal(t, []models.VoteCastEvent{event}, seen)
}

func TestNewProducerDoesNotBlockOnDelivery(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "lunch.vote.cast", logger.New(io.Discard, "test"))
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

func TestCompletedLogsDeliveryOutcome(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	p := &Producer{topic: "lunch.vote.cast", log: logger.New(&buf, "test")}

	p.completed([]kafka.Message{{Key: []byte("42"), Offset: 7}}, nil)
	assert.Contains(t, buf.String(), "[DELIVERED] lunch.vote.cast - menu 42 offset 7")

	buf.Reset()
	p.completed([]kafka.Message{{Key: []byte("42")}}, errors.New("leader not available"))
	assert.Contains(t, buf.String(), "delivery to lunch.vote.cast failed for menu 42: leader not available")
}
