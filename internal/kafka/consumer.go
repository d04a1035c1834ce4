package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer delivers decoded lesson events from one topic to a handler.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume blocks reading lesson events until the context is canceled or
// the handler fails. Messages that do not decode as a LessonEvent are
// skipped rather than poisoning the group.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, LessonEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeLessonEvent(msg.Value)
		if err != nil {
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeLessonEvent(data []byte) (LessonEvent, error) {
	var event LessonEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return LessonEvent{}, fmt.Errorf("decode lesson event: %w", err)
	}
	if event.Type == "" {
		return LessonEvent{}, errors.New("lesson event without type")
	}
	return event, nil
}
