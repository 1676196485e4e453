package kstream

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// kafkaReader creates a consumer-group reader for topic.
func kafkaReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// Tail reads topic until ctx is done and hands every message to fn. A nil
// return after cancellation is the normal way out.
func Tail(ctx context.Context, broker, topic, groupID string, fn func(kafka.Message) error) error {
	reader := kafkaReader(broker, topic, groupID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "read %s", topic)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
