package kstream

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/model"
)

// Topics written by the publisher.
const (
	TopicSearchApplied = "catalog.search.applied"
	TopicChatTurns     = "catalog.chat.turns"
)

// Topics lists every topic the publisher writes to.
var Topics = []string{TopicSearchApplied, TopicChatTurns}

// kafkaWriter constructs an async Kafka producer for one topic. Async writes
// never return delivery errors, so they are reported through Completion.
func kafkaWriter(broker, topic string, log logrus.FieldLogger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion:   logDeliveryFailures(log, topic),
	}
}

// logDeliveryFailures builds a kafka.Writer Completion callback warning about
// batches the broker did not accept.
func logDeliveryFailures(log logrus.FieldLogger, topic string) func([]kafka.Message, error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		log.WithError(err).WithFields(logrus.Fields{
			"topic":    topic,
			"messages": len(messages),
		}).Warn("failed to deliver events")
	}
}

// Publisher sends search and chat events to Kafka. It satisfies
// search.EventPublisher and chatstream.TurnPublisher.
type Publisher struct {
	search *kafka.Writer
	chat   *kafka.Writer
}

// NewPublisher creates writers for broker. Writers connect lazily, so an
// unreachable broker only shows up as delivery failures logged to log.
func NewPublisher(broker string, log logrus.FieldLogger) *Publisher {
	log = log.WithField("component", "kstream")
	return &Publisher{
		search: kafkaWriter(broker, TopicSearchApplied, log),
		chat:   kafkaWriter(broker, TopicChatTurns, log),
	}
}

// PublishSearchApplied sends evt to catalog.search.applied.
func (p *Publisher) PublishSearchApplied(ctx context.Context, evt model.SearchApplied) error {
	msg, err := searchAppliedMessage(evt)
	if err != nil {
		return err
	}
	return errors.Wrap(p.search.WriteMessages(ctx, msg), "publish search applied")
}

// PublishChatTurn sends evt to catalog.chat.turns.
func (p *Publisher) PublishChatTurn(ctx context.Context, evt model.ChatTurn) error {
	msg, err := chatTurnMessage(evt)
	if err != nil {
		return err
	}
	return errors.Wrap(p.chat.WriteMessages(ctx, msg), "publish chat turn")
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	errSearch := p.search.Close()
	errChat := p.chat.Close()
	if errSearch != nil {
		return errSearch
	}
	return errChat
}

// searchAppliedMessage keys by keyword so one keyword's history stays on one
// partition.
func searchAppliedMessage(evt model.SearchApplied) (kafka.Message, error) {
	data, err := sonic.Marshal(evt)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal search applied")
	}
	return kafka.Message{
		Key:   []byte(evt.Keyword),
		Value: data,
		Time:  time.Now(),
	}, nil
}

func chatTurnMessage(evt model.ChatTurn) (kafka.Message, error) {
	data, err := sonic.Marshal(evt)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal chat turn")
	}
	return kafka.Message{
		Key:   []byte(evt.TurnID),
		Value: data,
		Time:  time.Now(),
	}, nil
}
