package chatstream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/model"
)

// Greeting opens every conversation.
const Greeting = "Hi I'm your AI assistant. You are welcome to consult me for **detailed product information** " +
	"and **strategic product development advice**. How can I help you today?"

// ErrBusy is returned by Submit while the previous answer is still streaming.
var ErrBusy = errors.New("an answer is still streaming")

var validate = validator.New()

// Asker opens the answer stream of one question. *Client implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*Stream, error)
}

// TurnPublisher receives one event per finished assistant turn.
type TurnPublisher interface {
	PublishChatTurn(ctx context.Context, evt model.ChatTurn) error
}

// Conversation is a chat transcript fed by answer streams. It is safe for
// concurrent use; only one answer streams at a time.
type Conversation struct {
	asker     Asker
	publisher TurnPublisher
	log       logrus.FieldLogger
	onUpdate  func([]model.ChatMessage)

	mu        sync.Mutex
	messages  []model.ChatMessage
	streaming bool
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithTurnPublisher publishes a ChatTurn event after every answer.
func WithTurnPublisher(p TurnPublisher) ConversationOption {
	return func(c *Conversation) { c.publisher = p }
}

// WithConversationLogger sets the logger.
func WithConversationLogger(l logrus.FieldLogger) ConversationOption {
	return func(c *Conversation) { c.log = l }
}

// WithOnUpdate registers a listener receiving a copy of the transcript after
// every change.
func WithOnUpdate(fn func([]model.ChatMessage)) ConversationOption {
	return func(c *Conversation) { c.onUpdate = fn }
}

// NewConversation starts a transcript holding the greeting.
func NewConversation(asker Asker, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		asker: asker,
		log:   logrus.StandardLogger(),
		messages: []model.ChatMessage{{
			ID:      uuid.NewString(),
			Role:    model.RoleAssistant,
			Content: Greeting,
		}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatMessage(nil), c.messages...)
}

// Streaming reports whether an answer is in progress.
func (c *Conversation) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Submit asks question and folds the answer into the transcript. It returns
// when the answer has completed or failed. On failure the assistant message is
// kept, marked as no longer pending, and the error is returned; nothing is
// retried.
func (c *Conversation) Submit(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	// go-playground/validator/v10: question must be at least two characters.
	if err := validate.Struct(model.ChatRequest{Question: question}); err != nil {
		return errors.Wrap(err, "invalid question")
	}

	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrBusy
	}
	c.streaming = true
	assistantID := uuid.NewString()
	c.messages = append(c.messages,
		model.ChatMessage{ID: uuid.NewString(), Role: model.RoleUser, Content: question},
		model.ChatMessage{ID: assistantID, Role: model.RoleAssistant, IsPending: true},
	)
	c.mu.Unlock()
	c.notify()

	log := c.log.WithField("turn", assistantID)
	err := c.stream(ctx, assistantID, question)
	if err != nil {
		log.WithError(err).Warn("stream error")
	}

	answer := c.settle(assistantID)
	c.notify()

	if c.publisher != nil {
		evt := model.ChatTurn{
			TurnID:    assistantID,
			Question:  question,
			Answer:    answer,
			Failed:    err != nil,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}
		if perr := c.publisher.PublishChatTurn(ctx, evt); perr != nil {
			log.WithError(perr).Warn("failed to publish chat turn")
		}
	}
	return err
}

func (c *Conversation) stream(ctx context.Context, assistantID, question string) error {
	stream, err := c.asker.Ask(ctx, question)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		ev := stream.Event()
		if ev.Kind != EventFragment {
			continue
		}
		c.mu.Lock()
		if i := c.indexOf(assistantID); i >= 0 {
			c.messages[i].Content += ev.Text
			c.messages[i].IsPending = false
		}
		c.mu.Unlock()
		c.notify()
	}
	return stream.Err()
}

// settle marks the assistant message as done and returns its content.
func (c *Conversation) settle(assistantID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streaming = false
	i := c.indexOf(assistantID)
	if i < 0 {
		return ""
	}
	c.messages[i].IsPending = false
	return c.messages[i].Content
}

func (c *Conversation) indexOf(id string) int {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversation) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Messages())
}
