package chatstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/catalog"
	"byproduct-catalog/internal/model"
)

const pathChat = "/chat"

// Client posts questions to the chat endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default one has no timeout:
// the stream lasts as long as the server keeps answering.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for skipped lines and failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a chat client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	normalized, err := catalog.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:   normalized + pathChat,
		httpClient: &http.Client{},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "chat")
	return c, nil
}

// Stream is the answer to one question. It must be closed.
type Stream struct {
	*Decoder
	body   io.ReadCloser
	cancel context.CancelFunc
}

// Close stops reading and releases the connection. Closing before the stream
// completed cancels the request.
func (s *Stream) Close() error {
	s.cancel()
	return s.body.Close()
}

// Ask sends one question. A non-2xx status fails before any byte of the body
// is decoded.
func (c *Client) Ask(ctx context.Context, question string) (*Stream, error) {
	const op = "chat"

	body, err := sonic.Marshal(model.ChatRequest{Question: question})
	if err != nil {
		return nil, apierror.Unknown(op, fmt.Errorf("failed to marshal request: %w", err))
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, apierror.Unknown(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.log.WithError(err).Warn("network issue or server did not respond")
		return nil, apierror.Network(op, err)
	}
	if err := apierror.CheckStatus(op, resp); err != nil {
		resp.Body.Close()
		cancel()
		c.log.WithField("status", resp.StatusCode).Warn(err.Error())
		return nil, err
	}

	return &Stream{
		Decoder: NewDecoder(resp.Body, c.log),
		body:    resp.Body,
		cancel:  cancel,
	}, nil
}

// Handlers receive the events of one answer in order. Nil handlers are
// skipped. OnStart fires for every start status the server sends.
type Handlers struct {
	OnStart    func()
	OnMessage  func(fragment string)
	OnComplete func()
}

// AskWithHandlers drives one question to the end, dispatching every event to
// h. It returns once the stream completed, ended or failed.
func (c *Client) AskWithHandlers(ctx context.Context, question string, h Handlers) error {
	stream, err := c.Ask(ctx, question)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		ev := stream.Event()
		switch ev.Kind {
		case EventStart:
			if h.OnStart != nil {
				h.OnStart()
			}
		case EventFragment:
			if h.OnMessage != nil {
				h.OnMessage(ev.Text)
			}
		case EventComplete:
			if h.OnComplete != nil {
				h.OnComplete()
			}
		}
	}
	return stream.Err()
}
