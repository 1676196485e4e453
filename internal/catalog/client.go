package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/model"
)

const (
	pathProductsWithFilter = "/products-with-filter"
	pathProduct            = "/products/%s"

	// DefaultTimeout bounds every catalog request.
	DefaultTimeout = 3 * time.Second
)

// go-playground/validator/v10: checks decoded API payloads against struct tags.
var validate = validator.New()

// SearchResult is the body of GET /products-with-filter.
type SearchResult struct {
	Products      []model.Product     `json:"products" validate:"dive"`
	FilterOptions []model.FacetOption `json:"filterOptions" validate:"dive"`
}

// Client talks to the catalog REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport settings. The client is copied, so
// WithTimeout never changes hc itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout, body read included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    normalized,
		httpClient: &http.Client{},
		log:        logrus.StandardLogger(),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c, nil
}

// NormalizeBaseURL adds a missing scheme and strips the trailing slash. A path
// prefix such as /api is kept.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid API URL %q", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchProducts fetches the products matching q together with the facet
// options available in that search context.
func (c *Client) SearchProducts(ctx context.Context, q model.SearchQuery) (*SearchResult, error) {
	endpoint := c.baseURL + pathProductsWithFilter
	if raw := EncodeQuery(q); raw != "" {
		endpoint += "?" + raw
	}

	var result SearchResult
	if err := c.getJSON(ctx, "search products", endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProduct fetches the full record of one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apierror.Unknown("get product", fmt.Errorf("product id is required"))
	}
	endpoint := c.baseURL + fmt.Sprintf(pathProduct, url.PathEscape(id))

	var product model.Product
	if err := c.getJSON(ctx, "get product", endpoint, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apierror.Unknown(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("network issue or server did not respond")
		return apierror.Network(op, err)
	}
	defer resp.Body.Close()

	if err := apierror.CheckStatus(op, resp); err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Warn(err.Error())
		return err
	}

	// A body cut short by the peer or the timeout is a network failure, not a
	// malformed response.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("connection lost while reading response")
		return apierror.Network(op, err)
	}
	if err := sonic.ConfigStd.Unmarshal(body, out); err != nil {
		c.log.WithError(err).WithField("op", op).Warn("failed to decode response")
		return apierror.Unknown(op, fmt.Errorf("failed to decode response: %w", err))
	}

	// go-playground/validator/v10: rejects records missing required ids.
	if err := validate.Struct(out); err != nil {
		return apierror.Unknown(op, fmt.Errorf("invalid response: %w", err))
	}
	return nil
}
