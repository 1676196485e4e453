// Package search holds the filtered-search controller: it owns the keyword and
// facet selections, fires a product search whenever they change and makes sure
// that only the response of the latest request ever reaches its state.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/catalog"
	"byproduct-catalog/internal/model"
	"byproduct-catalog/internal/seqguard"
)

// Fetcher runs one product search. *catalog.Client implements it.
type Fetcher interface {
	SearchProducts(ctx context.Context, q model.SearchQuery) (*catalog.SearchResult, error)
}

// EventPublisher receives one event per applied search response.
type EventPublisher interface {
	PublishSearchApplied(ctx context.Context, evt model.SearchApplied) error
}

// State is a point-in-time copy of the controller state. Slices are shared
// with the controller and must be treated as read-only.
type State struct {
	Query        model.SearchQuery
	Products     []model.ProductSummary
	FacetOptions []model.FacetOption
	Loading      bool
	Err          error

	// AppliedKeyword is the keyword of the response that last replaced the
	// facet options.
	AppliedKeyword string
	// Epoch of the last applied response, 0 before the first one.
	Epoch uint64
}

// ErrorText is the user-visible error flag, empty when there is no error.
func (s State) ErrorText() string {
	return apierror.Describe("search", s.Err)
}

// Controller is the filtered-search controller. It is safe for concurrent use.
type Controller struct {
	ctx       context.Context
	fetcher   Fetcher
	publisher EventPublisher
	log       logrus.FieldLogger
	onChange  func(State)

	// opMu serializes query changes so that ticket order matches query order.
	opMu sync.Mutex
	seq  seqguard.Sequencer

	mu             sync.Mutex
	query          model.SearchQuery
	products       []model.ProductSummary
	facetOptions   []model.FacetOption
	loading        bool
	err            error
	appliedKeyword string
	hasApplied     bool
	appliedEpoch   uint64

	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher publishes a SearchApplied event for every applied response.
func WithPublisher(p EventPublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithLogger sets the controller logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithOnChange registers a listener called with a fresh State after every
// state change. Calls are serialized; the listener must not block for long.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithQuery sets the initial query without fetching.
func WithQuery(q model.SearchQuery) Option {
	return func(c *Controller) { c.query = q.Clone() }
}

// NewController creates a controller. Requests run under ctx; cancelling it
// fails the in-flight requests but nothing else aborts them.
func NewController(ctx context.Context, fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		ctx:     ctx,
		fetcher: fetcher,
		log:     logrus.StandardLogger(),
		query:   model.SearchQuery{Selected: map[model.FacetKey][]string{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "search")
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Query:          c.query.Clone(),
		Products:       c.products,
		FacetOptions:   c.facetOptions,
		Loading:        c.loading,
		Err:            c.err,
		AppliedKeyword: c.appliedKeyword,
		Epoch:          c.appliedEpoch,
	}
}

// Epoch returns the ticket of the latest issued request.
func (c *Controller) Epoch() uint64 {
	return uint64(c.seq.Current())
}

// SetKeyword replaces the keyword and refetches when it changed. Callers are
// expected to debounce keystrokes first, see KeywordDebouncer.
func (c *Controller) SetKeyword(keyword string) {
	c.update(func(q model.SearchQuery) (model.SearchQuery, bool) {
		if q.Keyword == keyword {
			return q, false
		}
		return q.WithKeyword(keyword), true
	})
}

// SetFacetSelection replaces the selected ids of one facet, keeps the other
// facets and refetches.
func (c *Controller) SetFacetSelection(key model.FacetKey, ids []string) {
	c.update(func(q model.SearchQuery) (model.SearchQuery, bool) {
		return q.WithFacet(key, ids), true
	})
}

// ToggleFacetValue adds id to the selection of key, or removes it when it is
// already selected, then refetches.
func (c *Controller) ToggleFacetValue(key model.FacetKey, id string) {
	c.update(func(q model.SearchQuery) (model.SearchQuery, bool) {
		current := q.SelectedIDs(key)
		next := make([]string, 0, len(current)+1)
		found := false
		for _, v := range current {
			if v == id {
				found = true
				continue
			}
			next = append(next, v)
		}
		if !found {
			next = append(next, id)
		}
		return q.WithFacet(key, next), true
	})
}

// ClearAll drops every facet selection and refetches. The keyword is kept.
func (c *Controller) ClearAll() {
	c.update(func(q model.SearchQuery) (model.SearchQuery, bool) {
		return q.Cleared(), true
	})
}

// Refresh refetches the current query. Identical queries are never served
// from a cache.
func (c *Controller) Refresh() {
	c.update(func(q model.SearchQuery) (model.SearchQuery, bool) {
		return q, true
	})
}

// Wait blocks until every issued request has resolved, stale ones included.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) update(change func(model.SearchQuery) (model.SearchQuery, bool)) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	next, changed := change(c.query)
	if !changed {
		c.mu.Unlock()
		return
	}
	c.query = next
	c.mu.Unlock()

	ticket := c.seq.Issue()
	c.seq.Commit(ticket, func() {
		c.mu.Lock()
		c.loading = true
		c.err = nil
		c.mu.Unlock()
	})
	c.notify()

	c.inflight.Add(1)
	go c.run(ticket, next.Clone())
}

func (c *Controller) run(ticket seqguard.Ticket, q model.SearchQuery) {
	defer c.inflight.Done()

	log := c.log.WithFields(logrus.Fields{"epoch": uint64(ticket), "keyword": q.Keyword})
	log.Debug("search request issued")

	res, err := c.fetcher.SearchProducts(c.ctx, q)
	if res == nil && err == nil {
		res = &catalog.SearchResult{}
	}

	var evt *model.SearchApplied
	applied := c.seq.Commit(ticket, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.loading = false
		if err != nil {
			// Previously loaded products stay visible.
			c.err = err
			return
		}
		c.err = nil
		c.products = model.Summaries(res.Products)
		if !c.hasApplied || c.appliedKeyword != q.Keyword {
			c.facetOptions = res.FilterOptions
			c.appliedKeyword = q.Keyword
			c.hasApplied = true
		}
		c.appliedEpoch = uint64(ticket)
		evt = &model.SearchApplied{
			Keyword:      q.Keyword,
			Facets:       q.Selected,
			Epoch:        uint64(ticket),
			ProductCount: len(c.products),
			Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		}
	})
	if !applied {
		log.Debug("discarding stale search response")
		return
	}
	if err != nil {
		log.WithError(err).WithField("kind", apierror.KindOf(err).String()).Warn("search failed")
	}
	c.notify()

	if evt != nil && c.publisher != nil {
		if perr := c.publisher.PublishSearchApplied(c.ctx, *evt); perr != nil {
			log.WithError(perr).Warn("failed to publish search event")
		}
	}
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.onChange(c.Snapshot())
}
