package search

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/apierror"
	"byproduct-catalog/internal/catalog"
	"byproduct-catalog/internal/model"
)

type reply struct {
	res *catalog.SearchResult
	err error
}

type pendingCall struct {
	query model.SearchQuery
	reply chan reply
}

// fakeFetcher parks every request until the test resolves it, so tests decide
// the completion order.
type fakeFetcher struct {
	calls chan *pendingCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *pendingCall, 16)}
}

func (f *fakeFetcher) SearchProducts(ctx context.Context, q model.SearchQuery) (*catalog.SearchResult, error) {
	call := &pendingCall{query: q, reply: make(chan reply, 1)}
	f.calls <- call
	r := <-call.reply
	return r.res, r.err
}

func (f *fakeFetcher) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a search request")
		return nil
	}
}

func (f *fakeFetcher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected search request %+v", call.query)
	case <-time.After(50 * time.Millisecond):
	}
}

func result(ids []string, options ...model.FacetOption) *catalog.SearchResult {
	res := &catalog.SearchResult{FilterOptions: options}
	for _, id := range ids {
		res.Products = append(res.Products, model.Product{ProductID: id, ProductName: "product " + id})
	}
	return res
}

func productIDs(s State) []string {
	ids := make([]string, 0, len(s.Products))
	for _, p := range s.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

func waitIdle(t *testing.T, c *Controller) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); !s.Loading {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("controller still loading")
	return State{}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestController(f Fetcher, opts ...Option) *Controller {
	return NewController(context.Background(), f, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestStaleResponseNeverOverwritesNewer(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	c.SetFacetSelection(model.FacetCategory, []string{"c1"})
	older := f.next(t)
	c.SetKeyword("bran")
	newer := f.next(t)

	// The newer request resolves first.
	newer.reply <- reply{res: result([]string{"new"})}
	s := waitIdle(t, c)
	if got := productIDs(s); len(got) != 1 || got[0] != "new" {
		t.Fatalf("expected newer products, got %v", got)
	}

	older.reply <- reply{res: result([]string{"old"})}
	c.Wait()

	s = c.Snapshot()
	if got := productIDs(s); len(got) != 1 || got[0] != "new" {
		t.Fatalf("stale response was applied: %v", got)
	}
	if s.Epoch != c.Epoch() {
		t.Fatalf("applied epoch %d, latest %d", s.Epoch, c.Epoch())
	}
}

func TestLoadingTracksLatestRequestOnly(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	c.Refresh()
	first := f.next(t)
	c.SetKeyword("okara")
	second := f.next(t)

	if !c.Snapshot().Loading {
		t.Fatal("expected loading while the latest request is unresolved")
	}

	first.reply <- reply{res: result([]string{"a"})}
	time.Sleep(20 * time.Millisecond)
	if !c.Snapshot().Loading {
		t.Fatal("a stale response must not clear loading")
	}

	second.reply <- reply{res: result([]string{"b"})}
	if s := waitIdle(t, c); s.Loading {
		t.Fatal("loading should clear when the latest response resolves")
	}
	c.Wait()
}

func TestFacetOptionsOnlyReplacedWhenKeywordChanges(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	initial := model.FacetOption{Key: model.FacetCategory, Values: []model.FacetValue{{ID: "c1"}, {ID: "c2"}}}
	narrowed := model.FacetOption{Key: model.FacetCategory, Values: []model.FacetValue{{ID: "c1"}}}

	c.Refresh()
	f.next(t).reply <- reply{res: result([]string{"p1", "p2"}, initial)}
	s := waitIdle(t, c)
	if len(s.FacetOptions) != 1 || len(s.FacetOptions[0].Values) != 2 {
		t.Fatalf("first response must set facet options, got %+v", s.FacetOptions)
	}

	// Changing only a facet keeps the option lists stable.
	c.SetFacetSelection(model.FacetCategory, []string{"c1"})
	f.next(t).reply <- reply{res: result([]string{"p1"}, narrowed)}
	s = waitIdle(t, c)
	if len(s.FacetOptions[0].Values) != 2 {
		t.Fatalf("facet-only change replaced options: %+v", s.FacetOptions)
	}
	if s.AppliedKeyword != "" {
		t.Fatalf("applied keyword changed to %q", s.AppliedKeyword)
	}
	if got := productIDs(s); len(got) != 1 || got[0] != "p1" {
		t.Fatalf("products not updated: %v", got)
	}

	// A keyword change replaces them.
	c.SetKeyword("bran")
	f.next(t).reply <- reply{res: result([]string{"p1"}, narrowed)}
	s = waitIdle(t, c)
	if len(s.FacetOptions[0].Values) != 1 || s.AppliedKeyword != "bran" {
		t.Fatalf("keyword change must replace options, got %+v (%q)", s.FacetOptions, s.AppliedKeyword)
	}
	c.Wait()
}

func TestErrorKeepsPreviousProducts(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	c.Refresh()
	f.next(t).reply <- reply{res: result([]string{"p1"})}
	waitIdle(t, c)

	c.SetFacetSelection(model.FacetSupplier, []string{"s1"})
	f.next(t).reply <- reply{err: &apierror.HTTPStatusError{Op: "search products", StatusCode: 503}}
	s := waitIdle(t, c)

	if apierror.KindOf(s.Err) != apierror.KindHTTPStatus {
		t.Fatalf("expected http status error, got %v", s.Err)
	}
	if s.ErrorText() == "" {
		t.Fatal("expected a user-visible error flag")
	}
	if got := productIDs(s); len(got) != 1 || got[0] != "p1" {
		t.Fatalf("previous products must be kept, got %v", got)
	}

	// The next request clears the error flag.
	c.ClearAll()
	if s := c.Snapshot(); s.Err != nil || !s.Loading {
		t.Fatalf("new request should reset error and set loading, got %+v", s)
	}
	f.next(t).reply <- reply{res: result([]string{"p1", "p2"})}
	waitIdle(t, c)
	c.Wait()
}

func TestStaleErrorIsIgnored(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	c.Refresh()
	older := f.next(t)
	c.SetKeyword("x")
	newer := f.next(t)

	older.reply <- reply{err: apierror.Network("search products", errors.New("reset"))}
	newer.reply <- reply{res: result([]string{"p1"})}
	c.Wait()

	if s := c.Snapshot(); s.Err != nil {
		t.Fatalf("stale error surfaced: %v", s.Err)
	}
}

func TestSameQueryIsFetchedAgain(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	for i := 0; i < 2; i++ {
		c.SetFacetSelection(model.FacetForm, []string{"f1"})
		call := f.next(t)
		if ids := call.query.SelectedIDs(model.FacetForm); len(ids) != 1 || ids[0] != "f1" {
			t.Fatalf("unexpected query %+v", call.query)
		}
		call.reply <- reply{res: result(nil)}
		waitIdle(t, c)
	}

	// An unchanged keyword is not a change.
	c.SetKeyword("")
	f.expectNone(t)
	c.Wait()
}

func TestToggleFacetValue(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	c.ToggleFacetValue(model.FacetApplication, "a1")
	f.next(t).reply <- reply{res: result(nil)}
	c.ToggleFacetValue(model.FacetApplication, "a2")
	f.next(t).reply <- reply{res: result(nil)}
	c.ToggleFacetValue(model.FacetApplication, "a1")
	call := f.next(t)
	call.reply <- reply{res: result(nil)}
	c.Wait()

	ids := call.query.SelectedIDs(model.FacetApplication)
	if len(ids) != 1 || ids[0] != "a2" {
		t.Fatalf("expected [a2], got %v", ids)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.SearchApplied
}

func (p *recordingPublisher) PublishSearchApplied(ctx context.Context, evt model.SearchApplied) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func TestPublishesOnlyAppliedResponses(t *testing.T) {
	f := newFakeFetcher()
	pub := &recordingPublisher{}
	var changes int
	var changesMu sync.Mutex
	c := newTestController(f, WithPublisher(pub), WithOnChange(func(State) {
		changesMu.Lock()
		changes++
		changesMu.Unlock()
	}))

	c.Refresh()
	stale := f.next(t)
	c.SetKeyword("hull")
	fresh := f.next(t)
	fresh.reply <- reply{res: result([]string{"p1", "p2"})}
	stale.reply <- reply{res: result([]string{"p3"})}
	c.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Keyword != "hull" || evt.ProductCount != 2 || evt.Epoch != 2 {
		t.Fatalf("unexpected event %+v", evt)
	}

	changesMu.Lock()
	defer changesMu.Unlock()
	if changes != 3 {
		t.Fatalf("expected 3 change notifications (2 issues, 1 apply), got %d", changes)
	}
}
