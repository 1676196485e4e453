// Package mockapi serves a development copy of the catalog API from a static
// fixture catalog. It can delay and fail requests on purpose so that stale
// and failed responses can be reproduced against the real clients.
package mockapi

import (
	"context"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/model"
)

// DefaultChatDelay is the pause between two streamed fragments.
const DefaultChatDelay = 50 * time.Millisecond

// Server handles the catalog endpoints.
type Server struct {
	store     Store
	log       logrus.FieldLogger
	latency   time.Duration
	jitter    time.Duration
	failRate  float64
	chatDelay time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every catalog and chat request by d.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithJitter adds a random extra delay in [0, d) per request, which makes
// responses come back out of order.
func WithJitter(d time.Duration) Option {
	return func(s *Server) { s.jitter = d }
}

// WithFailRate answers the given fraction of requests with HTTP 500.
func WithFailRate(rate float64) Option {
	return func(s *Server) { s.failRate = rate }
}

// WithChatDelay sets the pause between streamed chat fragments.
func WithChatDelay(d time.Duration) Option {
	return func(s *Server) { s.chatDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithSeed makes jitter and failures reproducible.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = rand.New(rand.NewSource(seed)) }
}

// NewServer creates a server over store.
func NewServer(store Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		log:       logrus.StandardLogger(),
		chatDelay: DefaultChatDelay,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "mockapi")
	return s
}

// RegisterRoutes wires the API routes onto r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.simulate)
	api.HandleFunc("/products-with-filter", s.productsWithFilterHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.productHandler).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.chatHandler).Methods(http.MethodPost)
}

// Handler returns a router serving every route.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// simulate applies the configured latency, jitter and failure rate.
func (s *Server) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delay, fail := s.roll()
		if err := sleepCtx(r.Context(), delay); err != nil {
			return
		}
		if fail {
			s.log.WithField("path", r.URL.Path).Info("simulated failure")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) roll() (time.Duration, bool) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	delay := s.latency
	if s.jitter > 0 {
		delay += time.Duration(s.rng.Int63n(int64(s.jitter)))
	}
	return delay, s.failRate > 0 && s.rng.Float64() < s.failRate
}

type productsResponse struct {
	Products      []model.Product     `json:"products"`
	FilterOptions []model.FacetOption `json:"filterOptions"`
}

// productsWithFilterHandler handles GET /products-with-filter.
func (s *Server) productsWithFilterHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Products(r.Context())
	if err != nil {
		s.log.WithError(err).Error("catalog unavailable")
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}

	params := r.URL.Query()
	selected := make(map[model.FacetKey][]string)
	for _, key := range model.AllFacetKeys {
		if ids := params[string(key)]; len(ids) > 0 {
			selected[key] = ids
		}
	}
	keyword := params.Get("keyword")

	matched := FilterProducts(products, keyword, selected)
	s.log.WithFields(logrus.Fields{
		"keyword": keyword,
		"facets":  len(selected),
		"matched": len(matched),
	}).Debug("products-with-filter")

	writeJSON(w, http.StatusOK, productsResponse{
		Products:      matched,
		FilterOptions: BuildFacetOptions(matched),
	})
}

// productHandler handles GET /products/{id}.
func (s *Server) productHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	products, err := s.store.Products(r.Context())
	if err != nil {
		s.log.WithError(err).Error("catalog unavailable")
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	for _, p := range products {
		if p.ProductID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Product not found"})
}

type chatLine struct {
	Status string `json:"status,omitempty"`
	M      string `json:"m,omitempty"`
}

// chatHandler handles POST /chat with a line-delimited JSON stream.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := validate.Struct(req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	products, err := s.store.Products(r.Context())
	if err != nil {
		s.log.WithError(err).Error("catalog unavailable")
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	answer := composeAnswer(req.Question, retrieve(products, req.Question))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	send := func(line chatLine) bool {
		data, err := sonic.Marshal(line)
		if err != nil {
			return false
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	if !send(chatLine{Status: "start"}) {
		return
	}
	for _, frag := range fragments(answer) {
		if err := sleepCtx(r.Context(), s.chatDelay); err != nil {
			return
		}
		if !send(chatLine{M: frag}) {
			return
		}
	}
	send(chatLine{Status: "complete"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(v)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
