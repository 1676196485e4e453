package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"byproduct-catalog/internal/mockapi"
)

var serveFlags struct {
	addr      string
	latency   time.Duration
	jitter    time.Duration
	failRate  float64
	chatDelay time.Duration
	seedRedis bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the mock catalog API",
	Long: `Serve /products-with-filter, /products/{id} and /chat from a fixture
catalog. The catalog comes from Redis when BPCAT_REDIS_ADDR is set, else from
the JSONL file in BPCAT_FIXTURE_PATH, else from the built-in fixture.

Latency, jitter and the failure rate make it easy to reproduce out-of-order
and failed responses.`,
	Example: `  $ bpcat serve --addr :9090 --jitter 800ms --fail-rate 0.1`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (env BPCAT_MOCK_ADDR)")
	f.DurationVar(&serveFlags.latency, "latency", -1, "fixed delay per request (env BPCAT_MOCK_LATENCY)")
	f.DurationVar(&serveFlags.jitter, "jitter", -1, "random extra delay per request (env BPCAT_MOCK_JITTER)")
	f.Float64Var(&serveFlags.failRate, "fail-rate", 0, "fraction of requests answered with HTTP 500")
	f.DurationVar(&serveFlags.chatDelay, "chat-delay", mockapi.DefaultChatDelay, "pause between chat fragments")
	f.BoolVar(&serveFlags.seedRedis, "seed-redis", false, "copy the file or built-in fixture into Redis before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.MockAddr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}
	latency, jitter := cfg.MockLatency, cfg.MockJitter
	if serveFlags.latency >= 0 {
		latency = serveFlags.latency
	}
	if serveFlags.jitter >= 0 {
		jitter = serveFlags.jitter
	}

	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		log.WithError(err).Error("failed to open catalog")
		return reported(err)
	}
	defer closeStore()

	srv := mockapi.NewServer(store,
		mockapi.WithLogger(log),
		mockapi.WithLatency(latency),
		mockapi.WithJitter(jitter),
		mockapi.WithFailRate(serveFlags.failRate),
		mockapi.WithChatDelay(serveFlags.chatDelay),
	)

	r := mux.NewRouter()
	srv.RegisterRoutes(r)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		<-cmd.Context().Done()
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	log.WithFields(logrus.Fields{
		"addr":    addr,
		"latency": latency,
		"jitter":  jitter,
	}).Info("mock catalog API listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// openStore picks the catalog source from the configuration.
func openStore(ctx context.Context) (mockapi.Store, func(), error) {
	var fixture mockapi.Store = mockapi.NewEmbeddedStore(log)
	if cfg.FixturePath != "" {
		fixture = mockapi.NewFileStore(cfg.FixturePath, log)
	}
	if cfg.RedisAddr == "" {
		return fixture, func() {}, nil
	}

	rs := mockapi.NewRedisStore(cfg.RedisAddr, cfg.RedisKey)
	closeStore := func() {
		if err := rs.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis")
		}
	}
	if serveFlags.seedRedis {
		products, err := fixture.Products(ctx)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		if err := rs.Seed(ctx, products); err != nil {
			closeStore()
			return nil, nil, err
		}
		log.WithField("products", len(products)).Info("seeded redis catalog")
	}
	return rs, closeStore, nil
}
