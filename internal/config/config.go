package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds every setting of the bpcat binary. Flags override it after
// Load.
type Config struct {
	APIURL          string        `validate:"required,url"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	KeywordDebounce time.Duration `validate:"gte=0"`
	LogLevel        string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat       string        `validate:"oneof=text json"`
	KafkaBroker     string        `validate:"omitempty,hostname_port"` // empty disables event publishing

	// Mock API
	MockAddr    string        `validate:"required"`
	FixturePath string        `validate:"omitempty,file"`
	RedisAddr   string        `validate:"omitempty,hostname_port"`
	RedisKey    string        `validate:"required_with=RedisAddr"`
	MockLatency time.Duration `validate:"gte=0"`
	MockJitter  time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Load reads .env when present, then the environment. Unparseable durations
// are an error rather than a silent default.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, key+": "+err.Error())
			return def
		}
		return d
	}

	cfg := Config{
		APIURL:          getEnvDefault("BPCAT_API_URL", "http://localhost:8080"),
		RequestTimeout:  duration("BPCAT_REQUEST_TIMEOUT", 3*time.Second),
		KeywordDebounce: duration("BPCAT_KEYWORD_DEBOUNCE", 250*time.Millisecond),
		LogLevel:        strings.ToLower(getEnvDefault("BPCAT_LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnvDefault("BPCAT_LOG_FORMAT", "text")),
		KafkaBroker:     os.Getenv("BPCAT_KAFKA_BROKER"),
		MockAddr:        getEnvDefault("BPCAT_MOCK_ADDR", ":8080"),
		FixturePath:     os.Getenv("BPCAT_FIXTURE_PATH"),
		RedisAddr:       os.Getenv("BPCAT_REDIS_ADDR"),
		RedisKey:        getEnvDefault("BPCAT_REDIS_KEY", "bpcat:products"),
		MockLatency:     duration("BPCAT_MOCK_LATENCY", 0),
		MockJitter:      duration("BPCAT_MOCK_JITTER", 0),
	}
	if len(errs) > 0 {
		return cfg, errors.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return cfg, cfg.Validate()
}

// Validate checks the values after flags were applied.
func (c Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid configuration")
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
