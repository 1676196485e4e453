package mockapi

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"byproduct-catalog/internal/model"
)

//go:embed fixtures/products.jsonl
var defaultCatalog []byte

var validate = validator.New()

// Store is a read-only product catalog.
type Store interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// FileStore reads a JSONL catalog, one product per line. The file is read on
// every call so edits show up without a restart.
type FileStore struct {
	path string
	log  logrus.FieldLogger
}

// NewFileStore returns a store reading path.
func NewFileStore(path string, log logrus.FieldLogger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Products(ctx context.Context) ([]model.Product, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture %s", s.path)
	}
	return parseJSONL(data, s.log.WithField("fixture", s.path)), nil
}

// EmbeddedStore serves the catalog compiled into the binary.
type EmbeddedStore struct {
	products []model.Product
}

// NewEmbeddedStore parses the built-in catalog.
func NewEmbeddedStore(log logrus.FieldLogger) *EmbeddedStore {
	return &EmbeddedStore{products: parseJSONL(defaultCatalog, log.WithField("fixture", "embedded"))}
}

func (s *EmbeddedStore) Products(ctx context.Context) ([]model.Product, error) {
	return append([]model.Product(nil), s.products...), nil
}

// RedisStore reads a JSON array of products stored at one key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore creates a store backed by the Redis server at addr.
func NewRedisStore(addr, key string) *RedisStore {
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		key: key,
	}
}

func (s *RedisStore) Products(ctx context.Context) ([]model.Product, error) {
	val, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, errors.Errorf("catalog key %q not found", s.key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	var products []model.Product
	if err := sonic.Unmarshal(val, &products); err != nil {
		return nil, errors.Wrapf(err, "decode catalog at %q", s.key)
	}
	for i := range products {
		if err := validate.Struct(products[i]); err != nil {
			return nil, errors.Wrapf(err, "product %d at %q", i, s.key)
		}
	}
	return products, nil
}

// Seed stores products at the store's key, replacing what was there.
func (s *RedisStore) Seed(ctx context.Context, products []model.Product) error {
	data, err := sonic.Marshal(products)
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	return errors.Wrap(s.rdb.Set(ctx, s.key, data, 0).Err(), "redis set")
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// parseJSONL decodes one product per line. Blank, malformed and invalid lines
// are skipped.
func parseJSONL(data []byte, log logrus.FieldLogger) []model.Product {
	var products []model.Product
	for n, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var p model.Product
		if err := sonic.Unmarshal(line, &p); err != nil {
			log.WithField("line", n+1).WithError(err).Warn("skipping malformed product")
			continue
		}
		if err := validate.Struct(p); err != nil {
			log.WithField("line", n+1).Warn(strings.TrimSpace(err.Error()))
			continue
		}
		products = append(products, p)
	}
	return products
}
