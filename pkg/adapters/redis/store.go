package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "visaguide:knowledge:"

// Cache implements ports.KnowledgeCache using Redis.
// Knowledge bases are stored as JSON and indexed in a sorted set scored by expiry.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached entries. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a Redis cache connected to address.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(visaType string) string {
	return c.prefix + visaType
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Put stores the knowledge base and refreshes its index entry.
func (c *Cache) Put(ctx context.Context, visaType string, kb *domain.KnowledgeBase) error {
	data, err := json.Marshal(kb)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}

	// Far future score when entries never expire.
	score := float64(4102444800)
	if c.ttl > 0 {
		score = float64(time.Now().Add(c.ttl).Unix())
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(visaType), data, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: score, Member: visaType})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a knowledge base. Returns domain.ErrCacheMiss when absent or expired.
func (c *Cache) Get(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	val, err := c.client.Get(ctx, c.key(visaType)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var kb domain.KnowledgeBase
	if err := json.Unmarshal(val, &kb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal knowledge base: %w", err)
	}
	return &kb, nil
}

// Delete evicts a visa type.
func (c *Cache) Delete(ctx context.Context, visaType string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.key(visaType))
	pipe.ZRem(ctx, c.indexKey(), visaType)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns cached visa types, pruning expired index entries first.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired entries: %w", err)
	}

	types, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cached visa types: %w", err)
	}
	return types, nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
