// Package knowledge memoizes knowledge bases fetched per visa type.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/pkg/adapters/memory"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Repository serves knowledge bases from a cache, falling back to a source.
// Concurrent misses for the same visa type share one fetch.
// Entries are never invalidated by the repository itself.
type Repository struct {
	source ports.KnowledgeSource
	cache  ports.KnowledgeCache
	logger *slog.Logger
	group  singleflight.Group

	concurrency int
}

// Option configures a Repository.
type Option func(*Repository)

// WithCache replaces the default in-memory cache.
func WithCache(c ports.KnowledgeCache) Option {
	return func(r *Repository) {
		r.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// WithConcurrency bounds Prefetch parallelism. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(r *Repository) {
		r.concurrency = n
	}
}

// New creates a repository over source.
func New(source ports.KnowledgeSource, opts ...Option) *Repository {
	r := &Repository{
		source:      source,
		cache:       memory.NewCache(),
		logger:      logging.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the knowledge base for visaType.
func (r *Repository) Get(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	kb, err := r.cache.Get(ctx, visaType)
	if err == nil {
		return kb, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		// A broken cache must not block the questionnaire.
		r.logger.Warn("knowledge cache read failed", "visa_type", visaType, "error", err)
	}

	v, err, shared := r.group.Do(visaType, func() (any, error) {
		kb, err := r.source.Knowledge(ctx, visaType)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Put(ctx, visaType, kb); err != nil {
			r.logger.Warn("knowledge cache write failed", "visa_type", visaType, "error", err)
		}
		return kb, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch knowledge for %s: %w", visaType, err)
	}
	r.logger.Debug("knowledge fetched", "visa_type", visaType, "shared", shared)
	return v.(*domain.KnowledgeBase).Clone(), nil
}

// Prefetch loads several visa types concurrently and stops at the first failure.
func (r *Repository) Prefetch(ctx context.Context, visaTypes ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for _, t := range visaTypes {
		g.Go(func() error {
			_, err := r.Get(gctx, t)
			return err
		})
	}
	return g.Wait()
}

// Cached lists the visa types currently held by the cache.
func (r *Repository) Cached(ctx context.Context) ([]string, error) {
	return r.cache.List(ctx)
}

// Forget evicts a visa type so the next Get refetches it.
func (r *Repository) Forget(ctx context.Context, visaType string) error {
	return r.cache.Delete(ctx, visaType)
}
