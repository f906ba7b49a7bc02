package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/visaguide/internal/config"
	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/pkg/adapters/file"
	visahttp "github.com/aretw0/visaguide/pkg/adapters/http"
	"github.com/aretw0/visaguide/pkg/adapters/memory"
	"github.com/aretw0/visaguide/pkg/adapters/redis"
	"github.com/aretw0/visaguide/pkg/knowledge"
	"github.com/aretw0/visaguide/pkg/observability"
	"github.com/aretw0/visaguide/pkg/ports"
	"github.com/aretw0/visaguide/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App wires the client stack from a Config.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics
	Client    *visahttp.Client
	Knowledge *knowledge.Repository

	closers []func() error
}

// NewApp builds the logger, metrics, backend client and knowledge
// repository described by cfg.
func NewApp(cfg config.Config) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewFromConfig(cfg.LogFormat, level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics,
	}

	if cfg.BaseURL != "" {
		app.Client = visahttp.NewClient(cfg.BaseURL,
			visahttp.WithTimeout(cfg.Timeout),
			visahttp.WithLogger(logger),
			visahttp.WithObserver(metrics),
		)
	}

	var source ports.KnowledgeSource
	switch {
	case cfg.KnowledgeDir != "":
		source = file.New(cfg.KnowledgeDir)
		logger.Debug("using offline knowledge", "dir", cfg.KnowledgeDir)
	case app.Client != nil:
		source = app.Client
	default:
		return nil, errors.New("no knowledge source: set base_url or knowledge_dir")
	}

	cache, err := app.newCache()
	if err != nil {
		return nil, err
	}
	app.Knowledge = knowledge.New(source,
		knowledge.WithCache(cache),
		knowledge.WithLogger(logger),
	)
	return app, nil
}

func (a *App) newCache() (ports.KnowledgeCache, error) {
	c := a.Config.Cache
	switch c.Backend {
	case "", config.CacheMemory:
		return memory.NewCache(), nil
	case config.CacheRedis:
		rc := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB,
			redis.WithPrefix(c.RedisPrefix),
			redis.WithTTL(c.TTL),
		)
		a.closers = append(a.closers, rc.Close)
		a.Logger.Debug("using redis knowledge cache", "addr", c.RedisAddr, "db", c.RedisDB)
		return rc, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
}

// NewController creates a session controller on the backend client.
func (a *App) NewController() (*session.Controller, error) {
	if a.Client == nil {
		return nil, errors.New("questionnaire needs a backend: set base_url")
	}
	return session.New(
		session.WithFlatBackend(a.Client),
		session.WithTreeBackend(a.Client),
		session.WithLogger(a.Logger),
		session.WithHooks(a.Metrics.Hooks()),
		session.WithHooks(observability.LoggingHooks(a.Logger)),
		session.WithFilterRollback(a.Config.FilterRollback),
		session.WithEvaluateThreshold(a.Config.EvaluateThreshold),
	), nil
}

// VisaTypes lists the visa types to offer. Offline knowledge directories
// are listed; otherwise the configured types are used.
func (a *App) VisaTypes(ctx context.Context) []string {
	if a.Config.KnowledgeDir != "" {
		types, err := file.New(a.Config.KnowledgeDir).List(ctx)
		if err != nil {
			a.Logger.Warn("list knowledge files", "dir", a.Config.KnowledgeDir, "err", err)
		} else if len(types) > 0 {
			return types
		}
	}
	return a.Config.VisaTypes
}

// Close releases external connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
