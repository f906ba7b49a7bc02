package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
)

// DefaultEvaluateThreshold is the number of answers after which an
// exhausted flat batch goes straight to evaluation instead of refetching.
const DefaultEvaluateThreshold = 5

// Option configures the Controller.
type Option func(*Controller)

// WithFlatBackend enables flat mode.
func WithFlatBackend(b ports.QuestionnaireBackend) Option {
	return func(c *Controller) {
		c.flat = b
	}
}

// WithTreeBackend enables tree mode.
func WithTreeBackend(b ports.DecisionTreeBackend) Option {
	return func(c *Controller) {
		c.tree = b
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle hooks. Repeated calls are merged.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithFilterRollback makes Back restore the visa-type filter that was in
// place before the undone answer. By default a screening filter, once set,
// survives Back and is only cleared by Restart.
func WithFilterRollback(enabled bool) Option {
	return func(c *Controller) {
		c.filterRollback = enabled
	}
}

// WithEvaluateThreshold overrides DefaultEvaluateThreshold.
func WithEvaluateThreshold(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithIDGenerator overrides how session ids are created.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// WithClock overrides the time source used for events and report dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}
