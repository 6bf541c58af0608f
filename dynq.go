// Package dynq is a query-execution and result-aggregation layer between
// application code and a SQL driver. Callers hand it SQL text with named
// parameters and optional dynamic templates ({in__x}, {not_in__x},
// {values__x}); dynq expands the templates, routes the statement to the
// logical database active for the calling context, executes it against a
// pooled connection, and folds read results into aggregates through a
// pluggable mapper. Multi-statement writes run atomically in one
// transaction with an optional post-commit callback.
package dynq

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/dynq/connector"
)

// Runner is the caller-facing operation surface. A single Runner is safe for
// concurrent use; each operation resolves its own route and connection.
type Runner struct {
	registry *connector.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger installs a structured logger. Operations log at debug level
// with a per-operation id; the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner over a connection registry.
func New(registry *connector.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// opID returns a monotonic, sortable id correlating the log lines of one
// operation.
func (r *Runner) opID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), r.entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

// routeName resolves the logical database the given context targets.
func (r *Runner) routeName(ctx context.Context) string {
	if name, ok := connector.RouteFromContext(ctx); ok {
		return name
	}
	return r.registry.DefaultDatabase()
}
