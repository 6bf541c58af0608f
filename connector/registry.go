package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/Konsultn-Engineering/dynq/database"
)

// ConnectionError reports a failure to obtain a usable connection: an
// unreachable database, pool exhaustion or timeout, or an init-hook failure.
// The layer never retries internally beyond the configured connect retry;
// retry policy belongs to the caller.
type ConnectionError struct {
	Database string
	Reason   string
	Err      error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("connector: database %q: %s", e.Database, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InitHook runs exactly once per logical database name, after its pool is
// created and before the pool becomes available for checkout. A failing hook
// discards the pool.
type InitHook func(ctx context.Context, name string, db database.Database) error

// Registry is the process-wide pool registry, keyed by logical database
// name. Pools are created lazily and idempotently on first checkout of a
// name; creation happens under the registry lock. The registry is created at
// process start and torn down with Close at shutdown.
type Registry struct {
	provider  string
	defaults  Config
	overrides map[string]Config
	initHook  InitHook

	mu     sync.RWMutex
	conns  map[string]Connection
	closed bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithInitHook installs a hook run once per newly created pool.
func WithInitHook(h InitHook) RegistryOption {
	return func(r *Registry) { r.initHook = h }
}

// WithDatabaseConfig installs explicit connection parameters for one logical
// database name. Names without explicit parameters reuse the defaults with
// only the database name swapped.
func WithDatabaseConfig(name string, cfg Config) RegistryOption {
	return func(r *Registry) { r.overrides[name] = cfg }
}

// NewRegistry creates a registry for the given provider ("postgres", ...)
// with process-wide default connection parameters.
func NewRegistry(provider string, defaults Config, opts ...RegistryOption) (*Registry, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	if _, err := providerFor(provider); err != nil {
		return nil, err
	}
	r := &Registry{
		provider:  provider,
		defaults:  defaults,
		overrides: make(map[string]Config),
		conns:     make(map[string]Connection),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewRegistryFromConfig creates a registry from a loaded RegistryConfig.
func NewRegistryFromConfig(provider string, rc RegistryConfig, opts ...RegistryOption) (*Registry, error) {
	for name, cfg := range rc.Databases {
		opts = append(opts, WithDatabaseConfig(name, cfg))
	}
	return NewRegistry(provider, rc.Default, opts...)
}

// DefaultDatabase returns the logical name used when no route override is
// present.
func (r *Registry) DefaultDatabase() string {
	return r.defaults.Database
}

// Checkout resolves the logical database for the unit of work carried by ctx
// (route override or process default) and returns its pooled connection,
// creating the pool on first use.
func (r *Registry) Checkout(ctx context.Context) (Connection, error) {
	name, ok := RouteFromContext(ctx)
	if !ok {
		name = r.defaults.Database
	}
	return r.connection(ctx, name)
}

func (r *Registry) connection(ctx context.Context, name string) (Connection, error) {
	r.mu.RLock()
	conn, ok := r.conns[name]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, &ConnectionError{Database: name, Reason: "registry is closed"}
	}
	if ok {
		return conn, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &ConnectionError{Database: name, Reason: "registry is closed"}
	}
	if conn, ok := r.conns[name]; ok {
		return conn, nil
	}

	cfg := r.configFor(name)
	conn, err := r.connect(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Database: name, Reason: "connect failed", Err: err}
	}

	if r.initHook != nil {
		if err := r.initHook(ctx, name, conn.Database()); err != nil {
			conn.Close()
			return nil, &ConnectionError{Database: name, Reason: "init hook failed", Err: err}
		}
	}

	r.conns[name] = conn
	return conn, nil
}

func (r *Registry) configFor(name string) Config {
	if cfg, ok := r.overrides[name]; ok {
		return cfg
	}
	return r.defaults.named(name)
}

func (r *Registry) connect(ctx context.Context, cfg Config) (Connection, error) {
	provider, err := providerFor(r.provider)
	if err != nil {
		return nil, err
	}
	if cfg.Retry != nil {
		return retryConnect(ctx, *cfg.Retry, func(ctx context.Context) (Connection, error) {
			return provider.Connect(ctx, cfg)
		})
	}
	return provider.Connect(ctx, cfg)
}

// Close tears the registry down, closing every pool. Checkout after Close
// fails with ConnectionError.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lastErr error
	for name, conn := range r.conns {
		if err := conn.Close(); err != nil {
			lastErr = err
		}
		delete(r.conns, name)
	}
	r.closed = true
	return lastErr
}
