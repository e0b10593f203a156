package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/webrecon/webrecon/internal/metrics"
)

// Concern names one logical consumer of a backend. Each concern fails over
// independently: the cache can run degraded while rate limiting stays
// distributed, and vice versa.
type Concern string

const (
	ConcernRateLimit Concern = "ratelimit"
	ConcernCache     Concern = "cache"
)

// Registry routes each concern to the distributed backend while it is
// healthy and to the local backend for a cool-down after it fails. It is the
// only owner of that health state; callers obtained through For never see
// ErrUnavailable.
type Registry struct {
	distributed Backend
	local       Backend
	coolDown    time.Duration
	logger      *logging.Logger
	clock       func() time.Time

	mu    sync.Mutex
	state map[Concern]*concernState
}

type concernState struct {
	demoted      bool
	demotedUntil time.Time
	lastError    string
}

// ConcernStatus is a point-in-time snapshot for health and CLI surfaces.
type ConcernStatus struct {
	Concern          Concern   `json:"concern"`
	UsingDistributed bool      `json:"using_distributed"`
	DemotedUntil     time.Time `json:"demoted_until,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithCoolDown overrides the demotion cool-down (default 30s).
func WithCoolDown(d time.Duration) RegistryOption {
	return func(g *Registry) {
		if d > 0 {
			g.coolDown = d
		}
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(clock func() time.Time) RegistryOption {
	return func(g *Registry) { g.clock = clock }
}

// NewRegistry builds a registry. distributed may be nil, in which case every
// concern runs on the local backend from startup and no probing happens.
func NewRegistry(distributed Backend, local Backend, logger *logging.Logger, opts ...RegistryOption) *Registry {
	g := &Registry{
		distributed: distributed,
		local:       local,
		coolDown:    30 * time.Second,
		logger:      logger,
		state: map[Concern]*concernState{
			ConcernRateLimit: {},
			ConcernCache:     {},
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// For returns the backend view for a concern. The view transparently retries
// a failed distributed operation against the local backend, so its operations
// never fail with ErrUnavailable.
func (g *Registry) For(concern Concern) Backend {
	return &concernBackend{registry: g, concern: concern}
}

// Distributed reports whether a distributed backend is configured at all.
func (g *Registry) Distributed() bool {
	return g != nil && g.distributed != nil
}

// Status snapshots every concern's health.
func (g *Registry) Status() []ConcernStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	statuses := make([]ConcernStatus, 0, len(g.state))
	for _, concern := range []Concern{ConcernRateLimit, ConcernCache} {
		st := g.state[concern]
		status := ConcernStatus{
			Concern:          concern,
			UsingDistributed: g.distributed != nil && !g.demotedLocked(st),
		}
		if st.demoted {
			status.DemotedUntil = st.demotedUntil
			status.LastError = st.lastError
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (g *Registry) now() time.Time {
	if g.clock != nil {
		return g.clock()
	}
	return time.Now().UTC()
}

// pick decides the backend for the next operation. Once the cool-down has
// elapsed the distributed backend is handed out again as an on-demand probe.
func (g *Registry) pick(concern Concern) (Backend, bool) {
	if g.distributed == nil {
		return g.local, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.state[concern]
	if g.demotedLocked(st) {
		return g.local, false
	}
	return g.distributed, true
}

// demotedLocked reports whether the concern is still inside its cool-down.
func (g *Registry) demotedLocked(st *concernState) bool {
	return st.demoted && g.now().Before(st.demotedUntil)
}

// demote flips a concern to the local backend for one cool-down. A repeat
// failure during a probe restarts the cool-down. The demotion is logged on
// the state transition only, not per request.
func (g *Registry) demote(concern Concern, cause error) {
	g.mu.Lock()
	st := g.state[concern]
	wasDemoted := st.demoted
	st.demoted = true
	st.demotedUntil = g.now().Add(g.coolDown)
	if cause != nil {
		st.lastError = cause.Error()
	}
	g.mu.Unlock()

	metrics.RecordFailover(string(concern), "demoted")
	if !wasDemoted && g.logger != nil {
		g.logger.Warn("Distributed backend demoted, using local backend",
			zap.String("concern", string(concern)),
			zap.Duration("cool_down", g.coolDown),
			zap.Error(cause))
	}
}

// promote clears the demotion after a successful probe.
func (g *Registry) promote(concern Concern) {
	g.mu.Lock()
	st := g.state[concern]
	wasDemoted := st.demoted
	st.demoted = false
	st.lastError = ""
	g.mu.Unlock()

	if wasDemoted {
		metrics.RecordFailover(string(concern), "promoted")
		if g.logger != nil {
			g.logger.Info("Distributed backend promoted after successful probe",
				zap.String("concern", string(concern)))
		}
	}
}

// concernBackend is the per-concern view handed to the rate limiter and the
// cache. Every operation runs the demote-and-retry-locally discipline.
type concernBackend struct {
	registry *Registry
	concern  Concern
}

func (c *concernBackend) Incr(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	be, distributed := c.registry.pick(c.concern)
	count, err := be.Incr(ctx, key, amount, ttl)
	if err == nil {
		if distributed {
			c.registry.promote(c.concern)
		}
		return count, nil
	}
	if !distributed || !errors.Is(err, ErrUnavailable) {
		return 0, err
	}
	c.registry.demote(c.concern, err)
	return c.registry.local.Incr(ctx, key, amount, ttl)
}

func (c *concernBackend) Get(ctx context.Context, key string) (string, bool, error) {
	be, distributed := c.registry.pick(c.concern)
	value, ok, err := be.Get(ctx, key)
	if err == nil {
		if distributed {
			c.registry.promote(c.concern)
		}
		return value, ok, nil
	}
	if !distributed || !errors.Is(err, ErrUnavailable) {
		return "", false, err
	}
	c.registry.demote(c.concern, err)
	return c.registry.local.Get(ctx, key)
}

func (c *concernBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	be, distributed := c.registry.pick(c.concern)
	err := be.Set(ctx, key, value, ttl)
	if err == nil {
		if distributed {
			c.registry.promote(c.concern)
		}
		return nil
	}
	if !distributed || !errors.Is(err, ErrUnavailable) {
		return err
	}
	c.registry.demote(c.concern, err)
	return c.registry.local.Set(ctx, key, value, ttl)
}

func (c *concernBackend) Del(ctx context.Context, key string) error {
	be, distributed := c.registry.pick(c.concern)
	err := be.Del(ctx, key)
	if err == nil {
		if distributed {
			c.registry.promote(c.concern)
		}
		return nil
	}
	if !distributed || !errors.Is(err, ErrUnavailable) {
		return err
	}
	c.registry.demote(c.concern, err)
	return c.registry.local.Del(ctx, key)
}
