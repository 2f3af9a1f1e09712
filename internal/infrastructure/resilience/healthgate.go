package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

const (
	DefaultHealthTTL    = 30 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// HealthState is the gate's view of one provider. The zero value means the
// provider has never been probed.
type HealthState struct {
	IsDown          bool
	LastCheckedAt   time.Time
	CheckInProgress bool
}

// GateObserver receives provider health transitions and fallbacks.
type GateObserver interface {
	ObserveProviderState(provider string, up bool)
	ObserveFallback(provider string, reason string)
}

type GateConfig struct {
	Name         string
	Probe        func(context.Context) error
	TTL          time.Duration
	ProbeTimeout time.Duration
	SafeMode     bool
	Logger       *slog.Logger
	Observer     GateObserver
	Now          func() time.Time
}

// HealthGate short-circuits calls to a provider that is believed down. State
// is swapped atomically and probes are single-flighted, so readers never see
// a half-updated state and never hold a lock across I/O.
type HealthGate struct {
	name         string
	probe        func(context.Context) error
	ttl          time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	observer     GateObserver
	now          func() time.Time

	state    atomic.Pointer[HealthState]
	safeMode atomic.Bool
	flight   singleflight.Group
}

func NewHealthGate(cfg GateConfig) *HealthGate {
	g := &HealthGate{
		name:         strings.TrimSpace(cfg.Name),
		probe:        cfg.Probe,
		ttl:          cfg.TTL,
		probeTimeout: cfg.ProbeTimeout,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
		now:          cfg.Now,
	}
	if g.name == "" {
		g.name = "provider"
	}
	if g.probe == nil {
		g.probe = func(context.Context) error { return nil }
	}
	if g.ttl <= 0 {
		g.ttl = DefaultHealthTTL
	}
	if g.probeTimeout <= 0 {
		g.probeTimeout = DefaultProbeTimeout
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.safeMode.Store(cfg.SafeMode)
	return g
}

func (g *HealthGate) Name() string {
	return g.name
}

// State returns a snapshot of the current provider state.
func (g *HealthGate) State() HealthState {
	if st := g.state.Load(); st != nil {
		return *st
	}
	return HealthState{}
}

func (g *HealthGate) SetSafeMode(enabled bool) {
	g.safeMode.Store(enabled)
	g.logger.Warn("enrichment_safe_mode", "provider", g.name, "enabled", enabled)
}

func (g *HealthGate) SafeMode() bool {
	return g.safeMode.Load()
}

// Override forces the provider state without probing.
func (g *HealthGate) Override(healthy bool) {
	g.store(!healthy)
	g.logger.Info("provider_state_override", "provider", g.name, "healthy", healthy)
}

// Reset forgets everything the gate learned about the provider.
func (g *HealthGate) Reset() {
	g.state.Store(nil)
	g.flight.Forget(g.name)
}

// MarkDown records a confirmed failure before the probe cache expires.
func (g *HealthGate) MarkDown(cause error) {
	g.store(true)
	g.logger.Warn("provider_marked_down", "provider", g.name, "error", cause)
}

// Healthy reports whether calls may go through, probing at most once per
// TTL. The only error it returns is a cancellation of ctx.
func (g *HealthGate) Healthy(ctx context.Context) (bool, error) {
	if st := g.state.Load(); g.fresh(st) {
		return !st.IsDown, nil
	}

	ch := g.flight.DoChan(g.name, func() (any, error) {
		if st := g.state.Load(); g.fresh(st) {
			return !st.IsDown, nil
		}
		return g.runProbe(ctx), nil
	})

	select {
	case <-ctx.Done():
		return false, domain.WrapError(domain.ErrCanceled, "health gate "+g.name, ctx.Err())
	case res := <-ch:
		healthy, _ := res.Val.(bool)
		return healthy, nil
	}
}

// runProbe is detached from the caller's cancellation so one impatient
// caller cannot fail the probe for everybody sharing it.
func (g *HealthGate) runProbe(ctx context.Context) bool {
	prev := g.State()
	checking := prev
	checking.CheckInProgress = true
	g.state.Store(&checking)

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.probeTimeout)
	defer cancel()

	started := g.now()
	err := g.probe(probeCtx)
	healthy := err == nil
	g.store(!healthy)

	g.logger.Info("health_probe",
		"provider", g.name,
		"healthy", healthy,
		"duration_ms", float64(g.now().Sub(started).Microseconds())/1000.0,
		"error", err,
	)
	return healthy
}

func (g *HealthGate) fresh(st *HealthState) bool {
	if st == nil || st.LastCheckedAt.IsZero() {
		return false
	}
	return g.now().Sub(st.LastCheckedAt) < g.ttl
}

func (g *HealthGate) store(down bool) {
	prev := g.state.Load()
	g.state.Store(&HealthState{IsDown: down, LastCheckedAt: g.now()})
	if g.observer != nil && (prev == nil || prev.LastCheckedAt.IsZero() || prev.IsDown != down) {
		g.observer.ObserveProviderState(g.name, !down)
	}
}

func (g *HealthGate) fallback(reason string) {
	if g.observer != nil {
		g.observer.ObserveFallback(g.name, reason)
	}
}

// CallResult carries either data or an error. Fallback is set when the
// caller should degrade instead of surfacing the error.
type CallResult[T any] struct {
	Data     T
	Err      error
	Fallback bool
}

// Call runs fn through the gate. Safe mode and a down provider skip fn
// entirely. A network-shaped failure of fn marks the provider down for the
// callers that follow. Cancellation comes back as domain.ErrCanceled with
// Fallback unset.
func Call[T any](ctx context.Context, g *HealthGate, fn func(context.Context) (T, error)) CallResult[T] {
	if err := ctx.Err(); err != nil {
		return CallResult[T]{Err: domain.WrapError(domain.ErrCanceled, g.name, err)}
	}
	if g.SafeMode() {
		g.fallback("safe_mode")
		return CallResult[T]{
			Err:      fmt.Errorf("%s skipped: %w", g.name, domain.ErrSafeMode),
			Fallback: true,
		}
	}

	healthy, err := g.Healthy(ctx)
	if err != nil {
		return CallResult[T]{Err: err}
	}
	if !healthy {
		g.fallback("provider_down")
		return CallResult[T]{
			Err:      fmt.Errorf("%s skipped: %w", g.name, domain.ErrProviderDown),
			Fallback: true,
		}
	}

	data, err := fn(ctx)
	if err == nil {
		return CallResult[T]{Data: data}
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || domain.IsKind(err, domain.ErrCanceled) {
		return CallResult[T]{Err: domain.WrapError(domain.ErrCanceled, g.name, err)}
	}
	if IsNetworkError(err) {
		g.MarkDown(err)
		g.fallback("call_failed")
		return CallResult[T]{
			Err:      domain.WrapError(domain.ErrProviderDown, g.name, err),
			Fallback: true,
		}
	}
	return CallResult[T]{Err: err}
}
