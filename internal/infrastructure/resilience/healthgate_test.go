package resilience

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu        sync.Mutex
	states    []bool
	fallbacks []string
}

func (o *recordingObserver) ObserveProviderState(_ string, up bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, up)
}

func (o *recordingObserver) ObserveFallback(_ string, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, reason)
}

type countingProbe struct {
	calls atomic.Int32
	err   error
}

func (p *countingProbe) Probe(context.Context) error {
	p.calls.Add(1)
	return p.err
}

func okCall(context.Context) (string, error) {
	return "ok", nil
}

func TestGateSharesOneProbeAcrossConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	var probes atomic.Int32
	gate := NewHealthGate(GateConfig{
		Name: "off",
		Probe: func(context.Context) error {
			probes.Add(1)
			<-release
			return nil
		},
	})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]CallResult[string], callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Call(context.Background(), gate, okCall)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := probes.Load(); got != 1 {
		t.Fatalf("expected exactly one probe, got %d", got)
	}
	for i, res := range results {
		if res.Err != nil || res.Fallback || res.Data != "ok" {
			t.Fatalf("caller %d: unexpected result %+v", i, res)
		}
	}
}

func TestGateCachesProbeForTTL(t *testing.T) {
	clock := newFakeClock()
	probe := &countingProbe{}
	gate := NewHealthGate(GateConfig{Name: "off", Probe: probe.Probe, Now: clock.Now})

	Call(context.Background(), gate, okCall)
	clock.Advance(29 * time.Second)
	Call(context.Background(), gate, okCall)
	if got := probe.calls.Load(); got != 1 {
		t.Fatalf("expected cached probe inside the window, got %d probes", got)
	}

	clock.Advance(2 * time.Second)
	Call(context.Background(), gate, okCall)
	if got := probe.calls.Load(); got != 2 {
		t.Fatalf("expected a new probe after the window, got %d probes", got)
	}
}

func TestGateDownProviderFallsBackWithoutCalling(t *testing.T) {
	probe := &countingProbe{err: errors.New("dial tcp: connection refused")}
	observer := &recordingObserver{}
	gate := NewHealthGate(GateConfig{Name: "off", Probe: probe.Probe, Observer: observer})

	called := false
	res := Call(context.Background(), gate, func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	if called {
		t.Fatalf("provider must not be called while down")
	}
	if !res.Fallback || !errors.Is(res.Err, domain.ErrProviderDown) {
		t.Fatalf("expected provider down fallback, got %+v", res)
	}
	if !gate.State().IsDown {
		t.Fatalf("expected state to be down")
	}
	if len(observer.fallbacks) != 1 || observer.fallbacks[0] != "provider_down" {
		t.Fatalf("unexpected fallbacks %v", observer.fallbacks)
	}
	if len(observer.states) != 1 || observer.states[0] {
		t.Fatalf("expected one down transition, got %v", observer.states)
	}
}

func TestGateMarksDownOnNetworkFailureBeforeCacheExpires(t *testing.T) {
	clock := newFakeClock()
	probe := &countingProbe{}
	gate := NewHealthGate(GateConfig{Name: "off", Probe: probe.Probe, Now: clock.Now})

	res := Call(context.Background(), gate, func(context.Context) (string, error) {
		return "", &HTTPStatusError{Service: "off", Operation: "lookup", StatusCode: 503, Status: "503 Service Unavailable"}
	})
	if !res.Fallback || !errors.Is(res.Err, domain.ErrProviderDown) {
		t.Fatalf("expected fast-decay fallback, got %+v", res)
	}

	clock.Advance(time.Second)
	called := false
	res = Call(context.Background(), gate, func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	if called || !res.Fallback {
		t.Fatalf("expected following caller to be short-circuited, got %+v called=%v", res, called)
	}
	if got := probe.calls.Load(); got != 1 {
		t.Fatalf("fast-decay must not trigger a probe, got %d probes", got)
	}
}

func TestGateTreatsMessageShapedErrorsAsNetwork(t *testing.T) {
	gate := NewHealthGate(GateConfig{Name: "off"})
	res := Call(context.Background(), gate, func(context.Context) (string, error) {
		return "", errors.New("TypeError: fetch failed")
	})
	if !res.Fallback || !gate.State().IsDown {
		t.Fatalf("expected fetch failure to mark provider down, got %+v", res)
	}
}

func TestGateKeepsProviderUpOnClientErrors(t *testing.T) {
	gate := NewHealthGate(GateConfig{Name: "off"})
	errNotFound := &HTTPStatusError{Service: "off", Operation: "lookup", StatusCode: 404, Status: "404 Not Found"}
	res := Call(context.Background(), gate, func(context.Context) (string, error) {
		return "", errNotFound
	})
	if res.Fallback {
		t.Fatalf("a 404 must not trigger fallback")
	}
	if !errors.Is(res.Err, errNotFound) {
		t.Fatalf("expected the provider error back, got %v", res.Err)
	}
	if gate.State().IsDown {
		t.Fatalf("provider must stay up after a client error")
	}
}

func TestGateSafeModeSkipsProbeAndCall(t *testing.T) {
	probe := &countingProbe{}
	gate := NewHealthGate(GateConfig{Name: "off", Probe: probe.Probe, SafeMode: true})

	res := Call(context.Background(), gate, func(context.Context) (string, error) {
		t.Fatalf("provider must not be called in safe mode")
		return "", nil
	})
	if !res.Fallback || !errors.Is(res.Err, domain.ErrSafeMode) {
		t.Fatalf("expected safe mode fallback, got %+v", res)
	}
	if probe.calls.Load() != 0 {
		t.Fatalf("safe mode must not probe")
	}

	gate.SetSafeMode(false)
	if res := Call(context.Background(), gate, okCall); res.Err != nil || res.Fallback {
		t.Fatalf("expected call to go through after safe mode is lifted, got %+v", res)
	}
}

func TestGateCancellationIsNotProviderFailure(t *testing.T) {
	gate := NewHealthGate(GateConfig{Name: "off"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Call(ctx, gate, okCall)
	if !errors.Is(res.Err, domain.ErrCanceled) || errors.Is(res.Err, domain.ErrProviderDown) {
		t.Fatalf("expected canceled error, got %v", res.Err)
	}
	if res.Fallback {
		t.Fatalf("cancellation must not be a fallback")
	}

	ctx, cancel = context.WithCancel(context.Background())
	res = Call(ctx, gate, func(ctx context.Context) (string, error) {
		cancel()
		return "", ctx.Err()
	})
	if !errors.Is(res.Err, domain.ErrCanceled) || res.Fallback {
		t.Fatalf("expected canceled error without fallback, got %+v", res)
	}
	if gate.State().IsDown {
		t.Fatalf("cancellation must not mark the provider down")
	}
}

func TestGateWaitingCallerCanCancelWhileProbeRuns(t *testing.T) {
	release := make(chan struct{})
	gate := NewHealthGate(GateConfig{
		Name: "off",
		Probe: func(context.Context) error {
			<-release
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := Call(ctx, gate, okCall)
	if !errors.Is(res.Err, domain.ErrCanceled) || res.Fallback {
		t.Fatalf("expected canceled wait, got %+v", res)
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for gate.State().LastCheckedAt.IsZero() {
		if time.Now().After(deadline) {
			t.Fatalf("probe did not finish after release")
		}
		time.Sleep(time.Millisecond)
	}
	if gate.State().IsDown {
		t.Fatalf("a detached probe must not fail because one caller gave up")
	}
}

func TestGateOverrideAndReset(t *testing.T) {
	probe := &countingProbe{err: errors.New("connection reset")}
	gate := NewHealthGate(GateConfig{Name: "off", Probe: probe.Probe})

	if res := Call(context.Background(), gate, okCall); !res.Fallback {
		t.Fatalf("expected fallback while down")
	}

	gate.Override(true)
	if res := Call(context.Background(), gate, okCall); res.Fallback || res.Data != "ok" {
		t.Fatalf("expected override to restore calls, got %+v", res)
	}
	if probe.calls.Load() != 1 {
		t.Fatalf("override must not probe")
	}

	gate.Reset()
	if (gate.State() != HealthState{}) {
		t.Fatalf("expected unknown state after reset, got %+v", gate.State())
	}
	Call(context.Background(), gate, okCall)
	if probe.calls.Load() != 2 {
		t.Fatalf("expected a fresh probe after reset, got %d", probe.calls.Load())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsNetworkError(t *testing.T) {
	var netErr net.Error = timeoutErr{}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "net error", err: netErr, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "wrapped canceled", err: domain.WrapError(domain.ErrCanceled, "op", errors.New("network")), want: false},
		{name: "5xx", err: &HTTPStatusError{StatusCode: 502}, want: true},
		{name: "4xx", err: &HTTPStatusError{StatusCode: 404, Body: "connection"}, want: false},
		{name: "network message", err: errors.New("Network request failed"), want: true},
		{name: "plain", err: errors.New("bad json"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNetworkError(tc.err); got != tc.want {
				t.Fatalf("IsNetworkError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
