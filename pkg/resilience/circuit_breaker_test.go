package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errRedis = errors.New("dial tcp: connection refused")

func fail(context.Context) error { return errRedis }
func ok(context.Context) error   { return nil }

func newBreaker(t *testing.T, maxFailures uint32, timeout time.Duration) *CircuitBreaker {
	t.Helper()
	config := DefaultConfig("test")
	config.MaxFailures = maxFailures
	config.Timeout = timeout
	cb, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create circuit breaker: %v", err)
	}
	return cb
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := newBreaker(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, fail); !errors.Is(err, errRedis) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open breaker: err = %v, called = %v", err, called)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newBreaker(t, 2, time.Minute)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, ok)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed: failures are not consecutive", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := newBreaker(t, 1, 20*time.Millisecond)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(30 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}
	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newBreaker(t, 1, 20*time.Millisecond)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	time.Sleep(30 * time.Millisecond)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_CancelledContextNotCounted(t *testing.T) {
	cb := newBreaker(t, 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	config := DefaultConfig("figcache")
	config.MaxFailures = 1
	config.Timeout = 20 * time.Millisecond
	config.OnStateChange = func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	}
	cb, err := New(config)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_ = cb.Execute(ctx, fail)
	time.Sleep(30 * time.Millisecond)
	_ = cb.Execute(ctx, ok)

	want := []string{
		"figcache:closed->open",
		"figcache:open->half-open",
		"figcache:half-open->closed",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", DefaultConfig("x"), false},
		{"zero failures", Config{Timeout: time.Second}, true},
		{"zero timeout", Config{MaxFailures: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
