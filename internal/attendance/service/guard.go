// Package service is the application layer between the HTTP handlers and
// the storage contracts. Every store call goes through a Guard, which
// bounds it with a timeout, trips a circuit breaker on repeated failure
// and wraps any failure in ErrStore.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/metrics"
)

// ErrStore marks every failure that came from the store or from the
// breaker refusing to call it.
var ErrStore = errors.New("store unavailable")

type GuardConfig struct {
	// Name labels the breaker in logs and metrics. Defaults to "store".
	Name string

	// Timeout bounds each store call. 0 disables the bound.
	Timeout time.Duration

	// Trips is the number of consecutive failures that opens the breaker.
	// Defaults to 5.
	Trips uint32

	// Cooldown is how long the breaker stays open before probing again.
	// Defaults to 30s.
	Cooldown time.Duration
}

type Guard struct {
	cb      *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

func NewGuard(cfg GuardConfig) *Guard {
	if cfg.Name == "" {
		cfg.Name = "store"
	}
	if cfg.Trips == 0 {
		cfg.Trips = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	trips := cfg.Trips
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trips
		},
		// A caller giving up is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Guard{cb: cb, timeout: cfg.Timeout}
}

// State reports the breaker state: "closed", "half-open" or "open".
func (g *Guard) State() string {
	return g.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// call runs fn under g. The returned error always wraps ErrStore.
func call[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		metrics.RecordStoreQuery(op, time.Since(start), 0, err)
		logging.Ctx(ctx).Error().Err(err).Str("op", op).Msg("store call failed")
		return zero, fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	}

	v, _ := out.(T)
	metrics.RecordStoreQuery(op, time.Since(start), sizeOf(v), nil)
	return v, nil
}

func sizeOf(v any) int {
	switch x := v.(type) {
	case []types.AttendanceLog:
		return len(x)
	case []types.User:
		return len(x)
	case []types.Device:
		return len(x)
	case []types.RemoteMessage:
		return len(x)
	default:
		return -1
	}
}
