package maps

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/sony/gobreaker"
)

// BreakerSettings controls when an upstream is considered down.
type BreakerSettings struct {
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerObserver receives breaker state (0 closed, 1 open, 2 half-open) and failures.
type BreakerObserver interface {
	BreakerState(dependency string, state float64)
	BreakerFailure(dependency string)
}

// Breaker wraps gobreaker for one upstream dependency.
type Breaker struct {
	cb       *gobreaker.CircuitBreaker
	name     string
	observer BreakerObserver
}

// NewBreaker returns a closed breaker for the named dependency.
func NewBreaker(name string, settings BreakerSettings, observer BreakerObserver, logg *logger.Logger) *Breaker {
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.MinRequests == 0 {
		settings.MinRequests = 3
	}
	if settings.FailureRatio <= 0 {
		settings.FailureRatio = 0.6
	}

	b := &Breaker{name: name, observer: observer}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			if observer != nil {
				observer.BreakerState(cbName, stateValue(to))
			}
			if logg != nil {
				ctx := logg.WithFields(context.Background(), map[string]any{
					"dependency": cbName,
					"from":       from.String(),
					"to":         to.String(),
				})
				logg.Warn(ctx, "maps.breaker_state")
			}
		},
	})
	if observer != nil {
		observer.BreakerState(name, 0)
	}
	return b
}

// Execute runs fn through the breaker. An open breaker fails fast with a
// dependency error.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err == nil {
		return result, nil
	}
	if b.observer != nil {
		b.observer.BreakerFailure(b.name)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, b.name+" temporarily unavailable")
	}
	return nil, err
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
