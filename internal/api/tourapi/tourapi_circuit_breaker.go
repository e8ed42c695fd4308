package tourapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

var _ Client = (*CircuitBreakerClient)(nil)

const circuitBreakerName = "tour-api"

// CircuitBreakerClient wraps a Client so a failing upstream is not hammered.
// The breaker opens after a 60% failure rate over at least 10 requests.
// Not-found, validation and config errors count as successes: they say nothing
// about upstream health.
type CircuitBreakerClient struct {
	next   Client
	cb     *gobreaker.CircuitBreaker[any]
	logger *slog.Logger
}

func NewCircuitBreakerClient(next Client, logger *slog.Logger) *CircuitBreakerClient {
	l := logger.With(slog.String("component", "TourAPICircuitBreaker"))
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        circuitBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				l.Warn("Opening circuit", slog.Uint64("failures", uint64(counts.TotalFailures)),
					slog.Float64("failure_rate", ratio*100))
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Info("Circuit breaker state transition", slog.String("name", name),
				slog.String("from", stateToString(from)), slog.String("to", stateToString(to)))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientFault(err)
		},
	})
	return &CircuitBreakerClient{next: next, cb: cb, logger: l}
}

// State reports the breaker state for diagnostics.
func (c *CircuitBreakerClient) State() string {
	return stateToString(c.cb.State())
}

func (c *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Request rejected by circuit breaker", slog.String("state", c.State()), slog.Any("error", err))
		return nil, newError(KindTransport, 0, "circuit open", err)
	}
	return result, err
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (c *CircuitBreakerClient) GetAreaCode(ctx context.Context, parentCode string) ([]types.AreaCode, error) {
	return castResult[[]types.AreaCode](c.execute(func() (any, error) {
		return c.next.GetAreaCode(ctx, parentCode)
	}))
}

func (c *CircuitBreakerClient) GetAreaBasedList(ctx context.Context, opts AreaBasedListOptions) (*ListResult, error) {
	return castResult[*ListResult](c.execute(func() (any, error) {
		return c.next.GetAreaBasedList(ctx, opts)
	}))
}

func (c *CircuitBreakerClient) SearchKeyword(ctx context.Context, opts SearchKeywordOptions) (*ListResult, error) {
	return castResult[*ListResult](c.execute(func() (any, error) {
		return c.next.SearchKeyword(ctx, opts)
	}))
}

func (c *CircuitBreakerClient) GetDetailCommon(ctx context.Context, contentID string) (*types.TourDetail, error) {
	return castResult[*types.TourDetail](c.execute(func() (any, error) {
		return c.next.GetDetailCommon(ctx, contentID)
	}))
}

func (c *CircuitBreakerClient) GetDetailIntro(ctx context.Context, contentID, contentTypeID string) (types.TourIntro, error) {
	return castResult[types.TourIntro](c.execute(func() (any, error) {
		return c.next.GetDetailIntro(ctx, contentID, contentTypeID)
	}))
}

func (c *CircuitBreakerClient) GetDetailImage(ctx context.Context, contentID string) ([]types.TourImage, error) {
	return castResult[[]types.TourImage](c.execute(func() (any, error) {
		return c.next.GetDetailImage(ctx, contentID)
	}))
}

func (c *CircuitBreakerClient) GetDetailPetTour(ctx context.Context, contentID string) (*types.PetTourInfo, error) {
	return castResult[*types.PetTourInfo](c.execute(func() (any, error) {
		return c.next.GetDetailPetTour(ctx, contentID)
	}))
}
