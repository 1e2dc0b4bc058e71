package recommend

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/validation"
)

// BreakerConfig tunes the circuit breaker around the service.
type BreakerConfig struct {
	Name string
	// ConsecutiveFailures opens the circuit after this many transport failures in a row.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe request.
	OpenTimeout time.Duration
	// Interval resets failure counts while closed. Zero keeps counts until a success.
	Interval time.Duration
}

// BreakerClient stops hammering an unreachable service. While the circuit
// is open, calls fail fast with a ConnectivityError.
type BreakerClient struct {
	next   Recommender
	cb     *gobreaker.CircuitBreaker[[]domain.Movie]
	logger logger.Logger
}

// NewBreakerClient wraps next with a circuit breaker.
func NewBreakerClient(next Recommender, cfg BreakerConfig, log logger.Logger) *BreakerClient {
	if cfg.Name == "" {
		cfg.Name = "recommendation-service"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	threshold := cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[[]domain.Movie](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only transport failures count against the service; a structured
		// rejection means it is up and answering.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var svcErr *ServiceError
			var verr *validation.Error
			return errors.As(err, &svcErr) || errors.As(err, &verr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})

	return &BreakerClient{next: next, cb: cb, logger: log}
}

// Recommend forwards to the wrapped client unless the circuit is open.
func (b *BreakerClient) Recommend(ctx context.Context, req Request) ([]domain.Movie, error) {
	movies, err := b.cb.Execute(func() ([]domain.Movie, error) {
		return b.next.Recommend(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Debug("request rejected by open circuit", logger.Error(err))
			return nil, &ConnectivityError{Err: err}
		}
		return nil, err
	}
	return movies, nil
}

// State reports the breaker state ("closed", "half-open", "open").
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
