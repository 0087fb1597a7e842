package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns a default configuration for the breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "text-generation",
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// BreakingGenerator fails fast while the upstream generator keeps failing
type BreakingGenerator struct {
	next ports.TextGenerator
	cb   *gobreaker.CircuitBreaker
}

// NewBreakingGenerator wraps next with a circuit breaker
func NewBreakingGenerator(next ports.TextGenerator, config BreakerConfig, logger *zap.Logger) *BreakingGenerator {
	if config.MaxFailures == 0 {
		config.MaxFailures = DefaultBreakerConfig().MaxFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not evidence that upstream is unhealthy
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakingGenerator{next: next, cb: cb}
}

// GenerateText implements ports.TextGenerator
func (g *BreakingGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.GenerateText(ctx, system, user)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state
func (g *BreakingGenerator) State() gobreaker.State {
	return g.cb.State()
}
