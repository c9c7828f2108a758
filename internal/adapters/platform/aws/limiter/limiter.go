package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
)

const (
	defaultRateLimitRPS = 20
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 100
)

var (
	apiLimiter  *rate.Limiter
	limiterOnce sync.Once
)

func Initialize(rps int, logger ports.Logger) {
	limiterOnce.Do(func() {
		limitValue := defaultRateLimitRPS
		if rps >= minRateLimitRPS && rps <= maxRateLimitRPS {
			limitValue = rps
		} else if rps != 0 {
			logger.Warnf(context.Background(), "Invalid AWS API RPS configured (%d), using default %d RPS. Valid range: %d-%d.", rps, defaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
		}
		apiLimiter = rate.NewLimiter(rate.Limit(limitValue), limitValue)
		logger.Infof(context.Background(), "Initialized global AWS API rate limiter: %d RPS", limitValue)
	})
}

func Wait(ctx context.Context, logger ports.Logger) error {
	if apiLimiter == nil {
		logger.Errorf(ctx, nil, "AWS API rate limiter accessed before initialization, initializing with default")
		Initialize(defaultRateLimitRPS, logger)
	}
	err := apiLimiter.Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "Error waiting for AWS API rate limiter: %v", err)
		}
		return err
	}
	return nil
}

// DefaultRateLimiter adapts the global limiter to the shared.RateLimiter
// interface so handlers can swap it out in tests.
type DefaultRateLimiter struct{}

func (d *DefaultRateLimiter) Wait(ctx context.Context, logger ports.Logger) error {
	return Wait(ctx, logger)
}
