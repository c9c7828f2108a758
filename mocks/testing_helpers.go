package mocks

import (
	"context"

	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
)

// NoopLogger discards everything; tests that assert on behavior rather than
// log output use it.
type NoopLogger struct{}

func (NoopLogger) Debugf(ctx context.Context, format string, args ...any) {}

func (NoopLogger) Infof(ctx context.Context, format string, args ...any) {}

func (NoopLogger) Warnf(ctx context.Context, format string, args ...any) {}

func (NoopLogger) Errorf(ctx context.Context, err error, format string, args ...any) {}

func (NoopLogger) WithFields(fields map[string]any) ports.Logger { return NoopLogger{} }

// NoopRateLimiter never blocks, keeping handler tests off the global
// limiter.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Wait(ctx context.Context, logger ports.Logger) error { return nil }
