package client

import (
	"context"
	"time"

	"github.com/satishbabariya/pulseorm/internal/debug"
)

// OperationEvent describes one logical client operation.
type OperationEvent struct {
	Operation string
	Entity    string
	Start     time.Time
	End       time.Time
	Duration  time.Duration
	Error     error
}

// Middleware intercepts client operations. It must call next exactly once
// to let the operation run, and may replace the error it returns.
type Middleware func(ctx context.Context, event *OperationEvent, next func() error) error

// observe runs fn through the session's middleware chain.
func observe(ctx context.Context, s Session, op, entity string, fn func() error) error {
	mws := s.client().middlewares
	if len(mws) == 0 {
		return fn()
	}

	event := &OperationEvent{Operation: op, Entity: entity, Start: time.Now()}
	var next func() error
	index := 0
	next = func() error {
		if index >= len(mws) {
			err := fn()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}
		mw := mws[index]
		index++
		return mw(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware logs every operation at debug level.
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		debug.Debug("operation", "op", event.Operation, "entity", event.Entity,
			"elapsed", event.Duration, "failed", err != nil)
		return err
	}
}

// SlowOperationMiddleware warns about operations slower than threshold.
func SlowOperationMiddleware(threshold time.Duration) Middleware {
	return func(ctx context.Context, event *OperationEvent, next func() error) error {
		err := next()
		if event.Duration > threshold {
			debug.Warn("slow operation", "op", event.Operation, "entity", event.Entity,
				"elapsed", event.Duration, "threshold", threshold)
		}
		return err
	}
}
