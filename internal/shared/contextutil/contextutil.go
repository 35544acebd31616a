package contextutil

import (
	"context"

	"go.uber.org/zap"
)

type key int

const (
	requestIDKey key = iota
	actorKey
	loggerKey
)

// Actor is the verified identity behind a request, set by the auth
// middleware from JWT claims.
type Actor struct {
	EmployeeID string
	Role       string
}

func value[T any](ctx context.Context, k key) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// GetRequestID returns "" outside an HTTP request, e.g. in the consumer.
func GetRequestID(ctx context.Context) string {
	rid, _ := value[string](ctx, requestIDKey)
	return rid
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) (Actor, bool) {
	return value[Actor](ctx, actorKey)
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger never returns nil: request logger, then fallback, then Nop.
func GetLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := value[*zap.Logger](ctx, loggerKey); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}
