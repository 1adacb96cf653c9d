package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the request logger, or the global logger outside a request.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithFollower tags every later log line of ctx with the follower key.
func WithFollower(ctx context.Context, follower string) context.Context {
	l := Ctx(ctx).With().Str(FieldFollower, follower).Logger()
	return WithLogger(ctx, l)
}
