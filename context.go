package bazaar

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the bazaar module

const (
	contextKeyLogger contextKey = iota
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithLogger sets the logger for this context. Request scoped key/value
// pairs attached to the logger are carried into every log entry produced
// while handling the request.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the context, or DefaultLogger.
func GetLogger(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return l
	}
	return DefaultLogger
}

// WithLogInfo accepts keyvalue pairs, and returns another context like
// this, after passing all the keyvals to the Logger.
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(keyvals...))
}

// LoggerOr returns the logger stored in the context, or fallback if there
// is none.
func LoggerOr(ctx context.Context, fallback log.Logger) log.Logger {
	if l, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return l
	}
	return fallback
}
