// Package requestid carries the HTTP request ID through context so AI calls
// and write-throughs can be correlated with the request that caused them.
package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header is the request and response header holding the ID.
const Header = "X-Request-ID"

const maxLen = 128

type ctxKey struct{}

// Resolve keeps a caller-supplied ID when it is usable and mints a UUID
// otherwise.
func Resolve(incoming string) string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" || len(incoming) > maxLen {
		return uuid.NewString()
	}
	return incoming
}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID, or "" outside a request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logger returns logger tagged with the request ID carried by ctx, if any.
func Logger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := FromContext(ctx); id != "" {
		return logger.With().Str("request_id", id).Logger()
	}
	return logger
}
