package util

import (
	"context"

	"github.com/google/uuid"
)

const requestIDKey = key("x-request-id")

// ContextWithRequestID returns a context with a request id, generating a new
// uuid-v4 request id if the provided id is empty.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return context.WithValue(ctx, requestIDKey, uuid.NewString())
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// FromContext returns the request id stored in ctx, or "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
