// Package util provides context-scoped identifiers threaded through the
// ingestion pipeline and surfaced as structured log fields.
package util

import "context"

type key string

const (
	clientIDKey key = "client-id"
	actorIDKey  key = "actor-id"
	eventIDKey  key = "event-id"
)

// WithClientID returns a context carrying the given client id.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// WithActorID returns a context carrying the given actor id.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// WithRequestID returns a context carrying a request id, generating one if
// the provided id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	return ContextWithRequestID(ctx, id)
}

// WithEventID returns a context carrying the id of the event currently being processed.
func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventIDKey, id)
}

// GetClientID returns the client id from context, or "" if absent.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// GetActorID returns the actor id from context, or "" if absent.
func GetActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// GetRequestID returns the request id from context.
func GetRequestID(ctx context.Context) string {
	return FromContext(ctx)
}

// GetEventID returns the event id from context, or "" if absent.
func GetEventID(ctx context.Context) string {
	id, _ := ctx.Value(eventIDKey).(string)
	return id
}
