// Package redis wraps go-redis into the narrow surface the mirror's price
// feed cache needs: connection lifecycle plus simple get/set/delete.
package redis

import (
	"context"
	"time"
)

// Client is the subset of Redis operations the mirror depends on.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) bool

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}
