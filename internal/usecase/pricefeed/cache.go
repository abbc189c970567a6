// Package pricefeed implements pricefeedv1.Cache against Redis: each
// market's oracle observation and fallback quote are stored as small JSON
// blobs under keys scoped by market type and index, refreshed by an
// external price publisher and read here by whichever caller needs fallback
// liquidity data before querying the DLOB.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driftmirror/dlob-mirror/pkg/errors"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
	"github.com/driftmirror/dlob-mirror/pkg/redis"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	pricefeedv1 "github.com/driftmirror/dlob-mirror/internal/domain/pricefeed/v1"
)

// Cache is a Redis-backed pricefeedv1.Cache.
type Cache struct {
	redisclient redis.Client
	logger      *logger.Logger
	keyPrefix   string
}

// NewCache constructs a Redis-backed price feed cache. keyPrefix namespaces
// the cache's keys within the Redis keyspace (e.g. the configured
// redis.Config.PrefixKey).
func NewCache(redisclient redis.Client, keyPrefix string, logger *logger.Logger) *Cache {
	return &Cache{
		redisclient: redisclient,
		keyPrefix:   keyPrefix,
		logger:      logger,
	}
}

func (c *Cache) oracleKey(marketType orderv1.MarketType, marketIndex uint16) string {
	return fmt.Sprintf("%soracle:%s:%d", c.keyPrefix, marketType, marketIndex)
}

func (c *Cache) fallbackKey(marketType orderv1.MarketType, marketIndex uint16) string {
	return fmt.Sprintf("%sfallback:%s:%d", c.keyPrefix, marketType, marketIndex)
}

// GetOraclePrice returns the last-observed oracle price for a market, or
// found=false if the publisher has not yet written one.
func (c *Cache) GetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (orderv1.OraclePriceData, bool, error) {
	key := c.oracleKey(marketType, marketIndex)
	data, err := c.redisclient.Get(ctx, key)
	if err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return orderv1.OraclePriceData{}, false, errors.NewTracer("pricefeed_get_oracle_error").Wrap(err)
	}
	if data == "" {
		return orderv1.OraclePriceData{}, false, nil
	}

	var price orderv1.OraclePriceData
	if err := json.Unmarshal([]byte(data), &price); err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return orderv1.OraclePriceData{}, false, errors.NewTracer("pricefeed_unmarshal_oracle_error").Wrap(err)
	}
	return price, true, nil
}

// SetOraclePrice writes the latest oracle observation for a market.
func (c *Cache) SetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, price orderv1.OraclePriceData) error {
	key := c.oracleKey(marketType, marketIndex)
	buf, err := json.Marshal(price)
	if err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return errors.NewTracer("pricefeed_marshal_oracle_error").Wrap(err)
	}
	if err := c.redisclient.Set(ctx, key, buf, 0); err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return errors.NewTracer("pricefeed_set_oracle_error").Wrap(err)
	}
	return nil
}

// GetFallbackQuote returns the last-published fallback bid/ask for a market,
// or found=false if the publisher has not yet written one.
func (c *Cache) GetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (pricefeedv1.FallbackQuote, bool, error) {
	key := c.fallbackKey(marketType, marketIndex)
	data, err := c.redisclient.Get(ctx, key)
	if err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return pricefeedv1.FallbackQuote{}, false, errors.NewTracer("pricefeed_get_fallback_error").Wrap(err)
	}
	if data == "" {
		return pricefeedv1.FallbackQuote{}, false, nil
	}

	var quote pricefeedv1.FallbackQuote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return pricefeedv1.FallbackQuote{}, false, errors.NewTracer("pricefeed_unmarshal_fallback_error").Wrap(err)
	}
	return quote, true, nil
}

// SetFallbackQuote writes the latest fallback bid/ask for a market.
func (c *Cache) SetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, quote pricefeedv1.FallbackQuote) error {
	key := c.fallbackKey(marketType, marketIndex)
	buf, err := json.Marshal(quote)
	if err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return errors.NewTracer("pricefeed_marshal_fallback_error").Wrap(err)
	}
	if err := c.redisclient.Set(ctx, key, buf, 0); err != nil {
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "key", Value: key})
		return errors.NewTracer("pricefeed_set_fallback_error").Wrap(err)
	}
	return nil
}

var _ pricefeedv1.Cache = (*Cache)(nil)
