// Package pricefeedv1 defines the cache contract the matching queries consult
// for oracle and fallback prices. The DLOB core never imports this package;
// callers resolve a market's current price feed themselves before passing
// the result into a DLOB query.
package pricefeedv1

import (
	"context"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// FallbackQuote is the externally-supplied bid/ask used to fill orders that
// cannot be matched internally. Either side may be nil if no fallback quote
// is currently available for that side.
type FallbackQuote struct {
	Bid *int64
	Ask *int64
}

// Cache is the narrow interface a Redis-backed price feed implements.
// Callers read the oracle observation and fallback quote for a market
// before issuing DLOB queries that need them.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=pricefeedv1_mock
type Cache interface {
	GetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (orderv1.OraclePriceData, bool, error)
	SetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, price orderv1.OraclePriceData) error

	GetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (FallbackQuote, bool, error)
	SetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, quote FallbackQuote) error
}
