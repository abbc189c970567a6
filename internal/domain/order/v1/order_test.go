package orderv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_BaseAssetAmountRemaining(t *testing.T) {
	o := &Order{BaseAssetAmount: 100, BaseAssetAmountFilled: 40}
	assert.Equal(t, int64(60), o.BaseAssetAmountRemaining())

	o.BaseAssetAmountFilled = 100
	assert.True(t, o.IsBaseFilled())

	o.BaseAssetAmountFilled = 150
	assert.Equal(t, int64(0), o.BaseAssetAmountRemaining())
	assert.True(t, o.IsBaseFilled())
}

func TestOrder_IsExpired(t *testing.T) {
	o := &Order{MaxTs: 0}
	assert.False(t, o.IsExpired(1_000_000))

	o.MaxTs = 100
	assert.True(t, o.IsExpired(101))
	assert.False(t, o.IsExpired(100))
	assert.False(t, o.IsExpired(50))
}

func TestOrder_InAuction(t *testing.T) {
	o := &Order{Slot: 10, AuctionDuration: 5}
	assert.True(t, o.InAuction(10))
	assert.True(t, o.InAuction(15))
	assert.False(t, o.InAuction(16))

	o.AuctionDuration = 0
	assert.False(t, o.InAuction(10))
}

func TestOrder_IsRestingLimitOrder(t *testing.T) {
	postOnly := &Order{PostOnly: true, OrderType: OrderTypeMarket}
	assert.True(t, postOnly.IsRestingLimitOrder(0))

	market := &Order{OrderType: OrderTypeMarket}
	assert.False(t, market.IsRestingLimitOrder(0))

	inAuction := &Order{OrderType: OrderTypeLimit, Slot: 10, AuctionDuration: 5}
	assert.False(t, inAuction.IsRestingLimitOrder(12))
	assert.True(t, inAuction.IsRestingLimitOrder(20))
}

func TestOrder_IsTakingOrder(t *testing.T) {
	o := &Order{OrderType: OrderTypeLimit, Slot: 10, AuctionDuration: 5}
	assert.True(t, o.IsTakingOrder(12))
	assert.False(t, o.IsTakingOrder(20))

	o.PostOnly = true
	assert.False(t, o.IsTakingOrder(12))
}

func TestOrder_LimitPrice_Market(t *testing.T) {
	o := &Order{OrderType: OrderTypeMarket}
	_, ok := o.LimitPrice(OraclePriceData{}, 0)
	assert.False(t, ok)
}

func TestOrder_LimitPrice_TriggerMarketNotFired(t *testing.T) {
	o := &Order{OrderType: OrderTypeTriggerMarket, TriggerCondition: TriggerConditionAbove}
	_, ok := o.LimitPrice(OraclePriceData{}, 0)
	assert.False(t, ok)

	o.TriggerCondition = TriggerConditionTriggeredAbove
	price, ok := o.LimitPrice(OraclePriceData{Price: 500}, 0)
	assert.False(t, ok)
	assert.Equal(t, int64(0), price) // no static Price set, falls through to Price==0 check below auction/floating paths
}

func TestOrder_LimitPrice_Floating(t *testing.T) {
	o := &Order{OrderType: OrderTypeLimit, OraclePriceOffset: -1000}
	price, ok := o.LimitPrice(OraclePriceData{Price: 50_000}, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(49_000), price)
}

func TestOrder_LimitPrice_Auction(t *testing.T) {
	o := &Order{
		OrderType:         OrderTypeLimit,
		Slot:              100,
		AuctionDuration:   10,
		AuctionStartPrice: 1000,
		AuctionEndPrice:   2000,
	}

	price, ok := o.LimitPrice(OraclePriceData{}, 100)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), price)

	price, ok = o.LimitPrice(OraclePriceData{}, 105)
	assert.True(t, ok)
	assert.Equal(t, int64(1500), price)

	price, ok = o.LimitPrice(OraclePriceData{}, 110)
	assert.True(t, ok)
	assert.Equal(t, int64(2000), price)

	// Past the auction the static Price applies, and a zero Price means none.
	price, ok = o.LimitPrice(OraclePriceData{}, 200)
	assert.False(t, ok)
	assert.Equal(t, int64(0), price)
}

func TestOrder_LimitPrice_StaticFixedPrice(t *testing.T) {
	o := &Order{OrderType: OrderTypeLimit, Price: 42_000_000}
	price, ok := o.LimitPrice(OraclePriceData{}, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(42_000_000), price)
}

func TestOrder_LimitPrice_NoPriceNoAuction(t *testing.T) {
	o := &Order{OrderType: OrderTypeLimit}
	_, ok := o.LimitPrice(OraclePriceData{}, 0)
	assert.False(t, ok)
}

func TestDirection_IsBid(t *testing.T) {
	assert.True(t, DirectionLong.IsBid())
	assert.False(t, DirectionShort.IsBid())
}

func TestOrderType_Supported(t *testing.T) {
	assert.True(t, OrderTypeLimit.Supported())
	assert.True(t, OrderTypeOracle.Supported())
	assert.False(t, OrderType("unknown").Supported())
}

func TestTriggerCondition_Triggered(t *testing.T) {
	assert.True(t, TriggerConditionTriggeredAbove.Triggered())
	assert.True(t, TriggerConditionTriggeredBelow.Triggered())
	assert.False(t, TriggerConditionAbove.Triggered())
}
