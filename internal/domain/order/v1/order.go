// Package orderv1 defines the order value types the DLOB mirrors: the fixed-point
// order record itself, its market/side/type enums, and the oracle price input used
// to resolve floating and auction-priced orders.
package orderv1

// PricePrecision and BasePrecision are the fixed-point scales used throughout the
// mirror: prices carry 1e6 of precision, base asset amounts carry 1e9.
const (
	PricePrecision = 1_000_000
	BasePrecision  = 1_000_000_000
)

// MarketType distinguishes the two market families the DLOB tracks independently.
type MarketType string

const (
	MarketTypePerp MarketType = "perp"
	MarketTypeSpot MarketType = "spot"
)

// Direction is the side of the book an order rests on.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// IsBid reports whether the direction resolves to a bid (buy) order.
func (d Direction) IsBid() bool {
	return d == DirectionLong
}

// OrderType is the order's execution style.
type OrderType string

const (
	OrderTypeMarket        OrderType = "market"
	OrderTypeLimit         OrderType = "limit"
	OrderTypeTriggerMarket OrderType = "trigger_market"
	OrderTypeTriggerLimit  OrderType = "trigger_limit"
	OrderTypeOracle        OrderType = "oracle"
)

// Supported reports whether the DLOB understands this order type. Unknown types
// are ignored on ingestion rather than rejected.
func (t OrderType) Supported() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeTriggerMarket, OrderTypeTriggerLimit, OrderTypeOracle:
		return true
	default:
		return false
	}
}

// Status is the order's lifecycle state as last observed by the mirror.
type Status string

const (
	StatusInit     Status = "init"
	StatusOpen     Status = "open"
	StatusFilled   Status = "filled"
	StatusCanceled Status = "canceled"
)

// TriggerCondition is the direction a conditional order arms against.
type TriggerCondition string

const (
	TriggerConditionAbove          TriggerCondition = "above"
	TriggerConditionBelow          TriggerCondition = "below"
	TriggerConditionTriggeredAbove TriggerCondition = "triggered_above"
	TriggerConditionTriggeredBelow TriggerCondition = "triggered_below"
)

// Triggered reports whether the condition reflects an order that has already fired.
func (c TriggerCondition) Triggered() bool {
	return c == TriggerConditionTriggeredAbove || c == TriggerConditionTriggeredBelow
}

// Key identifies an order uniquely within the DLOB.
type Key struct {
	OrderID     uint64
	UserAccount string
}

// Order is the fixed-point order record the mirror ingests and classifies.
type Order struct {
	OrderID     uint64
	UserAccount string
	MarketType  MarketType
	MarketIndex uint16
	Direction   Direction
	OrderType   OrderType
	Status      Status

	BaseAssetAmount       int64 // fixed-point, BasePrecision
	BaseAssetAmountFilled int64 // fixed-point, BasePrecision

	Price             int64 // fixed-point, PricePrecision; 0 means "no price"
	OraclePriceOffset int64 // fixed-point, PricePrecision; nonzero => floating

	AuctionStartPrice int64
	AuctionEndPrice   int64
	AuctionDuration   int64  // slots
	Slot              uint64 // submission slot

	TriggerPrice     int64
	TriggerCondition TriggerCondition

	PostOnly          bool
	MaxTs             int64 // unix seconds; 0 = never expires
	ReduceOnly        bool
	ImmediateOrCancel bool
}

// Key returns the order's unique identity within the DLOB.
func (o *Order) Key() Key {
	return Key{OrderID: o.OrderID, UserAccount: o.UserAccount}
}

// IsBid reports whether the order rests on the bid side.
func (o *Order) IsBid() bool {
	return o.Direction.IsBid()
}

// BaseAssetAmountRemaining returns the unfilled portion of the order.
func (o *Order) BaseAssetAmountRemaining() int64 {
	remaining := o.BaseAssetAmount - o.BaseAssetAmountFilled
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsBaseFilled reports whether the order has no remaining base amount.
func (o *Order) IsBaseFilled() bool {
	return o.BaseAssetAmountRemaining() <= 0
}

// MustBeTriggered reports whether the order is a conditional order that requires
// a trigger event before it can be matched.
func (o *Order) MustBeTriggered() bool {
	return o.OrderType == OrderTypeTriggerMarket || o.OrderType == OrderTypeTriggerLimit
}

// IsTriggered reports whether a must-be-triggered order has already fired.
func (o *Order) IsTriggered() bool {
	return o.TriggerCondition.Triggered()
}

// IsFloating reports whether the order's limit price tracks the oracle with a
// fixed offset rather than a static price.
func (o *Order) IsFloating() bool {
	return o.OraclePriceOffset != 0
}

// IsExpired reports whether the order has passed its max timestamp as of ts.
func (o *Order) IsExpired(ts int64) bool {
	return o.MaxTs != 0 && o.MaxTs < ts
}

// InAuction reports whether slot still falls inside the order's auction window.
func (o *Order) InAuction(slot uint64) bool {
	if o.AuctionDuration <= 0 {
		return false
	}
	return slot <= o.Slot+uint64(o.AuctionDuration)
}

// IsRestingLimitOrder reports whether the order, as of slot, behaves as a
// resting-limit order: either it was placed post-only (resting from inception)
// or it is a fixed-price limit whose auction window has elapsed.
func (o *Order) IsRestingLimitOrder(slot uint64) bool {
	if o.PostOnly {
		return true
	}
	if o.OrderType != OrderTypeLimit && o.OrderType != OrderTypeTriggerLimit && o.OrderType != OrderTypeOracle {
		return false
	}
	return !o.InAuction(slot)
}

// IsTakingOrder reports whether the order, as of slot, is still inside its
// auction window and therefore matched by submission order rather than price.
func (o *Order) IsTakingOrder(slot uint64) bool {
	if o.PostOnly {
		return false
	}
	return o.InAuction(slot)
}

// OraclePriceData is the external oracle observation a limit-price resolution
// and a trigger evaluation is performed against.
type OraclePriceData struct {
	Price int64 // fixed-point, PricePrecision
	Slot  uint64
}

// LimitPrice resolves the order's effective limit price at the given oracle
// observation and slot. Market orders and unfired trigger-market orders have
// no limit price (ok=false); neither does an order with no oracle offset, no
// active auction and a zero Price.
func (o *Order) LimitPrice(oracle OraclePriceData, slot uint64) (price int64, ok bool) {
	switch o.OrderType {
	case OrderTypeMarket:
		return 0, false
	case OrderTypeTriggerMarket:
		if !o.IsTriggered() {
			return 0, false
		}
	}

	if o.IsFloating() {
		return oracle.Price + o.OraclePriceOffset, true
	}

	if o.InAuction(slot) && o.AuctionDuration > 0 {
		return auctionPrice(o, slot), true
	}

	if o.Price == 0 {
		return 0, false
	}
	return o.Price, true
}

// auctionPrice linearly interpolates between the auction start and end price
// over the auction's duration in slots.
func auctionPrice(o *Order, slot uint64) int64 {
	elapsed := int64(slot) - int64(o.Slot)
	if elapsed <= 0 {
		return o.AuctionStartPrice
	}
	if elapsed >= o.AuctionDuration {
		return o.AuctionEndPrice
	}
	delta := o.AuctionEndPrice - o.AuctionStartPrice
	return o.AuctionStartPrice + delta*elapsed/o.AuctionDuration
}
