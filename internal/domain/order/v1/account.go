package orderv1

// UserAccount is a user's full order array as observed in a startup
// snapshot, keyed by the user's opaque account identifier.
type UserAccount struct {
	Key    string
	Orders []*Order
}

// OrderRecord pairs an order with the account that owns it, as observed by
// a single ingestion event.
type OrderRecord struct {
	UserAccount string
	Order       *Order
}

// ActionType is the order-action variant carried by an OrderActionRecord.
type ActionType string

const (
	ActionPlace   ActionType = "place"
	ActionExpire  ActionType = "expire"
	ActionTrigger ActionType = "trigger"
	ActionFill    ActionType = "fill"
	ActionCancel  ActionType = "cancel"
)

// OrderActionSide identifies one side (taker or maker) of an order-action
// event. CumulativeBaseAssetAmountFilled only applies to fill actions.
type OrderActionSide struct {
	OrderID                         uint64
	UserAccount                     string
	CumulativeBaseAssetAmountFilled int64
}

// Key returns the side's order identity.
func (s *OrderActionSide) Key() Key {
	return Key{OrderID: s.OrderID, UserAccount: s.UserAccount}
}

// OrderActionRecord describes one action against up to two orders (a taker
// and, where the action involves a match, a maker). Either side may be nil
// when the action record does not carry it.
type OrderActionRecord struct {
	Action      ActionType
	MarketType  MarketType
	MarketIndex uint16
	Taker       *OrderActionSide
	Maker       *OrderActionSide
}
