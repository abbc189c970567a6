package dlobv1

import (
	"sync"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
)

type bookKey struct {
	marketType  orderv1.MarketType
	marketIndex uint16
}

// nodeRef locates a live node: the book and NodeList it currently occupies.
// Kept in DLOB.nodeIndex so update/delete/trigger don't need to search every
// list in every book.
type nodeRef struct {
	book *MarketBook
	list *NodeList
}

// DLOB is the top-level container: it owns every MarketBook, an index of
// currently-open order keys per market type, and the monotonic watermark
// that gates taking-limit → resting-limit promotion. It is not internally
// synchronized against concurrent callers beyond a single mutex guarding
// the whole structure; per the single-threaded cooperative model it mirrors,
// that mutex exists to make "single owning goroutine" an enforced fact
// rather than an assumption, not to support fine-grained concurrent access.
type DLOB struct {
	mu sync.Mutex

	books      map[bookKey]*MarketBook
	nodeIndex  map[orderv1.Key]nodeRef
	openOrders map[orderv1.MarketType]map[orderv1.Key]struct{}

	maxSlotForRestingLimitOrders uint64
	initialized                  bool

	log logger.Interface
}

// NewDLOB constructs an empty DLOB. log may be nil; a nil logger silently
// drops the defensive warnings classification failures would otherwise emit.
func NewDLOB(log logger.Interface) *DLOB {
	d := &DLOB{log: log}
	d.reset()
	return d
}

func (d *DLOB) reset() {
	d.books = make(map[bookKey]*MarketBook)
	d.nodeIndex = make(map[orderv1.Key]nodeRef)
	d.openOrders = map[orderv1.MarketType]map[orderv1.Key]struct{}{
		orderv1.MarketTypePerp: make(map[orderv1.Key]struct{}),
		orderv1.MarketTypeSpot: make(map[orderv1.Key]struct{}),
	}
	d.maxSlotForRestingLimitOrders = 0
	d.initialized = false
}

// Clear drops every order and resets the DLOB to its initial empty state.
func (d *DLOB) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *DLOB) bookFor(marketType orderv1.MarketType, marketIndex uint16) *MarketBook {
	key := bookKey{marketType, marketIndex}
	book, ok := d.books[key]
	if !ok {
		book = newMarketBook(marketType, marketIndex)
		d.books[key] = book
	}
	return book
}

// bookIfExists returns the book for (marketType, marketIndex) without
// creating one, for read-only queries.
func (d *DLOB) bookIfExists(marketType orderv1.MarketType, marketIndex uint16) (*MarketBook, bool) {
	book, ok := d.books[bookKey{marketType, marketIndex}]
	return book, ok
}

func (d *DLOB) openOrdersFor(marketType orderv1.MarketType) map[orderv1.Key]struct{} {
	set, ok := d.openOrders[marketType]
	if !ok {
		set = make(map[orderv1.Key]struct{})
		d.openOrders[marketType] = set
	}
	return set
}

// InitFromSnapshot loads every user's open orders at once, as of slot. It is
// a no-op returning false if the DLOB has already been initialized once.
func (d *DLOB) InitFromSnapshot(users []orderv1.UserAccount, slot uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return false
	}
	for _, u := range users {
		for _, o := range u.Orders {
			d.insertOrderLocked(o, slot)
		}
	}
	d.initialized = true
	return true
}

// InitFromOrders loads a flat list of order records at once, as of slot.
// Equivalent to InitFromSnapshot for callers that already hold a flattened
// view rather than a per-user one.
func (d *DLOB) InitFromOrders(records []orderv1.OrderRecord, slot uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return false
	}
	for _, rec := range records {
		d.insertOrderLocked(rec.Order, slot)
	}
	d.initialized = true
	return true
}

// HandleOrderRecord applies a single observed order record, equivalent to
// InsertOrder.
func (d *DLOB) HandleOrderRecord(rec orderv1.OrderRecord, slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.insertOrderLocked(rec.Order, slot)
}

// HandleOrderActionRecord applies a single observed order-action record.
// place and expire carry no DLOB mutation: the order is already present,
// and expiry is discovered on query rather than on this event.
func (d *DLOB) HandleOrderActionRecord(rec orderv1.OrderActionRecord, slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch rec.Action {
	case orderv1.ActionPlace, orderv1.ActionExpire:
		return
	case orderv1.ActionTrigger:
		if rec.Taker != nil {
			d.triggerLocked(rec.Taker.Key(), slot)
		}
		if rec.Maker != nil {
			d.triggerLocked(rec.Maker.Key(), slot)
		}
	case orderv1.ActionFill:
		if rec.Taker != nil {
			d.updateOrderLocked(rec.Taker.Key(), slot, rec.Taker.CumulativeBaseAssetAmountFilled)
		}
		if rec.Maker != nil {
			d.updateOrderLocked(rec.Maker.Key(), slot, rec.Maker.CumulativeBaseAssetAmountFilled)
		}
	case orderv1.ActionCancel:
		d.updateRestingLimitOrdersLocked(slot)
		if rec.Taker != nil {
			d.deleteOrderLocked(rec.Taker.Key())
		}
		if rec.Maker != nil {
			d.deleteOrderLocked(rec.Maker.Key())
		}
	}
}

// InsertOrder adds or replaces o in the book as of slot. Orders with status
// init, or an unsupported order type, are silently ignored.
func (d *DLOB) InsertOrder(o *orderv1.Order, slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.insertOrderLocked(o, slot)
}

func (d *DLOB) insertOrderLocked(o *orderv1.Order, slot uint64) {
	if o.Status == orderv1.StatusInit || !o.OrderType.Supported() {
		return
	}
	d.updateRestingLimitOrdersLocked(slot)

	key := o.Key()
	// A duplicate insert is treated as a fresh observation: remove whatever
	// is currently indexed for this key and re-derive its classification,
	// rather than preserving stale list position. The post-state is the
	// same as if this were the only insert for the key.
	if ref, exists := d.nodeIndex[key]; exists {
		ref.list.Remove(key)
		delete(d.nodeIndex, key)
	}

	book := d.bookFor(o.MarketType, o.MarketIndex)
	classification := classify(o, slot)
	list := book.listFor(classification, o.IsBid())
	if list == nil {
		if d.log != nil {
			d.log.Warn("dlob: no node list for order classification",
				logger.NewField("order_id", o.OrderID),
				logger.NewField("classification", string(classification)),
			)
		}
		return
	}

	list.Insert(o)
	d.nodeIndex[key] = nodeRef{book: book, list: list}

	openOrders := d.openOrdersFor(o.MarketType)
	if o.Status == orderv1.StatusOpen {
		openOrders[key] = struct{}{}
	} else {
		delete(openOrders, key)
	}
}

// UpdateOrder applies a new cumulative filled amount to the order at key, as
// of slot. A new filled amount equal to the order's full size deletes the
// order; equal to its current filled amount is a no-op (idempotent replay).
func (d *DLOB) UpdateOrder(key orderv1.Key, slot uint64, newCumulativeFilled int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateOrderLocked(key, slot, newCumulativeFilled)
}

func (d *DLOB) updateOrderLocked(key orderv1.Key, slot uint64, newCumulativeFilled int64) {
	d.updateRestingLimitOrdersLocked(slot)

	ref, ok := d.nodeIndex[key]
	if !ok {
		return
	}
	node, ok := ref.list.Get(key)
	if !ok {
		return
	}

	if newCumulativeFilled == node.Order.BaseAssetAmount {
		d.deleteOrderLocked(key)
		return
	}
	if newCumulativeFilled == node.Order.BaseAssetAmountFilled {
		return
	}
	node.Order.BaseAssetAmountFilled = newCumulativeFilled
}

// DeleteOrder removes the order at key from the book, as of slot.
func (d *DLOB) DeleteOrder(key orderv1.Key, slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)
	d.deleteOrderLocked(key)
}

func (d *DLOB) deleteOrderLocked(key orderv1.Key) {
	ref, ok := d.nodeIndex[key]
	if !ok {
		return
	}
	node, _ := ref.list.Get(key)
	ref.list.Remove(key)
	delete(d.nodeIndex, key)
	if node != nil {
		delete(d.openOrdersFor(node.Order.MarketType), key)
	}
}

// Trigger fires an inactive conditional order at key: it moves the order
// from its trigger.{above|below} list through the general classification
// path, where it lands as Market, Taking-Limit, Floating-Limit, or (for a
// post-only or auction-elapsed limit) Resting-Limit per its fields. A no-op
// if the key is unknown or not currently a trigger node.
func (d *DLOB) Trigger(key orderv1.Key, slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.triggerLocked(key, slot)
}

func (d *DLOB) triggerLocked(key orderv1.Key, slot uint64) {
	ref, ok := d.nodeIndex[key]
	if !ok {
		return
	}
	node, ok := ref.list.Get(key)
	if !ok || !node.Classification.IsTrigger() {
		return
	}

	o := node.Order
	switch o.TriggerCondition {
	case orderv1.TriggerConditionAbove:
		o.TriggerCondition = orderv1.TriggerConditionTriggeredAbove
	case orderv1.TriggerConditionBelow:
		o.TriggerCondition = orderv1.TriggerConditionTriggeredBelow
	}

	ref.list.Remove(key)
	delete(d.nodeIndex, key)
	d.insertOrderLocked(o, slot)
}

// UpdateRestingLimitOrders promotes every taking-limit node whose auction
// has elapsed at slot into its market's resting-limit list. It is a no-op
// unless slot has advanced past the current watermark, and collects every
// node to promote before mutating any list, so the scan is never
// invalidated by its own writes.
func (d *DLOB) UpdateRestingLimitOrders(slot uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)
}

func (d *DLOB) updateRestingLimitOrdersLocked(slot uint64) {
	if slot <= d.maxSlotForRestingLimitOrders {
		return
	}
	d.maxSlotForRestingLimitOrders = slot

	for _, book := range d.books {
		d.promoteTakingLimitLocked(book.TakingLimitAsks, slot)
		d.promoteTakingLimitLocked(book.TakingLimitBids, slot)
	}
}

func (d *DLOB) promoteTakingLimitLocked(list *NodeList, slot uint64) {
	var toPromote []*OrderNode
	list.Each(func(n *OrderNode) {
		if n.Order.IsRestingLimitOrder(slot) {
			toPromote = append(toPromote, n)
		}
	})
	for _, n := range toPromote {
		key := n.Key()
		list.Remove(key)
		delete(d.nodeIndex, key)
		d.insertOrderLocked(n.Order, slot)
	}
}

// GetOrder returns the order currently indexed under key, if any.
func (d *DLOB) GetOrder(key orderv1.Key) (*orderv1.Order, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ref, ok := d.nodeIndex[key]
	if !ok {
		return nil, false
	}
	node, ok := ref.list.Get(key)
	if !ok {
		return nil, false
	}
	return node.Order, true
}

// GetDLOBOrders flattens every node currently held by the DLOB into order
// records, in no particular order.
func (d *DLOB) GetDLOBOrders() []orderv1.OrderRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]orderv1.OrderRecord, 0, len(d.nodeIndex))
	for key, ref := range d.nodeIndex {
		node, ok := ref.list.Get(key)
		if !ok {
			continue
		}
		out = append(out, orderv1.OrderRecord{
			UserAccount: key.UserAccount,
			Order:       node.Order,
		})
	}
	return out
}
