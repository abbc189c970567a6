package dlobv1

import (
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// resolveOracle returns the oracle value to compare against, treating a nil
// pointer (no oracle supplied) as the zero observation.
func resolveOracle(oracle *orderv1.OraclePriceData) orderv1.OraclePriceData {
	if oracle == nil {
		return orderv1.OraclePriceData{}
	}
	return *oracle
}

// GetTakingBids returns every taking-side bid (market + taking-limit),
// oldest submission slot first, skipping fully-filled nodes.
func (d *DLOB) GetTakingBids(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, filter FilterFunc) []*OrderNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)
	return collect(d.takingLocked(marketType, marketIndex, slot, oracle, filter, false), 0)
}

// GetTakingAsks is the ask-side symmetric of GetTakingBids.
func (d *DLOB) GetTakingAsks(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, filter FilterFunc) []*OrderNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)
	return collect(d.takingLocked(marketType, marketIndex, slot, oracle, filter, true), 0)
}

func (d *DLOB) takingLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, filter FilterFunc, isAsk bool) nodeSource {
	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return chain()
	}
	market, taking := book.MarketBids, book.TakingLimitBids
	if isAsk {
		market, taking = book.MarketAsks, book.TakingLimitAsks
	}
	return mergeIterators(bySlot, filter, market.Iterator(oracle, slot), taking.Iterator(oracle, slot))
}

// GetRestingLimitAsks returns every resting maker ask (resting-limit +
// floating-limit), best (lowest) effective price first. Spot markets
// require an oracle observation; its absence is ErrMissingOracle.
func (d *DLOB) GetRestingLimitAsks(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle *orderv1.OraclePriceData, filter FilterFunc) ([]*OrderNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.restingLimitLocked(marketType, marketIndex, slot, oracle, filter, true)
}

// GetRestingLimitBids is the bid-side symmetric of GetRestingLimitAsks: best
// (highest) effective price first.
func (d *DLOB) GetRestingLimitBids(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle *orderv1.OraclePriceData, filter FilterFunc) ([]*OrderNode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.restingLimitLocked(marketType, marketIndex, slot, oracle, filter, false)
}

func (d *DLOB) restingLimitLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle *orderv1.OraclePriceData, filter FilterFunc, ascending bool) ([]*OrderNode, error) {
	if marketType == orderv1.MarketTypeSpot && oracle == nil {
		return nil, errMissingOracle("oracle_price_data")
	}
	d.updateRestingLimitOrdersLocked(slot)

	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return nil, nil
	}

	ob := resolveOracle(oracle)
	resting, floating := book.RestingLimitAsks, book.FloatingLimitAsks
	if !ascending {
		resting, floating = book.RestingLimitBids, book.FloatingLimitBids
	}

	it := mergeIterators(byEffectivePrice(ob, slot, ascending), filter, resting.Iterator(ob, slot), floating.Iterator(ob, slot))
	return collect(it, 0), nil
}

// GetMakerLimitAsks wraps GetRestingLimitAsks, excluding (perp markets only,
// when a fallback bid is supplied) any maker ask priced below the fallback
// bid — such a maker would already cross the fallback and so is not a
// genuine passive counterparty for a taker needing this liquidity.
func (d *DLOB) GetMakerLimitAsks(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle *orderv1.OraclePriceData, fallbackBid *int64, filter FilterFunc) ([]*OrderNode, error) {
	return d.GetRestingLimitAsks(marketType, marketIndex, slot, oracle, combineFilters(filter, makerFallbackFilter(marketType, resolveOracle(oracle), slot, fallbackBid, false)))
}

// GetMakerLimitBids is the bid-side symmetric of GetMakerLimitAsks: excludes
// any maker bid priced above the fallback ask.
func (d *DLOB) GetMakerLimitBids(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle *orderv1.OraclePriceData, fallbackAsk *int64, filter FilterFunc) ([]*OrderNode, error) {
	return d.GetRestingLimitBids(marketType, marketIndex, slot, oracle, combineFilters(filter, makerFallbackFilter(marketType, resolveOracle(oracle), slot, fallbackAsk, true)))
}

// makerLimitLocked is the mutex-free core behind GetMakerLimitAsks/Bids, for
// reuse inside match.go operations that already hold the lock.
func (d *DLOB) makerLimitLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallback *int64, filter FilterFunc, ascending bool) []*OrderNode {
	ob := oracle
	out, err := d.restingLimitLocked(marketType, marketIndex, slot, &ob, combineFilters(filter, makerFallbackFilter(marketType, oracle, slot, fallback, !ascending)), ascending)
	if err != nil {
		return nil
	}
	return out
}

// makerFallbackFilter builds the perp-only "don't already cross fallback"
// filter shared by GetMakerLimitAsks/Bids. forBids selects whether the
// bound excludes makers above (bids) or below (asks) the supplied fallback.
func makerFallbackFilter(marketType orderv1.MarketType, oracle orderv1.OraclePriceData, slot uint64, fallback *int64, forBids bool) FilterFunc {
	if marketType != orderv1.MarketTypePerp || fallback == nil {
		return nil
	}
	return func(n *OrderNode) bool {
		price, ok := n.EffectivePrice(oracle, slot)
		if !ok {
			return true
		}
		if forBids {
			return price <= *fallback
		}
		return price >= *fallback
	}
}

func combineFilters(a, b FilterFunc) FilterFunc {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(n *OrderNode) bool { return a(n) && b(n) }
}

// GetAsks merges taking asks, resting maker asks, and (perp, when supplied)
// a synthetic vAMM quote at fallbackAsk into one sequence. Taking nodes are
// yielded entirely before any resting node; BestAsk is this sequence's head.
func (d *DLOB) GetAsks(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackAsk *int64, filter FilterFunc) []*OrderNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return collect(d.asksLocked(marketType, marketIndex, slot, oracle, fallbackAsk, filter), 0)
}

// GetBids is the bid-side symmetric of GetAsks.
func (d *DLOB) GetBids(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackBid *int64, filter FilterFunc) []*OrderNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return collect(d.bidsLocked(marketType, marketIndex, slot, oracle, fallbackBid, filter), 0)
}

func (d *DLOB) asksLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackAsk *int64, filter FilterFunc) nodeSource {
	d.updateRestingLimitOrdersLocked(slot)
	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return chain()
	}

	taking := mergeIterators(bySlot, filter, book.MarketAsks.Iterator(oracle, slot), book.TakingLimitAsks.Iterator(oracle, slot))

	restingSources := []nodeSource{book.RestingLimitAsks.Iterator(oracle, slot), book.FloatingLimitAsks.Iterator(oracle, slot)}
	if marketType == orderv1.MarketTypePerp && fallbackAsk != nil {
		restingSources = append(restingSources, singleNode(fallbackNode(*fallbackAsk, false)))
	}
	resting := mergeIterators(byEffectivePrice(oracle, slot, true), filter, restingSources...)

	return chain(taking, resting)
}

func (d *DLOB) bidsLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackBid *int64, filter FilterFunc) nodeSource {
	d.updateRestingLimitOrdersLocked(slot)
	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return chain()
	}

	taking := mergeIterators(bySlot, filter, book.MarketBids.Iterator(oracle, slot), book.TakingLimitBids.Iterator(oracle, slot))

	restingSources := []nodeSource{book.RestingLimitBids.Iterator(oracle, slot), book.FloatingLimitBids.Iterator(oracle, slot)}
	if marketType == orderv1.MarketTypePerp && fallbackBid != nil {
		restingSources = append(restingSources, singleNode(fallbackNode(*fallbackBid, true)))
	}
	resting := mergeIterators(byEffectivePrice(oracle, slot, false), filter, restingSources...)

	return chain(taking, resting)
}

// BestAsk returns the single best ask under the same ordering as GetAsks.
func (d *DLOB) BestAsk(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackAsk *int64) (*OrderNode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.asksLocked(marketType, marketIndex, slot, oracle, fallbackAsk, nil).Next()
}

// BestBid returns the single best bid under the same ordering as GetBids.
func (d *DLOB) BestBid(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackBid *int64) (*OrderNode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bidsLocked(marketType, marketIndex, slot, oracle, fallbackBid, nil).Next()
}

// FindNodesToTrigger returns every inactive conditional order whose trigger
// condition the given oracle price now satisfies. An empty result if the
// exchange is paused.
func (d *DLOB) FindNodesToTrigger(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oraclePrice int64, state StateAccount) []*OrderNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state.ExchangePaused {
		return nil
	}
	d.updateRestingLimitOrdersLocked(slot)

	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return nil
	}

	var out []*OrderNode
	above := book.TriggerAbove.Iterator(orderv1.OraclePriceData{}, slot)
	for {
		n, ok := above.Next()
		if !ok {
			break
		}
		if oraclePrice <= n.Order.TriggerPrice {
			break
		}
		out = append(out, n)
	}

	below := book.TriggerBelow.Iterator(orderv1.OraclePriceData{}, slot)
	for {
		n, ok := below.Next()
		if !ok {
			break
		}
		if oraclePrice >= n.Order.TriggerPrice {
			break
		}
		out = append(out, n)
	}
	return out
}
