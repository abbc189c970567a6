package dlobv1

import (
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// NodeToFill pairs a taker node with the maker nodes it was matched against.
// An empty MakerNodes means the taker was filled by fallback liquidity, or
// is expired, rather than matched against a resting order.
type NodeToFill struct {
	Node       *OrderNode
	MakerNodes []*OrderNode
}

// MarketAccount carries the per-market pause flags FindNodesToFill consults.
// It intentionally carries nothing about fees or margin: the DLOB does not
// compute either.
type MarketAccount struct {
	MarketType  orderv1.MarketType
	MarketIndex uint16
	FillPaused  bool
	AmmPaused   bool
}

// StateAccount carries the program-wide pause flags and auction parameters
// FindNodesToFill and FindNodesToTrigger consult.
type StateAccount struct {
	ExchangePaused         bool
	MinPerpAuctionDuration int64
}

func fillPaused(state StateAccount, market MarketAccount) bool {
	return state.ExchangePaused || market.FillPaused
}

func ammPaused(state StateAccount, market MarketAccount) bool {
	return state.ExchangePaused || market.AmmPaused
}

// fillShadow is the query-local simulated-fill ledger that lets
// FindNodesToFill reason about remaining size across multiple pairings
// within one call without ever writing to an order's real
// BaseAssetAmountFilled field. It is discarded when the call returns.
type fillShadow map[orderv1.Key]int64

func (s fillShadow) remaining(n *OrderNode) int64 {
	filled := n.Order.BaseAssetAmountFilled
	if shadowed, ok := s[n.Key()]; ok {
		filled = shadowed
	}
	remaining := n.Order.BaseAssetAmount - filled
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s fillShadow) applyFill(n *OrderNode, amount int64) {
	filled := n.Order.BaseAssetAmountFilled
	if shadowed, ok := s[n.Key()]; ok {
		filled = shadowed
	}
	s[n.Key()] = filled + amount
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// determineMakerAndTaker resolves which of a crossing ask/bid pair is maker
// and which is taker. Both post-only is unmatched. Exactly one post-only
// makes that side maker. Otherwise, the ask is taker only if its auction
// completes strictly earlier than the bid's; otherwise (including a tie) the
// bid is taker and the ask the maker.
func determineMakerAndTaker(ask, bid *OrderNode) (taker, maker *OrderNode, matched bool) {
	askPostOnly := ask.Order.PostOnly
	bidPostOnly := bid.Order.PostOnly

	switch {
	case askPostOnly && bidPostOnly:
		return nil, nil, false
	case askPostOnly:
		return bid, ask, true
	case bidPostOnly:
		return ask, bid, true
	}

	askEnd := ask.Order.Slot + uint64(maxInt64(ask.Order.AuctionDuration, 0))
	bidEnd := bid.Order.Slot + uint64(maxInt64(bid.Order.AuctionDuration, 0))
	if askEnd < bidEnd {
		return ask, bid, true
	}
	return bid, ask, true
}

// FindNodesToFill runs the full matching sweep for one market as of slot:
// resting-vs-resting crosses, resting-vs-fallback crosses, taking-vs-maker
// crosses, taking-vs-fallback crosses, and expired orders. It is a pure
// query: every simulated fill lives in a call-local shadow ledger and never
// touches a real order's filled amount.
func (d *DLOB) FindNodesToFill(
	marketType orderv1.MarketType,
	marketIndex uint16,
	slot uint64,
	ts int64,
	oracle orderv1.OraclePriceData,
	fallbackBid, fallbackAsk *int64,
	state StateAccount,
	market MarketAccount,
) []NodeToFill {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fillPaused(state, market) {
		return nil
	}
	amm := ammPaused(state, market)
	minAuctionDuration := int64(0)
	if marketType == orderv1.MarketTypePerp {
		minAuctionDuration = state.MinPerpAuctionDuration
	}

	d.updateRestingLimitOrdersLocked(slot)
	shadow := make(fillShadow)

	resting := d.findCrossingRestingLimitOrdersLocked(marketType, marketIndex, slot, oracle, shadow)
	if !amm {
		if fallbackBid != nil {
			resting = append(resting, d.findAsksCrossingFallbackBidLocked(marketType, marketIndex, slot, oracle, *fallbackBid, shadow)...)
		}
		if fallbackAsk != nil {
			resting = append(resting, d.findBidsCrossingFallbackAskLocked(marketType, marketIndex, slot, oracle, *fallbackAsk, shadow)...)
		}
	}

	taking := d.findTakingNodesToFillLocked(marketType, marketIndex, slot, oracle, fallbackBid, fallbackAsk, amm, minAuctionDuration, shadow)
	expired := d.findExpiredNodesToFillLocked(marketType, marketIndex, ts)

	if marketType == orderv1.MarketTypeSpot {
		out := make([]NodeToFill, 0, len(resting)+len(taking)+len(expired))
		out = append(out, resting...)
		out = append(out, taking...)
		out = append(out, expired...)
		return out
	}

	merged := mergeNodesToFill(resting, taking)
	merged = append(merged, expired...)
	return merged
}

// findCrossingRestingLimitOrdersLocked implements §4.4.2: for each resting
// ask, walk resting bids best-price-first, matching while prices still
// cross, excluding self-trades, and stopping once the ask is exhausted.
func (d *DLOB) findCrossingRestingLimitOrdersLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, shadow fillShadow) []NodeToFill {
	asks, _ := d.restingLimitLocked(marketType, marketIndex, slot, &oracle, nil, true)

	var out []NodeToFill
	for _, ask := range asks {
		if shadow.remaining(ask) <= 0 {
			continue
		}

		bids, _ := d.restingLimitLocked(marketType, marketIndex, slot, &oracle, nil, false)
		for _, bid := range bids {
			if shadow.remaining(bid) <= 0 {
				continue
			}

			askPrice, askOK := ask.EffectivePrice(oracle, slot)
			bidPrice, bidOK := bid.EffectivePrice(oracle, slot)
			if !askOK || !bidOK || bidPrice < askPrice {
				break
			}
			if ask.Order.UserAccount == bid.Order.UserAccount {
				continue
			}

			taker, maker, matched := determineMakerAndTaker(ask, bid)
			if !matched {
				continue
			}

			filled := minInt64(shadow.remaining(ask), shadow.remaining(bid))
			if filled <= 0 {
				continue
			}
			shadow.applyFill(ask, filled)
			shadow.applyFill(bid, filled)
			out = append(out, NodeToFill{Node: taker, MakerNodes: []*OrderNode{maker}})

			if shadow.remaining(ask) <= 0 {
				break
			}
		}
	}
	return out
}

// findAsksCrossingFallbackBidLocked fills, against unlimited fallback
// liquidity, every resting ask priced at or below fallbackBid.
func (d *DLOB) findAsksCrossingFallbackBidLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackBid int64, shadow fillShadow) []NodeToFill {
	asks, _ := d.restingLimitLocked(marketType, marketIndex, slot, &oracle, nil, true)

	var out []NodeToFill
	for _, ask := range asks {
		remaining := shadow.remaining(ask)
		if remaining <= 0 {
			continue
		}
		price, ok := ask.EffectivePrice(oracle, slot)
		if !ok || price > fallbackBid {
			continue
		}
		shadow.applyFill(ask, remaining)
		out = append(out, NodeToFill{Node: ask})
	}
	return out
}

// findBidsCrossingFallbackAskLocked fills, against unlimited fallback
// liquidity, every resting bid priced at or above fallbackAsk.
func (d *DLOB) findBidsCrossingFallbackAskLocked(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, fallbackAsk int64, shadow fillShadow) []NodeToFill {
	bids, _ := d.restingLimitLocked(marketType, marketIndex, slot, &oracle, nil, false)

	var out []NodeToFill
	for _, bid := range bids {
		remaining := shadow.remaining(bid)
		if remaining <= 0 {
			continue
		}
		price, ok := bid.EffectivePrice(oracle, slot)
		if !ok || price < fallbackAsk {
			continue
		}
		shadow.applyFill(bid, remaining)
		out = append(out, NodeToFill{Node: bid})
	}
	return out
}

// doesCross implements §4.4.3's DoesCross: spot takers always need a limit
// price; spot makers priced beyond the supplied fallback are excluded;
// otherwise a priceless taker always crosses and a priced taker crosses
// while its price has not passed the maker's.
func doesCross(marketType orderv1.MarketType, takerPrice int64, takerHasPrice bool, makerPrice int64, isAskTaker bool, fallback *int64) bool {
	if marketType == orderv1.MarketTypeSpot {
		if !takerHasPrice {
			return false
		}
		if fallback != nil {
			if isAskTaker && makerPrice < *fallback {
				return false
			}
			if !isAskTaker && makerPrice > *fallback {
				return false
			}
		}
	}
	if !takerHasPrice {
		return true
	}
	if isAskTaker {
		return takerPrice <= makerPrice
	}
	return takerPrice >= makerPrice
}

// findTakingNodesToFillLocked implements §4.4.3: taking asks crossing maker
// bids, taking bids crossing maker asks, and (perp, amm not paused) taking
// orders crossing fallback liquidity directly.
func (d *DLOB) findTakingNodesToFillLocked(
	marketType orderv1.MarketType,
	marketIndex uint16,
	slot uint64,
	oracle orderv1.OraclePriceData,
	fallbackBid, fallbackAsk *int64,
	ammPaused bool,
	minAuctionDuration int64,
	shadow fillShadow,
) []NodeToFill {
	var out []NodeToFill

	takingAsks := collect(d.takingLocked(marketType, marketIndex, slot, oracle, nil, true), 0)
	for _, taker := range takingAsks {
		if shadow.remaining(taker) <= 0 {
			continue
		}
		takerPrice, takerHasPrice := taker.EffectivePrice(oracle, slot)

		makerBids := d.makerLimitLocked(marketType, marketIndex, slot, oracle, fallbackAsk, nil, false)
		for _, maker := range makerBids {
			if shadow.remaining(maker) <= 0 {
				continue
			}
			makerPrice, ok := maker.EffectivePrice(oracle, slot)
			if !ok || !doesCross(marketType, takerPrice, takerHasPrice, makerPrice, true, fallbackBid) {
				break
			}
			if taker.Order.UserAccount == maker.Order.UserAccount {
				continue
			}
			filled := minInt64(shadow.remaining(taker), shadow.remaining(maker))
			if filled <= 0 {
				continue
			}
			shadow.applyFill(taker, filled)
			shadow.applyFill(maker, filled)
			out = append(out, NodeToFill{Node: taker, MakerNodes: []*OrderNode{maker}})
			if shadow.remaining(taker) <= 0 {
				break
			}
		}
	}

	takingBids := collect(d.takingLocked(marketType, marketIndex, slot, oracle, nil, false), 0)
	for _, taker := range takingBids {
		if shadow.remaining(taker) <= 0 {
			continue
		}
		takerPrice, takerHasPrice := taker.EffectivePrice(oracle, slot)

		makerAsks := d.makerLimitLocked(marketType, marketIndex, slot, oracle, fallbackBid, nil, true)
		for _, maker := range makerAsks {
			if shadow.remaining(maker) <= 0 {
				continue
			}
			makerPrice, ok := maker.EffectivePrice(oracle, slot)
			if !ok || !doesCross(marketType, takerPrice, takerHasPrice, makerPrice, false, fallbackAsk) {
				break
			}
			if taker.Order.UserAccount == maker.Order.UserAccount {
				continue
			}
			filled := minInt64(shadow.remaining(taker), shadow.remaining(maker))
			if filled <= 0 {
				continue
			}
			shadow.applyFill(taker, filled)
			shadow.applyFill(maker, filled)
			out = append(out, NodeToFill{Node: taker, MakerNodes: []*OrderNode{maker}})
			if shadow.remaining(taker) <= 0 {
				break
			}
		}
	}

	if !ammPaused {
		out = append(out, d.findTakingCrossingFallbackLocked(marketType, marketIndex, slot, oracle, fallbackBid, fallbackAsk, minAuctionDuration, shadow)...)
	}
	return out
}

// findTakingCrossingFallbackLocked fills, against fallback liquidity
// directly, any remaining taking node whose price crosses the fallback
// quote and which is eligible to source liquidity from fallback per
// isFallbackAvailableLiquiditySource.
func (d *DLOB) findTakingCrossingFallbackLocked(
	marketType orderv1.MarketType,
	marketIndex uint16,
	slot uint64,
	oracle orderv1.OraclePriceData,
	fallbackBid, fallbackAsk *int64,
	minAuctionDuration int64,
	shadow fillShadow,
) []NodeToFill {
	var out []NodeToFill

	if fallbackBid != nil {
		asks := collect(d.takingLocked(marketType, marketIndex, slot, oracle, nil, true), 0)
		for _, taker := range asks {
			remaining := shadow.remaining(taker)
			if remaining <= 0 {
				continue
			}
			price, hasPrice := taker.EffectivePrice(oracle, slot)
			if !doesCross(marketType, price, hasPrice, *fallbackBid, true, fallbackBid) {
				continue
			}
			if marketType != orderv1.MarketTypeSpot && !isFallbackAvailableLiquiditySource(taker.Order, minAuctionDuration, slot) {
				continue
			}
			shadow.applyFill(taker, remaining)
			out = append(out, NodeToFill{Node: taker})
		}
	}

	if fallbackAsk != nil {
		bids := collect(d.takingLocked(marketType, marketIndex, slot, oracle, nil, false), 0)
		for _, taker := range bids {
			remaining := shadow.remaining(taker)
			if remaining <= 0 {
				continue
			}
			price, hasPrice := taker.EffectivePrice(oracle, slot)
			if !doesCross(marketType, price, hasPrice, *fallbackAsk, false, fallbackAsk) {
				continue
			}
			if marketType != orderv1.MarketTypeSpot && !isFallbackAvailableLiquiditySource(taker.Order, minAuctionDuration, slot) {
				continue
			}
			shadow.applyFill(taker, remaining)
			out = append(out, NodeToFill{Node: taker})
		}
	}
	return out
}

// isFallbackAvailableLiquiditySource reports whether a perp taking order has
// been in its auction long enough that fallback is allowed to fill it: the
// auction must have run for at least minAuctionDuration slots.
func isFallbackAvailableLiquiditySource(o *orderv1.Order, minAuctionDuration int64, slot uint64) bool {
	if o.AuctionDuration <= 0 {
		return true
	}
	elapsed := int64(slot) - int64(o.Slot)
	return elapsed >= minAuctionDuration
}

// findExpiredNodesToFillLocked scans every non-trigger NodeList of a market
// for orders past their max_ts.
func (d *DLOB) findExpiredNodesToFillLocked(marketType orderv1.MarketType, marketIndex uint16, ts int64) []NodeToFill {
	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return nil
	}

	var out []NodeToFill
	for _, list := range []*NodeList{
		book.RestingLimitBids, book.RestingLimitAsks,
		book.FloatingLimitBids, book.FloatingLimitAsks,
		book.TakingLimitBids, book.TakingLimitAsks,
		book.MarketBids, book.MarketAsks,
	} {
		list.Each(func(n *OrderNode) {
			if n.Order.IsExpired(ts) {
				out = append(out, NodeToFill{Node: n})
			}
		})
	}
	return out
}

// mergeNodesToFill implements §4.4.1 step 7 for perp markets: resting and
// taking taker nodes sharing a key are deduplicated, unioning their
// maker-node lists.
func mergeNodesToFill(resting, taking []NodeToFill) []NodeToFill {
	byKey := make(map[orderv1.Key]int, len(resting)+len(taking))
	var out []NodeToFill

	add := func(ntf NodeToFill) {
		key := ntf.Node.Key()
		if idx, ok := byKey[key]; ok {
			out[idx].MakerNodes = append(out[idx].MakerNodes, ntf.MakerNodes...)
			return
		}
		byKey[key] = len(out)
		out = append(out, ntf)
	}

	for _, ntf := range resting {
		add(ntf)
	}
	for _, ntf := range taking {
		add(ntf)
	}
	return out
}

// FindJitAuctionNodesToFill returns every taking node still inside its
// auction window: the short post-submission period during which a newly
// placed order may be matched at an improving price by a JIT maker.
func (d *DLOB) FindJitAuctionNodesToFill(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData) []NodeToFill {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)

	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return nil
	}

	var out []NodeToFill
	for _, list := range []*NodeList{book.TakingLimitBids, book.TakingLimitAsks, book.MarketBids, book.MarketAsks} {
		list.Each(func(n *OrderNode) {
			if n.Order.InAuction(slot) {
				out = append(out, NodeToFill{Node: n})
			}
		})
	}
	return out
}
