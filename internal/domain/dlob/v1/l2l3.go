package dlobv1

import (
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// L2Level is one aggregated price level of an order-book projection. Sources
// records which liquidity sources (the DLOB book and, if merged, any
// fallback generator tags) contributed to the level.
type L2Level struct {
	Price   int64
	Size    int64
	Sources map[string]struct{}
}

// L3Level is one unaggregated order within a resting-limit projection.
type L3Level struct {
	Price   int64
	Size    int64
	Maker   string
	OrderID uint64
}

// bookSourceTag identifies the DLOB's own book as an L2 liquidity source,
// distinguishing it from any fallback generator's tag in a merged level.
const bookSourceTag = "book"

// FallbackL2Source supplies synthetic L2 levels (an AMM curve, a
// cross-venue order book) to splice into GetL2's projection. Tag identifies
// the source in a level's Sources set.
type FallbackL2Source interface {
	Tag() string
	L2Bids(oracle orderv1.OraclePriceData, slot uint64) []L2Level
	L2Asks(oracle orderv1.OraclePriceData, slot uint64) []L2Level
}

// L2Book is the paired bid/ask projection returned by GetL2.
type L2Book struct {
	Bids []L2Level
	Asks []L2Level
}

// L3Book is the paired bid/ask projection returned by GetL3.
type L3Book struct {
	Bids []L3Level
	Asks []L3Level
}

// GetL2 projects the maker-limit side of the book into aggregated price
// levels, merged with any supplied fallback L2 sources, collapsing
// consecutive same-price levels and capping each side at depth (0 = no cap).
func (d *DLOB) GetL2(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData, depth int, fallbackBid, fallbackAsk *int64, fallbackSources []FallbackL2Source) L2Book {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)

	asks := d.makerLimitLocked(marketType, marketIndex, slot, oracle, fallbackBid, nil, true)
	bids := d.makerLimitLocked(marketType, marketIndex, slot, oracle, fallbackAsk, nil, false)

	askLevels := nodesToL2(asks, oracle, slot)
	bidLevels := nodesToL2(bids, oracle, slot)

	for _, src := range fallbackSources {
		askLevels = append(askLevels, src.L2Asks(oracle, slot)...)
		bidLevels = append(bidLevels, src.L2Bids(oracle, slot)...)
	}

	return L2Book{
		Bids: collapseL2(bidLevels, false, depth),
		Asks: collapseL2(askLevels, true, depth),
	}
}

// nodesToL2 converts maker-limit OrderNodes into raw (pre-merge) L2 levels
// tagged as sourced from the book.
func nodesToL2(nodes []*OrderNode, oracle orderv1.OraclePriceData, slot uint64) []L2Level {
	levels := make([]L2Level, 0, len(nodes))
	for _, n := range nodes {
		price, ok := n.EffectivePrice(oracle, slot)
		if !ok {
			continue
		}
		levels = append(levels, L2Level{
			Price:   price,
			Size:    n.Order.BaseAssetAmountRemaining(),
			Sources: map[string]struct{}{bookSourceTag: {}},
		})
	}
	return levels
}

// collapseL2 sorts raw levels by price (ascending for asks, descending for
// bids), merges consecutive entries that share a price by summing size and
// unioning sources, then truncates to depth.
func collapseL2(levels []L2Level, ascending bool, depth int) []L2Level {
	sortL2(levels, ascending)

	var out []L2Level
	for _, lvl := range levels {
		if len(out) > 0 && out[len(out)-1].Price == lvl.Price {
			last := &out[len(out)-1]
			last.Size += lvl.Size
			for tag := range lvl.Sources {
				last.Sources[tag] = struct{}{}
			}
			continue
		}
		merged := L2Level{Price: lvl.Price, Size: lvl.Size, Sources: make(map[string]struct{}, len(lvl.Sources))}
		for tag := range lvl.Sources {
			merged.Sources[tag] = struct{}{}
		}
		out = append(out, merged)
	}

	if depth > 0 && len(out) > depth {
		out = out[:depth]
	}
	return out
}

// sortL2 performs a simple insertion sort: level counts per market are small
// enough that this avoids pulling in a second sort dependency for a
// one-shot projection slice.
func sortL2(levels []L2Level, ascending bool) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0; j-- {
			less := levels[j].Price < levels[j-1].Price
			if !ascending {
				less = levels[j].Price > levels[j-1].Price
			}
			if !less {
				break
			}
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

// GetL3 projects resting-limit orders only, one level per order, with no
// fallback liquidity and no depth cap.
func (d *DLOB) GetL3(marketType orderv1.MarketType, marketIndex uint16, slot uint64, oracle orderv1.OraclePriceData) L3Book {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateRestingLimitOrdersLocked(slot)

	book, ok := d.bookIfExists(marketType, marketIndex)
	if !ok {
		return L3Book{}
	}

	return L3Book{
		Bids: nodesToL3(collect(book.RestingLimitBids.Iterator(oracle, slot), 0)),
		Asks: nodesToL3(collect(book.RestingLimitAsks.Iterator(oracle, slot), 0)),
	}
}

func nodesToL3(nodes []*OrderNode) []L3Level {
	out := make([]L3Level, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, L3Level{
			Price:   n.Order.Price,
			Size:    n.Order.BaseAssetAmountRemaining(),
			Maker:   n.Order.UserAccount,
			OrderID: n.Order.OrderID,
		})
	}
	return out
}
