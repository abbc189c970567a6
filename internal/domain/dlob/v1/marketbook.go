package dlobv1

import (
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
)

// MarketBook bundles the ten NodeLists the classification state machine
// fans an order out into for one (market_type, market_index) pair: the
// bid/ask split of resting-limit, floating-limit, taking-limit and market
// orders, plus the two inactive-trigger lists.
type MarketBook struct {
	MarketType  orderv1.MarketType
	MarketIndex uint16

	RestingLimitBids  *NodeList
	RestingLimitAsks  *NodeList
	FloatingLimitBids *NodeList
	FloatingLimitAsks *NodeList
	TakingLimitBids   *NodeList
	TakingLimitAsks   *NodeList
	MarketBids        *NodeList
	MarketAsks        *NodeList
	TriggerAbove      *NodeList
	TriggerBelow      *NodeList
}

func newMarketBook(marketType orderv1.MarketType, marketIndex uint16) *MarketBook {
	return &MarketBook{
		MarketType:        marketType,
		MarketIndex:       marketIndex,
		RestingLimitBids:  newNodeList(ClassificationRestingLimit, SideBid),
		RestingLimitAsks:  newNodeList(ClassificationRestingLimit, SideAsk),
		FloatingLimitBids: newNodeList(ClassificationFloatingLimit, SideBid),
		FloatingLimitAsks: newNodeList(ClassificationFloatingLimit, SideAsk),
		TakingLimitBids:   newNodeList(ClassificationTakingLimit, SideBid),
		TakingLimitAsks:   newNodeList(ClassificationTakingLimit, SideAsk),
		MarketBids:        newNodeList(ClassificationMarket, SideBid),
		MarketAsks:        newNodeList(ClassificationMarket, SideAsk),
		TriggerAbove:      newNodeList(ClassificationTriggerAbove, SideBid),
		TriggerBelow:      newNodeList(ClassificationTriggerBelow, SideBid),
	}
}

// listFor returns the NodeList an order with the given classification and
// side belongs to. Side is ignored for the two trigger classifications.
func (mb *MarketBook) listFor(c Classification, isBid bool) *NodeList {
	switch c {
	case ClassificationRestingLimit:
		if isBid {
			return mb.RestingLimitBids
		}
		return mb.RestingLimitAsks
	case ClassificationFloatingLimit:
		if isBid {
			return mb.FloatingLimitBids
		}
		return mb.FloatingLimitAsks
	case ClassificationTakingLimit:
		if isBid {
			return mb.TakingLimitBids
		}
		return mb.TakingLimitAsks
	case ClassificationMarket:
		if isBid {
			return mb.MarketBids
		}
		return mb.MarketAsks
	case ClassificationTriggerAbove:
		return mb.TriggerAbove
	case ClassificationTriggerBelow:
		return mb.TriggerBelow
	default:
		return nil
	}
}

// all returns every NodeList in the book, for bulk scans that don't care
// about classification.
func (mb *MarketBook) all() []*NodeList {
	return []*NodeList{
		mb.RestingLimitBids, mb.RestingLimitAsks,
		mb.FloatingLimitBids, mb.FloatingLimitAsks,
		mb.TakingLimitBids, mb.TakingLimitAsks,
		mb.MarketBids, mb.MarketAsks,
		mb.TriggerAbove, mb.TriggerBelow,
	}
}
