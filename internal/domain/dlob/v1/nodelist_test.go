package dlobv1

import (
	"testing"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
)

func drain(it *NodeIterator) []uint64 {
	var out []uint64
	for {
		n, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, n.Order.OrderID)
	}
}

func TestNodeList_InsertGetRemove(t *testing.T) {
	nl := newNodeList(ClassificationRestingLimit, SideAsk)
	o := &orderv1.Order{OrderID: 1, UserAccount: "a"}
	node := nl.Insert(o)
	assert.Equal(t, 1, nl.Len())
	assert.Equal(t, o, node.Order)

	got, ok := nl.Get(o.Key())
	assert.True(t, ok)
	assert.Same(t, node, got)

	assert.True(t, nl.Remove(o.Key()))
	assert.Equal(t, 0, nl.Len())

	_, ok = nl.Get(o.Key())
	assert.False(t, ok)
	assert.False(t, nl.Remove(o.Key()))
}

func TestNodeList_RestingLimitAsks_SortedAscendingByPrice(t *testing.T) {
	nl := newNodeList(ClassificationRestingLimit, SideAsk)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", OrderType: orderv1.OrderTypeLimit, Price: 300})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", OrderType: orderv1.OrderTypeLimit, Price: 100})
	nl.Insert(&orderv1.Order{OrderID: 3, UserAccount: "c", OrderType: orderv1.OrderTypeLimit, Price: 200})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{2, 3, 1}, drain(it))
}

func TestNodeList_RestingLimitBids_SortedDescendingByPrice(t *testing.T) {
	nl := newNodeList(ClassificationRestingLimit, SideBid)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", OrderType: orderv1.OrderTypeLimit, Price: 300})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", OrderType: orderv1.OrderTypeLimit, Price: 100})
	nl.Insert(&orderv1.Order{OrderID: 3, UserAccount: "c", OrderType: orderv1.OrderTypeLimit, Price: 200})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{1, 3, 2}, drain(it))
}

func TestNodeList_SamePriceTieBreaksOnInsertionOrder(t *testing.T) {
	nl := newNodeList(ClassificationRestingLimit, SideAsk)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", OrderType: orderv1.OrderTypeLimit, Price: 100})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", OrderType: orderv1.OrderTypeLimit, Price: 100})
	nl.Insert(&orderv1.Order{OrderID: 3, UserAccount: "c", OrderType: orderv1.OrderTypeLimit, Price: 100})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{1, 2, 3}, drain(it))
}

func TestNodeList_TakingLimit_SortedBySlotThenSeq(t *testing.T) {
	nl := newNodeList(ClassificationTakingLimit, SideAsk)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", Slot: 20})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", Slot: 10})
	nl.Insert(&orderv1.Order{OrderID: 3, UserAccount: "c", Slot: 10})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{2, 3, 1}, drain(it))
}

func TestNodeList_TriggerAbove_SortedAscendingByTriggerPrice(t *testing.T) {
	nl := newNodeList(ClassificationTriggerAbove, SideBid)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", TriggerPrice: 300})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", TriggerPrice: 100})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{2, 1}, drain(it))
}

func TestNodeList_TriggerBelow_SortedDescendingByTriggerPrice(t *testing.T) {
	nl := newNodeList(ClassificationTriggerBelow, SideBid)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", TriggerPrice: 300})
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", TriggerPrice: 100})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	assert.Equal(t, []uint64{1, 2}, drain(it))
}

func TestNodeList_IteratorSnapshotIsStableAcrossMutation(t *testing.T) {
	nl := newNodeList(ClassificationRestingLimit, SideAsk)
	nl.Insert(&orderv1.Order{OrderID: 1, UserAccount: "a", OrderType: orderv1.OrderTypeLimit, Price: 100})

	it := nl.Iterator(orderv1.OraclePriceData{}, 0)
	nl.Insert(&orderv1.Order{OrderID: 2, UserAccount: "b", OrderType: orderv1.OrderTypeLimit, Price: 50})

	assert.Equal(t, []uint64{1}, drain(it))
}
