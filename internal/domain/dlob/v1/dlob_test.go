package dlobv1

import (
	"testing"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitOrder(id uint64, user string, bid bool, price int64) *orderv1.Order {
	direction := orderv1.DirectionShort
	if bid {
		direction = orderv1.DirectionLong
	}
	return &orderv1.Order{
		OrderID:         id,
		UserAccount:     user,
		MarketType:      orderv1.MarketTypePerp,
		MarketIndex:     0,
		Direction:       direction,
		OrderType:       orderv1.OrderTypeLimit,
		Status:          orderv1.StatusOpen,
		BaseAssetAmount: 10 * orderv1.BasePrecision,
		Price:           price,
		PostOnly:        true,
	}
}

func TestDLOB_InsertAndGetOrder(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.Equal(t, o, got)
}

func TestDLOB_InsertOrder_IgnoresInitStatus(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	o.Status = orderv1.StatusInit
	d.InsertOrder(o, 0)

	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
}

func TestDLOB_DuplicateInsertOverwrites(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	o.Price = 200_000_000
	d.InsertOrder(o, 0)

	records := d.GetDLOBOrders()
	require.Len(t, records, 1)
	assert.Equal(t, int64(200_000_000), records[0].Order.Price)
}

func TestDLOB_DeleteOrder(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)
	d.DeleteOrder(o.Key(), 0)

	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
}

func TestDLOB_UpdateOrder_PartialFill(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	d.UpdateOrder(o.Key(), 0, 4*orderv1.BasePrecision)

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.Equal(t, int64(4*orderv1.BasePrecision), got.BaseAssetAmountFilled)
}

func TestDLOB_UpdateOrder_FullFillDeletesOrder(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	d.UpdateOrder(o.Key(), 0, o.BaseAssetAmount)

	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
}

func TestDLOB_UpdateOrder_IdempotentReplayIsNoOp(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)
	d.UpdateOrder(o.Key(), 0, 4*orderv1.BasePrecision)

	d.UpdateOrder(o.Key(), 0, 4*orderv1.BasePrecision)

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.Equal(t, int64(4*orderv1.BasePrecision), got.BaseAssetAmountFilled)
}

func TestDLOB_UpdateOrder_UnknownKeyIsNoOp(t *testing.T) {
	d := NewDLOB(nil)
	assert.NotPanics(t, func() {
		d.UpdateOrder(orderv1.Key{OrderID: 999, UserAccount: "nobody"}, 0, 1)
	})
}

func TestDLOB_Trigger_MovesOrderOutOfTriggerList(t *testing.T) {
	d := NewDLOB(nil)
	o := &orderv1.Order{
		OrderID:          1,
		UserAccount:      "alice",
		MarketType:       orderv1.MarketTypePerp,
		Direction:        orderv1.DirectionLong,
		OrderType:        orderv1.OrderTypeTriggerLimit,
		Status:           orderv1.StatusOpen,
		BaseAssetAmount:  10 * orderv1.BasePrecision,
		Price:            100_000_000,
		TriggerCondition: orderv1.TriggerConditionAbove,
		TriggerPrice:     90_000_000,
		PostOnly:         true,
	}
	d.InsertOrder(o, 0)

	d.Trigger(o.Key(), 0)

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.True(t, got.TriggerCondition.Triggered())

	bids, err := d.GetRestingLimitBids(orderv1.MarketTypePerp, 0, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, uint64(1), bids[0].Order.OrderID)
}

func TestDLOB_Trigger_UnknownKeyIsNoOp(t *testing.T) {
	d := NewDLOB(nil)
	assert.NotPanics(t, func() {
		d.Trigger(orderv1.Key{OrderID: 999, UserAccount: "nobody"}, 0)
	})
}

func TestDLOB_UpdateRestingLimitOrders_PromotesElapsedAuction(t *testing.T) {
	d := NewDLOB(nil)
	o := &orderv1.Order{
		OrderID:         1,
		UserAccount:     "alice",
		MarketType:      orderv1.MarketTypePerp,
		Direction:       orderv1.DirectionLong,
		OrderType:       orderv1.OrderTypeLimit,
		Status:          orderv1.StatusOpen,
		BaseAssetAmount: 10 * orderv1.BasePrecision,
		Price:           100_000_000,
		Slot:            10,
		AuctionDuration: 5,
	}
	d.InsertOrder(o, 10)

	bids, err := d.GetRestingLimitBids(orderv1.MarketTypePerp, 0, 10, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, bids)

	d.UpdateRestingLimitOrders(20)

	bids, err = d.GetRestingLimitBids(orderv1.MarketTypePerp, 0, 20, nil, nil)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, uint64(1), bids[0].Order.OrderID)
}

func TestDLOB_UpdateRestingLimitOrders_WatermarkIsMonotonic(t *testing.T) {
	d := NewDLOB(nil)
	d.UpdateRestingLimitOrders(50)
	assert.Equal(t, uint64(50), d.maxSlotForRestingLimitOrders)

	d.UpdateRestingLimitOrders(10)
	assert.Equal(t, uint64(50), d.maxSlotForRestingLimitOrders)
}

func TestDLOB_HandleOrderActionRecord_Fill(t *testing.T) {
	d := NewDLOB(nil)
	taker := limitOrder(1, "alice", true, 100_000_000)
	taker.PostOnly = false
	maker := limitOrder(2, "bob", false, 100_000_000)
	d.InsertOrder(taker, 0)
	d.InsertOrder(maker, 0)

	d.HandleOrderActionRecord(orderv1.OrderActionRecord{
		Action:     orderv1.ActionFill,
		MarketType: orderv1.MarketTypePerp,
		Taker:      &orderv1.OrderActionSide{OrderID: 1, UserAccount: "alice", CumulativeBaseAssetAmountFilled: 5 * orderv1.BasePrecision},
		Maker:      &orderv1.OrderActionSide{OrderID: 2, UserAccount: "bob", CumulativeBaseAssetAmountFilled: 5 * orderv1.BasePrecision},
	}, 0)

	gotTaker, ok := d.GetOrder(taker.Key())
	require.True(t, ok)
	assert.Equal(t, int64(5*orderv1.BasePrecision), gotTaker.BaseAssetAmountFilled)

	gotMaker, ok := d.GetOrder(maker.Key())
	require.True(t, ok)
	assert.Equal(t, int64(5*orderv1.BasePrecision), gotMaker.BaseAssetAmountFilled)
}

func TestDLOB_HandleOrderActionRecord_Cancel(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	d.HandleOrderActionRecord(orderv1.OrderActionRecord{
		Action: orderv1.ActionCancel,
		Taker:  &orderv1.OrderActionSide{OrderID: 1, UserAccount: "alice"},
	}, 0)

	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
}

func TestDLOB_HandleOrderActionRecord_PlaceAndExpireAreNoOps(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	d.HandleOrderActionRecord(orderv1.OrderActionRecord{Action: orderv1.ActionPlace}, 0)
	d.HandleOrderActionRecord(orderv1.OrderActionRecord{Action: orderv1.ActionExpire}, 0)

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.Equal(t, o, got)
}

func TestDLOB_Clear(t *testing.T) {
	d := NewDLOB(nil)
	o := limitOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	d.Clear()

	assert.Empty(t, d.GetDLOBOrders())
	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
}

func TestDLOB_InitFromSnapshot_OnlyAppliesOnce(t *testing.T) {
	d := NewDLOB(nil)
	o1 := limitOrder(1, "alice", true, 100_000_000)
	applied := d.InitFromSnapshot([]orderv1.UserAccount{{Key: "alice", Orders: []*orderv1.Order{o1}}}, 0)
	assert.True(t, applied)

	o2 := limitOrder(2, "bob", false, 200_000_000)
	appliedAgain := d.InitFromSnapshot([]orderv1.UserAccount{{Key: "bob", Orders: []*orderv1.Order{o2}}}, 0)
	assert.False(t, appliedAgain)

	assert.Len(t, d.GetDLOBOrders(), 1)
}
