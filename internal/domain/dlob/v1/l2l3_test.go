package dlobv1

import (
	"testing"

	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeL2Source struct {
	tag  string
	bids []L2Level
	asks []L2Level
}

func (f fakeL2Source) Tag() string                                      { return f.tag }
func (f fakeL2Source) L2Bids(orderv1.OraclePriceData, uint64) []L2Level { return f.bids }
func (f fakeL2Source) L2Asks(orderv1.OraclePriceData, uint64) []L2Level { return f.asks }

func TestDLOB_GetL2_CollapsesSamePriceLevels(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "a", false, 100_000_000), 0)
	d.InsertOrder(limitOrder(2, "b", false, 100_000_000), 0)
	d.InsertOrder(limitOrder(3, "c", false, 200_000_000), 0)

	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 0, nil, nil, nil)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, int64(100_000_000), book.Asks[0].Price)
	assert.Equal(t, int64(20*orderv1.BasePrecision), book.Asks[0].Size)
	assert.Equal(t, int64(200_000_000), book.Asks[1].Price)
}

func TestDLOB_GetL2_AsksAscendingBidsDescending(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "a", false, 300_000_000), 0)
	d.InsertOrder(limitOrder(2, "b", false, 100_000_000), 0)
	d.InsertOrder(limitOrder(3, "c", true, 80_000_000), 0)
	d.InsertOrder(limitOrder(4, "d", true, 90_000_000), 0)

	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 0, nil, nil, nil)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, int64(100_000_000), book.Asks[0].Price)
	assert.Equal(t, int64(300_000_000), book.Asks[1].Price)

	require.Len(t, book.Bids, 2)
	assert.Equal(t, int64(90_000_000), book.Bids[0].Price)
	assert.Equal(t, int64(80_000_000), book.Bids[1].Price)
}

func TestDLOB_GetL2_DepthCapsEachSide(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "a", false, 100_000_000), 0)
	d.InsertOrder(limitOrder(2, "b", false, 200_000_000), 0)
	d.InsertOrder(limitOrder(3, "c", false, 300_000_000), 0)

	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 1, nil, nil, nil)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, int64(100_000_000), book.Asks[0].Price)
}

func TestDLOB_GetL2_ExcludesMakerAlreadyCrossingFallback(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "below", false, 90_000_000), 0)
	d.InsertOrder(limitOrder(2, "above", false, 150_000_000), 0)
	fallbackBid := int64(100_000_000)

	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 0, &fallbackBid, nil, nil)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, int64(150_000_000), book.Asks[0].Price)
}

func TestDLOB_GetL2_MergesFallbackSourceBySharedPrice(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "maker", false, 100_000_000), 0)

	src := fakeL2Source{
		tag: "amm",
		asks: []L2Level{
			{Price: 100_000_000, Size: 5 * orderv1.BasePrecision, Sources: map[string]struct{}{"amm": {}}},
		},
	}

	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 0, nil, nil, []FallbackL2Source{src})
	require.Len(t, book.Asks, 1)
	assert.Equal(t, int64(15*orderv1.BasePrecision), book.Asks[0].Size)
	assert.Contains(t, book.Asks[0].Sources, bookSourceTag)
	assert.Contains(t, book.Asks[0].Sources, "amm")
}

func TestDLOB_GetL2_EmptyBookReturnsEmptyLevels(t *testing.T) {
	d := NewDLOB(nil)
	book := d.GetL2(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{}, 0, nil, nil, nil)
	assert.Empty(t, book.Bids)
	assert.Empty(t, book.Asks)
}

func TestDLOB_GetL3_OneLevelPerOrderNoAggregation(t *testing.T) {
	d := NewDLOB(nil)
	d.InsertOrder(limitOrder(1, "a", false, 100_000_000), 0)
	d.InsertOrder(limitOrder(2, "b", false, 100_000_000), 0)

	book := d.GetL3(orderv1.MarketTypePerp, 0, 0, orderv1.OraclePriceData{})
	require.Len(t, book.Asks, 2)
	assert.ElementsMatch(t, []uint64{1, 2}, []uint64{book.Asks[0].OrderID, book.Asks[1].OrderID})
}

func TestDLOB_GetL3_UnknownBookReturnsEmpty(t *testing.T) {
	d := NewDLOB(nil)
	book := d.GetL3(orderv1.MarketTypePerp, 7, 0, orderv1.OraclePriceData{})
	assert.Empty(t, book.Bids)
	assert.Empty(t, book.Asks)
}
