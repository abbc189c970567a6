package mirror

import (
	"context"
	"sync"
	"testing"
	"time"

	dlobv1 "github.com/driftmirror/dlob-mirror/internal/domain/dlob/v1"
	ingestionv1 "github.com/driftmirror/dlob-mirror/internal/domain/ingestion/v1"
	orderv1 "github.com/driftmirror/dlob-mirror/internal/domain/order/v1"
	pricefeedv1 "github.com/driftmirror/dlob-mirror/internal/domain/pricefeed/v1"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	envelopes []*ingestionv1.OrderEventEnvelope
	next      int
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, *ingestionv1.OrderEventEnvelope, error) {
	f.mu.Lock()
	if f.next < len(f.envelopes) {
		env := f.envelopes[f.next]
		msg := kafka.Message{Offset: int64(f.next)}
		f.next++
		f.mu.Unlock()
		return msg, env, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, nil, ctx.Err()
}

func (f *fakeReader) SetOffset(offset int64) error { return nil }

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

func (f *fakeReader) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeFeedCache struct {
	oracle   orderv1.OraclePriceData
	oracleOK bool
	quote    pricefeedv1.FallbackQuote
	quoteOK  bool
}

func (f *fakeFeedCache) GetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (orderv1.OraclePriceData, bool, error) {
	return f.oracle, f.oracleOK, nil
}

func (f *fakeFeedCache) SetOraclePrice(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, price orderv1.OraclePriceData) error {
	f.oracle = price
	return nil
}

func (f *fakeFeedCache) GetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16) (pricefeedv1.FallbackQuote, bool, error) {
	return f.quote, f.quoteOK, nil
}

func (f *fakeFeedCache) SetFallbackQuote(ctx context.Context, marketType orderv1.MarketType, marketIndex uint16, quote pricefeedv1.FallbackQuote) error {
	f.quote = quote
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger()
	require.NoError(t, err)
	return log
}

func testOrder(id uint64, user string, bid bool, price int64) *orderv1.Order {
	direction := orderv1.DirectionShort
	if bid {
		direction = orderv1.DirectionLong
	}
	return &orderv1.Order{
		OrderID:         id,
		UserAccount:     user,
		MarketType:      orderv1.MarketTypePerp,
		Direction:       direction,
		OrderType:       orderv1.OrderTypeLimit,
		Status:          orderv1.StatusOpen,
		BaseAssetAmount: 10 * orderv1.BasePrecision,
		Price:           price,
		PostOnly:        true,
	}
}

func TestEngine_ApplyEnvelope_OrderRecordInsertsIntoDLOB(t *testing.T) {
	d := dlobv1.NewDLOB(testLogger(t))
	e := NewEngine(d, &fakeReader{}, &fakeFeedCache{}, testLogger(t), nil, DefaultOptions())

	o := testOrder(1, "alice", true, 100_000_000)
	e.applyEnvelope(&ingestionv1.OrderEventEnvelope{
		Type:        ingestionv1.EventTypeOrderRecord,
		Slot:        7,
		OrderRecord: &orderv1.OrderRecord{UserAccount: "alice", Order: o},
	})

	got, ok := d.GetOrder(o.Key())
	require.True(t, ok)
	assert.Equal(t, o, got)
	assert.Equal(t, uint64(7), e.getSlot())
}

func TestEngine_ApplyEnvelope_OrderActionRecordCancelsOrder(t *testing.T) {
	d := dlobv1.NewDLOB(testLogger(t))
	o := testOrder(1, "alice", true, 100_000_000)
	d.InsertOrder(o, 0)

	e := NewEngine(d, &fakeReader{}, &fakeFeedCache{}, testLogger(t), nil, DefaultOptions())
	e.applyEnvelope(&ingestionv1.OrderEventEnvelope{
		Type: ingestionv1.EventTypeOrderActionRecord,
		Slot: 3,
		OrderActionRecord: &orderv1.OrderActionRecord{
			Action: orderv1.ActionCancel,
			Taker:  &orderv1.OrderActionSide{OrderID: 1, UserAccount: "alice"},
		},
	})

	_, ok := d.GetOrder(o.Key())
	assert.False(t, ok)
	assert.Equal(t, uint64(3), e.getSlot())
}

func TestEngine_ApplyEnvelope_UnknownTypeDoesNotAdvanceSlot(t *testing.T) {
	d := dlobv1.NewDLOB(testLogger(t))
	e := NewEngine(d, &fakeReader{}, &fakeFeedCache{}, testLogger(t), nil, DefaultOptions())

	e.applyEnvelope(&ingestionv1.OrderEventEnvelope{Type: "bogus", Slot: 99})
	assert.Equal(t, uint64(0), e.getSlot())
}

func TestEngine_StartStop_AppliesQueuedEnvelopesThenShutsDownCleanly(t *testing.T) {
	d := dlobv1.NewDLOB(testLogger(t))
	o := testOrder(1, "alice", true, 100_000_000)
	reader := &fakeReader{envelopes: []*ingestionv1.OrderEventEnvelope{
		{Type: ingestionv1.EventTypeOrderRecord, Slot: 1, OrderRecord: &orderv1.OrderRecord{UserAccount: "alice", Order: o}},
	}}
	opts := DefaultOptions()
	opts.PriceFeedRefreshInterval = 10 * time.Millisecond

	e := NewEngine(d, reader, &fakeFeedCache{}, testLogger(t), []MarketRef{{MarketType: orderv1.MarketTypePerp, MarketIndex: 0}}, opts)

	require.NoError(t, e.Start(context.Background()))

	require.Eventually(t, func() bool {
		_, ok := d.GetOrder(o.Key())
		return ok
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return reader.commitCount() >= 1
	}, time.Second, 5*time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Stop(shutdownCtx))
	assert.True(t, reader.isClosed())
}

func TestEngine_BestBid_UsesRefreshedFallbackQuote(t *testing.T) {
	d := dlobv1.NewDLOB(testLogger(t))
	d.InsertOrder(testOrder(1, "alice", true, 90_000_000), 0)

	market := MarketRef{MarketType: orderv1.MarketTypePerp, MarketIndex: 0}
	bid := int64(120_000_000)
	e := NewEngine(d, &fakeReader{}, &fakeFeedCache{}, testLogger(t), []MarketRef{market}, DefaultOptions())
	e.setFallback(market, pricefeedv1.FallbackQuote{Bid: &bid})

	best, ok := e.BestBid(market)
	require.True(t, ok)
	assert.Equal(t, bid, best.Order.Price)
}
